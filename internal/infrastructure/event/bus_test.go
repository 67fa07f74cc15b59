package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "PaymentReceipt", "42"),
		Data:            "test data",
	}
}

type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("billing.payment.allocated")
	bus.Subscribe(handler)

	event := newTestEvent("billing.payment.allocated")
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_Publish_MultipleEventsInOrder(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler, "TestEvent")

	first := newTestEvent("TestEvent")
	second := newTestEvent("TestEvent")
	require.NoError(t, bus.Publish(context.Background(), first, nil, second))

	handled := handler.getHandled()
	require.Len(t, handled, 2)
	assert.Equal(t, first.EventID(), handled[0].EventID())
	assert.Equal(t, second.EventID(), handled[1].EventID())
}

func TestInMemoryEventBus_Publish_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	wildcard := newTestHandler()
	bus.Subscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("AnyEventType")))
	assert.Len(t, wildcard.getHandled(), 1)
}

func TestInMemoryEventBus_Publish_FailingHandlerDoesNotStopOthers(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(h *testHandler)
	}{
		{"error", func(h *testHandler) { h.err = errors.New("handler error") }},
		{"panic", func(h *testHandler) { h.panicWith = "boom" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewInMemoryEventBus(zap.NewNop())
			failing := newTestHandler("TestEvent")
			tt.prepare(failing)
			healthy := newTestHandler("TestEvent")
			bus.Subscribe(failing)
			bus.Subscribe(healthy)

			err := bus.Publish(context.Background(), newTestEvent("TestEvent"))

			require.NoError(t, err)
			assert.Len(t, failing.getHandled(), 1)
			assert.Len(t, healthy.getHandled(), 1)
			assert.Equal(t, int64(1), bus.Failures())
		})
	}
}

func TestInMemoryEventBus_Publish_NoMatchingHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("OtherEvent")
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TestEvent")))
	assert.Empty(t, handler.getHandled())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), newTestEvent("TestEvent"))
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("TestEvent"))

	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(nil)
	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler)

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, newTestEvent("TestEvent")))

	require.NoError(t, bus.Stop(ctx))
	assert.ErrorIs(t, bus.Publish(ctx, newTestEvent("TestEvent")), ErrBusStopped)

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, newTestEvent("TestEvent")))
	assert.Len(t, handler.getHandled(), 2)
}
