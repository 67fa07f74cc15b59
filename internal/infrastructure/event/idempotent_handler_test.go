package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/shared"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsClaimed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func eventKey(event shared.DomainEvent) string {
	return "event:" + event.EventID().String()
}

func TestIdempotentHandler_Handle_NewEvent(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := new(MockEventHandler)
	event := newTestEvent("billing.payment.allocated")

	store.On("Claim", mock.Anything, eventKey(event), 2*time.Minute).Return(true, nil)
	inner.On("Handle", mock.Anything, event).Return(nil)

	handler := NewIdempotentHandler(inner, store, zap.NewNop())
	require.NoError(t, handler.Handle(context.Background(), event))

	store.AssertExpectations(t)
	inner.AssertExpectations(t)
	assert.Equal(t, int64(1), handler.Metrics().EventsProcessed.Load())
}

func TestIdempotentHandler_Handle_DuplicateEvent(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := new(MockEventHandler)
	event := newTestEvent("billing.payment.allocated")

	store.On("Claim", mock.Anything, eventKey(event), mock.Anything).Return(false, nil)

	handler := NewIdempotentHandler(inner, store, zap.NewNop())
	require.NoError(t, handler.Handle(context.Background(), event))

	inner.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	assert.Equal(t, int64(1), handler.Metrics().EventsDuplicate.Load())
}

func TestIdempotentHandler_Handle_FailureReleasesClaim(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := new(MockEventHandler)
	event := newTestEvent("billing.payment.allocated")
	handlerErr := errors.New("cache unavailable")

	store.On("Claim", mock.Anything, eventKey(event), mock.Anything).Return(true, nil)
	store.On("Release", mock.Anything, eventKey(event)).Return(nil)
	inner.On("Handle", mock.Anything, event).Return(handlerErr)

	handler := NewIdempotentHandler(inner, store, zap.NewNop())
	err := handler.Handle(context.Background(), event)

	assert.ErrorIs(t, err, handlerErr)
	store.AssertExpectations(t)
	assert.Equal(t, int64(1), handler.Metrics().EventsFailed.Load())
}

func TestIdempotentHandler_Handle_StoreErrorStillProcesses(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := new(MockEventHandler)
	event := newTestEvent("billing.payment.allocated")

	store.On("Claim", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	inner.On("Handle", mock.Anything, event).Return(errors.New("failed"))

	handler := NewIdempotentHandler(inner, store, zap.NewNop())
	require.Error(t, handler.Handle(context.Background(), event))

	inner.AssertExpectations(t)
	// Nothing was claimed so nothing is released.
	store.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestIdempotentHandler_Handle_Disabled(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := new(MockEventHandler)
	event := newTestEvent("billing.payment.allocated")
	inner.On("Handle", mock.Anything, event).Return(nil).Twice()

	handler := NewIdempotentHandler(inner, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}),
	)
	require.NoError(t, handler.Handle(context.Background(), event))
	require.NoError(t, handler.Handle(context.Background(), event))

	inner.AssertExpectations(t)
	store.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdempotentHandler_CustomTTL(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := new(MockEventHandler)
	event := newTestEvent("billing.payment.allocated")

	store.On("Claim", mock.Anything, eventKey(event), 10*time.Minute).Return(true, nil)
	inner.On("Handle", mock.Anything, event).Return(nil)

	handler := NewIdempotentHandler(inner, store, nil,
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: true, TTL: 10 * time.Minute}),
	)
	require.NoError(t, handler.Handle(context.Background(), event))
	store.AssertExpectations(t)
}

func TestIdempotentHandler_Delegation(t *testing.T) {
	inner := new(MockEventHandler)
	inner.On("EventTypes").Return([]string{"billing.payment.allocated"})

	handler := NewIdempotentHandler(inner, new(MockIdempotencyStore), zap.NewNop())

	assert.Equal(t, []string{"billing.payment.allocated"}, handler.EventTypes())
	assert.Same(t, inner, handler.Unwrap())
}

func TestIdempotentHandler_SharedMetrics(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	defer store.Close()
	metrics := &IdempotencyMetrics{}

	first := NewIdempotentHandler(newTestHandler(), store, zap.NewNop(), WithIdempotencyMetrics(metrics))
	second := NewIdempotentHandler(newTestHandler(), store, zap.NewNop(), WithIdempotencyMetrics(metrics))

	event := newTestEvent("billing.payment.allocated")
	require.NoError(t, first.Handle(context.Background(), event))
	require.NoError(t, second.Handle(context.Background(), event))

	stats := metrics.Stats()
	assert.Equal(t, int64(1), stats.EventsProcessed)
	assert.Equal(t, int64(1), stats.EventsDuplicate)
}

func TestIdempotentHandler_ConcurrentDuplicates(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	defer store.Close()

	inner := newTestHandler()
	event := newTestEvent("billing.payment.allocated")
	handler := NewIdempotentHandler(inner, store, zap.NewNop())

	const workers = 50
	errs := make(chan error, workers)
	for range workers {
		go func() {
			errs <- handler.Handle(context.Background(), event)
		}()
	}
	for range workers {
		assert.NoError(t, <-errs)
	}

	assert.Len(t, inner.getHandled(), 1)
	assert.Equal(t, int64(1), handler.Metrics().EventsProcessed.Load())
	assert.Equal(t, int64(workers-1), handler.Metrics().EventsDuplicate.Load())
}
