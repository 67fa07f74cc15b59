package payment

import (
	"context"
	"fmt"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// InvoiceCacheInvalidator drops the cached invoice list of a customer once a
// payment against them has been allocated, so the next load sees the new statuses.
type InvoiceCacheInvalidator struct {
	cache  shared.Cache
	logger *zap.Logger
}

// NewInvoiceCacheInvalidator creates the handler
func NewInvoiceCacheInvalidator(cache shared.Cache, logger *zap.Logger) *InvoiceCacheInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceCacheInvalidator{cache: cache, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *InvoiceCacheInvalidator) EventTypes() []string {
	return []string{billing.EventTypePaymentAllocated}
}

// Handle deletes the paid customer's invoice list
func (h *InvoiceCacheInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	allocated, ok := event.(*billing.PaymentAllocated)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			billing.EventTypePaymentAllocated, event.EventType())
	}
	key := invoiceCacheKey(allocated.Customer)
	if err := h.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("invalidate invoices of %s: %w", allocated.Customer, err)
	}
	h.logger.Debug("invoice cache invalidated",
		zap.String("customer", allocated.Customer.String()),
		zap.Int64("receipt_id", allocated.ReceiptID))
	return nil
}

var _ shared.EventHandler = (*InvoiceCacheInvalidator)(nil)
