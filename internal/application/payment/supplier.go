package payment

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/payables"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/logger"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const supplierKeyPrefix = "payment:supplier:"

// ErrSuppliersUnavailable is returned when no supplier gateway is configured
var ErrSuppliersUnavailable = errors.New("payment: supplier payments are not configured")

// SupplierStatement is what is owed to a supplier and how a tendered amount would settle it
type SupplierStatement struct {
	SupplierID int64                      `json:"supplier_id"`
	Invoices   []payables.SupplierInvoice `json:"invoices"`
	Summary    billing.Summary            `json:"summary"`
}

// SupplierPaymentResult is the outcome of a posted supplier payment
type SupplierPaymentResult struct {
	Receipt    *payables.SupplierReceipt   `json:"receipt"`
	Allocation payables.SupplierAllocation `json:"allocation"`
	Summary    billing.Summary             `json:"summary"`
}

// SupplierStatement lists the supplier's pending invoices. With selected ids
// the summary covers only those, in the given order; otherwise every invoice.
func (s *Service) SupplierStatement(ctx context.Context, supplierID int64, selected []int64, tendered string) (*SupplierStatement, error) {
	if s.suppliers == nil {
		return nil, ErrSuppliersUnavailable
	}
	invoices, err := s.suppliers.SupplierInvoices(ctx, supplierID)
	if err != nil {
		return nil, &billing.DataFetchError{Resource: "supplier invoices", Err: err}
	}
	chosen := invoices
	if len(selected) > 0 {
		if chosen, err = pickSupplierInvoices(invoices, selected); err != nil {
			return nil, err
		}
	}
	if invoices == nil {
		invoices = []payables.SupplierInvoice{}
	}
	return &SupplierStatement{
		SupplierID: supplierID,
		Invoices:   invoices,
		Summary:    payables.Aggregate(chosen, billing.ToDecimal(tendered)),
	}, nil
}

// AllocateSupplierPayment validates and posts a payment to a supplier in one step.
// The selected invoices must be pending invoices of that supplier.
func (s *Service) AllocateSupplierPayment(ctx context.Context, payment payables.SupplierPayment) (*SupplierPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "AllocateSupplierPayment")
	defer span.End()

	result, err := s.allocateSupplierPayment(ctx, payment)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return result, nil
}

func (s *Service) allocateSupplierPayment(ctx context.Context, payment payables.SupplierPayment) (*SupplierPaymentResult, error) {
	if s.suppliers == nil {
		return nil, ErrSuppliersUnavailable
	}
	log := logger.WithLogger(ctx, s.logger)

	allocation, err := payment.Allocation()
	if err != nil {
		s.recordRejection(ctx, err)
		return nil, err
	}

	invoices, err := s.suppliers.SupplierInvoices(ctx, allocation.SupplierID)
	if err != nil {
		return nil, &billing.DataFetchError{Resource: "supplier invoices", Err: err}
	}
	chosen, err := pickSupplierInvoices(invoices, allocation.InvoiceIDs)
	if err != nil {
		return nil, err
	}
	allocation.InvoiceIDs = allocation.InvoiceIDs[:0]
	for _, inv := range chosen {
		allocation.InvoiceIDs = append(allocation.InvoiceIDs, inv.ID)
	}
	summary := payables.Aggregate(chosen, allocation.Amount)

	key := supplierKeyPrefix + strconv.FormatInt(allocation.SupplierID, 10) + ":" + strings.ToLower(allocation.ReferenceNumber)
	if s.guard != nil {
		ok, err := s.guard.Claim(ctx, key, s.cfg.SubmitLockTTL)
		switch {
		case err != nil:
			log.Warn("supplier submit guard unavailable", zap.Error(err))
		case !ok:
			s.recordRejection(ctx, billing.ErrSubmitInFlight)
			return nil, billing.ErrSubmitInFlight
		default:
			defer func() {
				if relErr := s.guard.Release(context.WithoutCancel(ctx), key); relErr != nil {
					log.Warn("failed to release supplier submit guard", zap.Error(relErr))
				}
			}()
		}
	}

	telemetry.SetAttributes(trace.SpanFromContext(ctx),
		telemetry.SpanAttrSupplierID, allocation.SupplierID,
		telemetry.SpanAttrAmount, allocation.Amount.String(),
	)
	receipt, err := s.suppliers.AllocateSupplierPayment(context.WithoutCancel(ctx), allocation)
	if err != nil {
		allocErr := toAllocationError(err)
		s.metrics.RecordSubmit(ctx, telemetry.OutcomeFailed, "supplier", allocation.Amount.InexactFloat64())
		log.Error("supplier payment failed",
			zap.Int64("supplier_id", allocation.SupplierID),
			zap.Int("upstream_status", allocErr.Status),
			zap.Error(err))
		return nil, allocErr
	}
	s.metrics.RecordSubmit(ctx, telemetry.OutcomeAllocated, "supplier", allocation.Amount.InexactFloat64())
	log.Info("supplier payment allocated",
		zap.Int64("supplier_id", allocation.SupplierID),
		zap.Int64("receipt_id", receipt.ID),
		zap.String("amount", allocation.Amount.String()),
		zap.String("balance", summary.Balance.String()))

	return &SupplierPaymentResult{Receipt: receipt, Allocation: allocation, Summary: summary}, nil
}

func pickSupplierInvoices(invoices []payables.SupplierInvoice, ids []int64) ([]payables.SupplierInvoice, error) {
	out := make([]payables.SupplierInvoice, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		i := slices.IndexFunc(invoices, func(inv payables.SupplierInvoice) bool { return inv.ID == id })
		if i < 0 {
			return nil, unknownInvoice(id)
		}
		out = append(out, invoices[i])
	}
	return out, nil
}
