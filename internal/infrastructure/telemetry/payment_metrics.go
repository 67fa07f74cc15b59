package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	AttrOutcome  = attribute.Key("outcome")
	AttrCategory = attribute.Key("category")
	AttrRule     = attribute.Key("rule")
	AttrPath     = attribute.Key("path")
	AttrStatus   = attribute.Key("status")
)

// Submit outcomes.
const (
	OutcomeAllocated = "allocated"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
	OutcomeDiscarded = "discarded"
)

// PaymentMetrics records billing desk instruments. A nil *PaymentMetrics is a
// valid no-op recorder.
type PaymentMetrics struct {
	submitted          *Counter
	amount             *Histogram
	receiptFailures    *Counter
	validationFailures *Counter
	duplicateSubmits   *Counter
	upstreamDuration   *Histogram
}

// NewPaymentMetrics registers the instruments on meter.
func NewPaymentMetrics(meter metric.Meter) (*PaymentMetrics, error) {
	var (
		m   PaymentMetrics
		err error
	)
	if m.submitted, err = NewCounter(meter, "payments_submitted_total",
		"Payment allocation submissions by outcome", "{submission}"); err != nil {
		return nil, err
	}
	if m.amount, err = NewHistogram(meter, HistogramOpts{
		Name:        "payment_amount",
		Description: "Tendered amount of allocated payments",
		Unit:        "{currency}",
		Boundaries:  []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
	}); err != nil {
		return nil, err
	}
	if m.receiptFailures, err = NewCounter(meter, "receipt_fetch_failures_total",
		"Receipts that could not be fetched after a successful allocation", "{receipt}"); err != nil {
		return nil, err
	}
	if m.validationFailures, err = NewCounter(meter, "validation_failures_total",
		"Submissions blocked by a validation rule", "{failure}"); err != nil {
		return nil, err
	}
	if m.duplicateSubmits, err = NewCounter(meter, "duplicate_submits_total",
		"Submissions rejected while another was in flight", "{submission}"); err != nil {
		return nil, err
	}
	if m.upstreamDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "hmis_request_duration_seconds",
		Description: "Latency of calls to the hospital API",
		Unit:        "s",
		Boundaries:  []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordSubmit counts a submission outcome. amount is only recorded for
// allocated payments.
func (m *PaymentMetrics) RecordSubmit(ctx context.Context, outcome, category string, amount float64) {
	if m == nil {
		return
	}
	m.submitted.Inc(ctx, AttrOutcome.String(outcome), AttrCategory.String(category))
	if outcome == OutcomeAllocated {
		m.amount.Record(ctx, amount, AttrCategory.String(category))
	}
}

// RecordReceiptFailure counts a best-effort receipt fetch that failed.
func (m *PaymentMetrics) RecordReceiptFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.receiptFailures.Inc(ctx)
}

// RecordValidationFailure counts a submission blocked by rule.
func (m *PaymentMetrics) RecordValidationFailure(ctx context.Context, rule string) {
	if m == nil {
		return
	}
	m.validationFailures.Inc(ctx, AttrRule.String(rule))
}

// RecordDuplicateSubmit counts a submission rejected by the in-flight guard.
func (m *PaymentMetrics) RecordDuplicateSubmit(ctx context.Context) {
	if m == nil {
		return
	}
	m.duplicateSubmits.Inc(ctx)
}

// RecordUpstream records an HMIS call. status is 0 for transport failures.
func (m *PaymentMetrics) RecordUpstream(ctx context.Context, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.RecordDuration(ctx, d, AttrPath.String(path), AttrStatus.Int(status))
}
