// Package payment runs the billing desk payment flow: it keeps per-operator
// payment sessions, validates them, posts the resulting allocation to the
// HMIS and collects the receipt.
package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/payables"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/shared"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/logger"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	submitKeyPrefix  = "payment:submit:"
	invoiceKeyPrefix = "invoices:"
	pdfContentType   = "application/pdf"
)

// ModeResolver lists the payment modes usable for a customer
type ModeResolver interface {
	PaymentModesFor(ctx context.Context, customer billing.CustomerRef) ([]billing.PaymentModeOption, error)
}

// Dependencies are the collaborators of Service. Invoices, Poster and Receipts are required;
// supplier payments are disabled without Suppliers.
type Dependencies struct {
	Invoices     billing.InvoiceSource
	Poster       billing.PaymentPoster
	Receipts     billing.ReceiptSource
	Modes        ModeResolver
	Suppliers    payables.Gateway
	ReceiptStore billing.ReceiptStore
	Guard        shared.IdempotencyStore
	Cache        shared.Cache
	Events       shared.EventPublisher
	Metrics      *telemetry.PaymentMetrics
	Logger       *zap.Logger
}

// Config tunes Service
type Config struct {
	SessionTTL    time.Duration
	SweepInterval time.Duration
	SubmitLockTTL time.Duration
	InvoiceTTL    time.Duration
	// Location decides which calendar day "today" is for the default payment date
	Location *time.Location
	// Currency is the ISO 4217 code used for display totals
	Currency string
}

// Service is the payment allocation orchestrator.
type Service struct {
	sessions     *SessionStore
	invoices     billing.InvoiceSource
	poster       billing.PaymentPoster
	receipts     billing.ReceiptSource
	modes        ModeResolver
	suppliers    payables.Gateway
	receiptStore billing.ReceiptStore
	guard        shared.IdempotencyStore
	cache        shared.Cache
	events       shared.EventPublisher
	metrics      *telemetry.PaymentMetrics
	logger       *zap.Logger
	cfg          Config
	money        *billing.MoneyFormatter
	nowFunc      func() time.Time
}

// NewService creates the orchestrator. Close releases its session sweeper.
func NewService(deps Dependencies, cfg Config) (*Service, error) {
	if deps.Invoices == nil || deps.Poster == nil || deps.Receipts == nil {
		return nil, errors.New("payment: invoice source, poster and receipt source are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.SubmitLockTTL <= 0 {
		cfg.SubmitLockTTL = shared.DefaultIdempotencyConfig().TTL
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Service{
		sessions:     NewSessionStore(cfg.SessionTTL, cfg.SweepInterval),
		money:        billing.NewMoneyFormatter(cfg.Currency),
		invoices:     deps.Invoices,
		poster:       deps.Poster,
		receipts:     deps.Receipts,
		modes:        deps.Modes,
		suppliers:    deps.Suppliers,
		receiptStore: deps.ReceiptStore,
		guard:        deps.Guard,
		cache:        deps.Cache,
		events:       deps.Events,
		metrics:      deps.Metrics,
		logger:       deps.Logger.Named("payment"),
		cfg:          cfg,
		nowFunc:      time.Now,
	}, nil
}

// Close stops background session eviction
func (s *Service) Close() {
	s.sessions.Close()
}

// SubmitResult is the outcome of a successful submission.
type SubmitResult struct {
	SessionID  string                    `json:"session_id"`
	Receipt    *billing.Receipt          `json:"receipt"`
	Allocation billing.PaymentAllocation `json:"allocation"`
	Summary    billing.Summary           `json:"summary"`
	ReceiptURL string                    `json:"receipt_url,omitempty"`
	// Warnings are non-fatal problems, such as a receipt that could not be fetched
	Warnings []error `json:"-"`
	// Discarded is set when the session was abandoned while the post was in flight
	Discarded bool `json:"discarded,omitempty"`
}

// SummaryView is the aggregate of a session's selection and its projected allocation
type SummaryView struct {
	State   State                     `json:"state"`
	Summary billing.Summary           `json:"summary"`
	Display billing.SummaryDisplay    `json:"display"`
	Preview billing.AllocationPreview `json:"allocation_preview"`
}

// Start opens a new session for owner
func (s *Service) Start(ctx context.Context, owner string) SessionView {
	now := s.nowFunc()
	sess := NewSession(uuid.NewString(), owner, billing.Today(now, s.cfg.Location), now)
	s.sessions.Add(sess)
	logger.WithLogger(ctx, s.logger).Debug("payment session started", zap.String("session_id", sess.ID))
	return sess.View()
}

// Get returns a snapshot of the owner's session
func (s *Service) Get(ctx context.Context, owner, sessionID string) (SessionView, error) {
	return s.update(owner, sessionID, func(*Session) error { return nil })
}

// SelectCategory chooses cash or credit
func (s *Service) SelectCategory(ctx context.Context, owner, sessionID string, category billing.PaymentCategory) (SessionView, error) {
	return s.update(owner, sessionID, func(sess *Session) error {
		return sess.SelectCategory(category)
	})
}

// SelectCustomer chooses the patient or insurer. Invoices must be loaded again afterwards.
func (s *Service) SelectCustomer(ctx context.Context, owner, sessionID string, customerID int64) (SessionView, error) {
	return s.update(owner, sessionID, func(sess *Session) error {
		return sess.SelectCustomer(customerID)
	})
}

// SelectInvoices replaces the invoice selection
func (s *Service) SelectInvoices(ctx context.Context, owner, sessionID string, invoiceIDs []int64) (SessionView, error) {
	return s.update(owner, sessionID, func(sess *Session) error {
		return sess.SelectInvoices(invoiceIDs)
	})
}

// SetAmount stores the tendered amount
func (s *Service) SetAmount(ctx context.Context, owner, sessionID, amount string) (SessionView, error) {
	return s.update(owner, sessionID, func(sess *Session) error {
		return sess.SetAmount(amount)
	})
}

// SetDetails stores payment mode, reference and date. When a ModeResolver is
// configured the mode must be one offered to the session's customer.
func (s *Service) SetDetails(ctx context.Context, owner, sessionID string, paymentModeID *int64, reference, date string) (SessionView, error) {
	var customer billing.CustomerRef
	var hasCustomer bool
	if _, err := s.update(owner, sessionID, func(sess *Session) error {
		customer, hasCustomer = sess.Customer()
		return sess.ensureOpen()
	}); err != nil {
		return SessionView{}, err
	}

	if paymentModeID != nil && hasCustomer && s.modes != nil {
		if err := s.checkMode(ctx, customer, *paymentModeID); err != nil {
			return SessionView{}, err
		}
	}

	return s.update(owner, sessionID, func(sess *Session) error {
		return sess.SetDetails(paymentModeID, reference, date)
	})
}

func (s *Service) checkMode(ctx context.Context, customer billing.CustomerRef, modeID int64) error {
	modes, err := s.modes.PaymentModesFor(ctx, customer)
	if err != nil {
		// The posting service still validates the mode.
		logger.WithLogger(ctx, s.logger).Warn("could not verify payment mode", zap.Int64("payment_mode_id", modeID), zap.Error(err))
		return nil
	}
	if _, ok := billing.FindMode(modes, modeID); !ok {
		return violation(billing.RulePaymentMode, "Please select a payment mode")
	}
	return nil
}

// LoadInvoices fetches the invoices of the session's customer and offers them for selection.
// On failure the session keeps the invoices it had.
func (s *Service) LoadInvoices(ctx context.Context, owner, sessionID string) (SessionView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "LoadInvoices",
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, sessionID),
	)
	defer span.End()

	var customer billing.CustomerRef
	generation, err := s.sessions.Update(sessionID, owner, func(sess *Session) error {
		if err := sess.ensureOpen(); err != nil {
			return err
		}
		c, ok := sess.Customer()
		if !ok {
			return ErrNoCustomer
		}
		customer = c
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return SessionView{}, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, customer.ID,
		telemetry.SpanAttrCustomerKind, string(customer.Kind),
	)

	invoices, err := s.fetchInvoices(ctx, customer)
	if err != nil {
		fetchErr := &billing.DataFetchError{Resource: "invoices", Err: err}
		telemetry.RecordError(span, fetchErr)
		logger.WithLogger(ctx, s.logger).Error("failed to load invoices",
			zap.String("customer", customer.String()), zap.Error(err))
		return SessionView{}, fetchErr
	}

	var view SessionView
	live := s.sessions.Complete(sessionID, generation, func(sess *Session) {
		if current, ok := sess.Customer(); ok && current == customer && !sess.Submitting() {
			if dropped := sess.SetAvailableInvoices(invoices); len(dropped) > 0 {
				logger.WithLogger(ctx, s.logger).Warn("dropped invoices owned by another customer",
					zap.String("customer", customer.String()),
					zap.Int64s("invoice_ids", billing.InvoiceIDs(dropped)))
			}
		}
		view = sess.View()
	})
	if !live {
		return SessionView{}, ErrSessionNotFound
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceCount, len(view.AvailableInvoices))
	telemetry.SetOK(span)
	return view, nil
}

func (s *Service) fetchInvoices(ctx context.Context, customer billing.CustomerRef) ([]billing.Invoice, error) {
	key := invoiceCacheKey(customer)
	if s.cache != nil && s.cfg.InvoiceTTL > 0 {
		var cached []billing.Invoice
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.WithLogger(ctx, s.logger).Warn("invoice cache read failed", zap.String("key", key), zap.Error(err))
		}
		if hit {
			return cached, nil
		}
	}

	invoices, err := s.invoices.InvoicesFor(ctx, customer)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.cfg.InvoiceTTL > 0 {
		if err := s.cache.Set(ctx, key, invoices, s.cfg.InvoiceTTL); err != nil {
			logger.WithLogger(ctx, s.logger).Warn("invoice cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return invoices, nil
}

// Summary aggregates the selection and projects how the tendered amount would be applied
func (s *Service) Summary(ctx context.Context, owner, sessionID string) (SummaryView, error) {
	var out SummaryView
	_, err := s.sessions.Update(sessionID, owner, func(sess *Session) error {
		summary := sess.Summary()
		out = SummaryView{
			State:   sess.State(),
			Summary: summary,
			Display: s.money.Display(summary),
			Preview: billing.PreviewAllocation(summary),
		}
		return nil
	})
	if err != nil {
		return SummaryView{}, err
	}
	s.logAnomalies(ctx, sessionID, out.Summary.Anomalies)
	return out, nil
}

// Submit validates the session and posts its allocation.
//
// Only one submission per session may be outstanding; a second one fails with
// billing.ErrSubmitInFlight. A failed post leaves the session ready to submit
// again. Receipt problems after a successful post are reported as warnings.
func (s *Service) Submit(ctx context.Context, owner, sessionID string) (*SubmitResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "Submit",
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, sessionID),
	)
	defer span.End()
	ctx = logger.WithSessionID(ctx, sessionID)

	var (
		result *SubmitResult
		opErr  error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.PaymentLabels("submit", ""), func(c context.Context) {
		result, opErr = s.submit(c, owner, sessionID)
	})
	if opErr != nil {
		telemetry.RecordError(span, opErr)
		return nil, opErr
	}
	if result.Receipt != nil {
		telemetry.SetAttribute(span, telemetry.SpanAttrReceiptID, result.Receipt.ID)
	}
	telemetry.SetOK(span)
	return result, nil
}

func (s *Service) submit(ctx context.Context, owner, sessionID string) (*SubmitResult, error) {
	log := logger.WithLogger(ctx, s.logger)

	var (
		allocation billing.PaymentAllocation
		summary    billing.Summary
		category   billing.PaymentCategory
	)
	generation, err := s.sessions.Update(sessionID, owner, func(sess *Session) error {
		// BuildAllocation refuses while a previous submission is in flight.
		built, err := sess.BuildAllocation()
		if err != nil {
			return err
		}
		allocation, summary, category = built, sess.Summary(), sess.category
		sess.markSubmitting()
		return nil
	})
	if err != nil {
		s.recordRejection(ctx, err)
		return nil, err
	}

	key := submitKeyPrefix + sessionID
	claimed := false
	if s.guard != nil {
		ok, err := s.guard.Claim(ctx, key, s.cfg.SubmitLockTTL)
		switch {
		case err != nil:
			log.Warn("submit guard unavailable, relying on in-process flag", zap.Error(err))
		case !ok:
			s.sessions.Complete(sessionID, generation, (*Session).clearSubmitting)
			s.recordRejection(ctx, billing.ErrSubmitInFlight)
			return nil, billing.ErrSubmitInFlight
		default:
			claimed = true
		}
	}

	// The desk disconnecting must not abort a payment the HMIS may already be applying.
	postCtx := context.WithoutCancel(ctx)
	receipt, err := s.poster.AllocatePayment(postCtx, allocation)
	if err != nil {
		if claimed {
			if relErr := s.guard.Release(postCtx, key); relErr != nil {
				log.Warn("failed to release submit guard", zap.Error(relErr))
			}
		}
		s.sessions.Complete(sessionID, generation, (*Session).clearSubmitting)
		allocErr := toAllocationError(err)
		s.metrics.RecordSubmit(ctx, telemetry.OutcomeFailed, category.String(), allocation.Amount.InexactFloat64())
		log.Error("payment allocation failed",
			zap.Int("upstream_status", allocErr.Status),
			zap.String("amount", allocation.Amount.String()),
			zap.Error(err))
		return nil, allocErr
	}

	result := &SubmitResult{
		SessionID:  sessionID,
		Receipt:    receipt,
		Allocation: allocation,
		Summary:    summary,
	}
	live := s.sessions.Complete(sessionID, generation, func(sess *Session) {
		sess.markAllocated(receipt)
	})

	log.Info("payment allocated",
		zap.Int64("receipt_id", receipt.ID),
		zap.String("customer", allocation.Customer().String()),
		zap.Int64s("invoice_ids", allocation.InvoiceIDs),
		zap.String("amount", allocation.Amount.String()),
		zap.Bool("discarded", !live),
	)
	s.publishAllocated(postCtx, allocation, receipt.ID)

	if !live {
		result.Discarded = true
		s.metrics.RecordSubmit(ctx, telemetry.OutcomeDiscarded, category.String(), allocation.Amount.InexactFloat64())
		return result, nil
	}
	s.metrics.RecordSubmit(ctx, telemetry.OutcomeAllocated, category.String(), allocation.Amount.InexactFloat64())

	url, err := s.collectReceipt(ctx, receipt.ID)
	if err != nil {
		warning := &billing.ReceiptFetchWarning{ReceiptID: receipt.ID, Err: err}
		s.metrics.RecordReceiptFailure(ctx)
		log.Warn("receipt unavailable after allocation", zap.Int64("receipt_id", receipt.ID), zap.Error(err))
		result.Warnings = append(result.Warnings, warning)
	}
	result.ReceiptURL = url
	return result, nil
}

// collectReceipt fetches the rendered receipt and keeps it for reprints
func (s *Service) collectReceipt(ctx context.Context, receiptID int64) (string, error) {
	pdf, err := s.receipts.ReceiptPDF(ctx, receiptID)
	if err != nil {
		return "", err
	}
	if len(pdf) == 0 {
		return "", errors.New("empty receipt document")
	}
	if s.receiptStore == nil {
		return "", nil
	}
	url, err := s.receiptStore.Put(ctx, receiptID, pdfContentType, bytes.NewReader(pdf), int64(len(pdf)))
	if err != nil {
		return "", fmt.Errorf("store receipt: %w", err)
	}
	return url, nil
}

func (s *Service) publishAllocated(ctx context.Context, allocation billing.PaymentAllocation, receiptID int64) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, billing.NewPaymentAllocated(allocation, receiptID)); err != nil {
		logger.WithLogger(ctx, s.logger).Warn("failed to publish payment allocated event",
			zap.Int64("receipt_id", receiptID), zap.Error(err))
	}
}

func (s *Service) recordRejection(ctx context.Context, err error) {
	var ve *billing.ValidationError
	switch {
	case errors.As(err, &ve):
		s.metrics.RecordValidationFailure(ctx, ve.Rule.String())
		s.metrics.RecordSubmit(ctx, telemetry.OutcomeRejected, "", 0)
	case errors.Is(err, billing.ErrSubmitInFlight):
		s.metrics.RecordDuplicateSubmit(ctx)
		logger.WithLogger(ctx, s.logger).Warn("duplicate payment submission ignored")
	}
}

// Abandon tears the session down. A submission still in flight completes upstream
// but its result no longer touches the session.
func (s *Service) Abandon(ctx context.Context, owner, sessionID string) error {
	sess, err := s.sessions.Remove(sessionID, owner)
	if err != nil {
		return err
	}
	logger.WithLogger(ctx, s.logger).Info("payment session abandoned",
		zap.String("session_id", sessionID),
		zap.String("state", string(sess.State())),
		zap.Bool("submission_in_flight", sess.Submitting()))
	return nil
}

// Sessions returns the number of live sessions
func (s *Service) Sessions() int {
	return s.sessions.Len()
}

func (s *Service) update(owner, sessionID string, fn func(*Session) error) (SessionView, error) {
	var view SessionView
	_, err := s.sessions.Update(sessionID, owner, func(sess *Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		view = sess.View()
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}
	return view, nil
}

func (s *Service) logAnomalies(ctx context.Context, sessionID string, anomalies []billing.ItemAnomaly) {
	if len(anomalies) == 0 {
		return
	}
	log := logger.WithLogger(ctx, s.logger)
	for _, a := range anomalies {
		log.Warn("invoice item pricing anomaly",
			zap.String("session_id", sessionID),
			zap.Int64("invoice_id", a.InvoiceID),
			zap.Int64("item_id", a.ItemID),
			zap.String("kind", string(a.Kind)))
	}
}

// upstreamFailure is implemented by gateway errors that carry an HTTP status
type upstreamFailure interface {
	HTTPStatus() int
	UserMessage() string
}

func toAllocationError(err error) *billing.AllocationError {
	var allocErr *billing.AllocationError
	if errors.As(err, &allocErr) {
		return allocErr
	}
	out := &billing.AllocationError{Err: err}
	var up upstreamFailure
	if errors.As(err, &up) {
		out.Status = up.HTTPStatus()
		out.Message = up.UserMessage()
	}
	return out
}

func invoiceCacheKey(customer billing.CustomerRef) string {
	return invoiceKeyPrefix + string(customer.Kind) + ":" + strconv.FormatInt(customer.ID, 10)
}
