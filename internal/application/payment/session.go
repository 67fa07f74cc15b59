package payment

import (
	"slices"
	"strings"
	"time"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
)

// State is where a payment session is in the desk flow.
type State string

const (
	StateIdle             State = "idle"
	StateCategorySelected State = "category_selected"
	StateCustomerSelected State = "customer_selected"
	StateInvoicesSelected State = "invoices_selected"
	StateAmountEntered    State = "amount_entered"
	StateReadyToSubmit    State = "ready_to_submit"
	StateAllocated        State = "allocated"
)

// IsTerminal reports whether no further transition is possible
func (s State) IsTerminal() bool {
	return s == StateAllocated
}

// Session is one desk operator's payment in progress.
//
// The state is derived from what has been entered so that regressing a step
// can never leave a stale later state behind. Session is not safe for
// concurrent use; SessionStore serializes access.
type Session struct {
	ID      string
	OwnerID string

	category        billing.PaymentCategory
	customerID      *int64
	available       []billing.Invoice
	invoicesLoaded  bool
	selected        []int64
	amount          string
	paymentModeID   *int64
	referenceNumber string
	paymentDate     string

	receipt    *billing.Receipt
	submitting bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates an idle session whose payment date defaults to today
func NewSession(id, ownerID, today string, now time.Time) *Session {
	return &Session{
		ID:          id,
		OwnerID:     ownerID,
		paymentDate: today,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// State derives the current state from the entered data
func (s *Session) State() State {
	switch {
	case s.receipt != nil:
		return StateAllocated
	case !s.category.IsSet():
		return StateIdle
	case s.customerID == nil:
		return StateCategorySelected
	case len(s.selected) == 0:
		return StateCustomerSelected
	case !billing.ToDecimal(s.amount).IsPositive():
		return StateInvoicesSelected
	case s.Draft().Validate() != nil:
		return StateAmountEntered
	default:
		return StateReadyToSubmit
	}
}

// SelectCategory sets who is paying. Switching category clears everything chosen after it.
func (s *Session) SelectCategory(category billing.PaymentCategory) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if category == s.category {
		return nil
	}
	s.category = category
	s.customerID = nil
	s.clearInvoices()
	s.paymentModeID = nil
	s.referenceNumber = ""
	return nil
}

// SelectCustomer sets the patient or insurer. Switching customer clears the invoices and amount.
func (s *Session) SelectCustomer(id int64) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if !s.category.IsSet() {
		return violation(billing.RuleCategory, "Please select a payment category")
	}
	if s.customerID != nil && *s.customerID == id {
		return nil
	}
	s.customerID = &id
	s.clearInvoices()
	return nil
}

// SetAvailableInvoices replaces the invoices offered for the customer, dropping
// any that belong to someone else, and prunes selected ids no longer offered.
// It returns the invoices that were dropped.
func (s *Session) SetAvailableInvoices(invoices []billing.Invoice) []billing.Invoice {
	customer, ok := s.Customer()
	if !ok {
		return invoices
	}
	kept := make([]billing.Invoice, 0, len(invoices))
	var dropped []billing.Invoice
	for _, inv := range invoices {
		owner, err := inv.Owner()
		if err != nil || owner != customer {
			dropped = append(dropped, inv)
			continue
		}
		kept = append(kept, inv)
	}
	s.available = kept
	s.invoicesLoaded = true
	s.selected = slices.DeleteFunc(s.selected, func(id int64) bool {
		return !s.offers(id)
	})
	if len(s.selected) == 0 {
		s.amount = ""
	}
	return dropped
}

// SelectInvoices replaces the selection, keeping the caller's order and collapsing duplicates.
// An empty selection clears the amount.
func (s *Session) SelectInvoices(ids []int64) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if s.customerID == nil {
		return s.Draft().Validate()
	}
	selection := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !s.offers(id) {
			return unknownInvoice(id)
		}
		if !slices.Contains(selection, id) {
			selection = append(selection, id)
		}
	}
	s.selected = selection
	if len(selection) == 0 {
		s.amount = ""
	}
	return nil
}

// SetAmount stores the tendered amount as typed. Only a positive amount advances the session.
func (s *Session) SetAmount(raw string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if len(s.selected) == 0 {
		return violation(billing.RuleInvoices, "Please select at least one invoice")
	}
	s.amount = strings.TrimSpace(raw)
	return nil
}

// SetDetails stores the payment mode, reference and date. An empty date keeps the current one.
func (s *Session) SetDetails(paymentModeID *int64, reference, date string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	s.paymentModeID = paymentModeID
	s.referenceNumber = reference
	if date = strings.TrimSpace(date); date != "" {
		s.paymentDate = date
	}
	return nil
}

// Validate applies the payment rules in order
func (s *Session) Validate() error {
	return s.Draft().Validate()
}

// BuildAllocation validates the session and returns the posting payload
func (s *Session) BuildAllocation() (billing.PaymentAllocation, error) {
	if err := s.ensureOpen(); err != nil {
		return billing.PaymentAllocation{}, err
	}
	return s.Draft().Allocation()
}

// Draft returns what has been entered as a payment draft
func (s *Session) Draft() billing.PaymentDraft {
	return billing.PaymentDraft{
		Category:        s.category,
		CustomerID:      s.customerID,
		InvoiceIDs:      slices.Clone(s.selected),
		Amount:          s.amount,
		PaymentModeID:   s.paymentModeID,
		ReferenceNumber: s.referenceNumber,
		PaymentDate:     s.paymentDate,
	}
}

// Summary aggregates the selected invoices against the tendered amount
func (s *Session) Summary() billing.Summary {
	return billing.Aggregate(s.SelectedInvoices(), s.category, billing.ToDecimal(s.amount))
}

// SelectedInvoices returns the selected invoices in selection order
func (s *Session) SelectedInvoices() []billing.Invoice {
	out := make([]billing.Invoice, 0, len(s.selected))
	for _, id := range s.selected {
		if inv, ok := s.invoice(id); ok {
			out = append(out, inv)
		}
	}
	return out
}

// Customer returns the chosen customer, false until both category and customer are set
func (s *Session) Customer() (billing.CustomerRef, bool) {
	if s.customerID == nil || !s.category.IsSet() {
		return billing.CustomerRef{}, false
	}
	return billing.CustomerRef{ID: *s.customerID, Kind: s.category.CustomerKind()}, true
}

// Receipt returns the receipt of an allocated session
func (s *Session) Receipt() *billing.Receipt {
	return s.receipt
}

// Submitting reports whether a submission is outstanding
func (s *Session) Submitting() bool {
	return s.submitting
}

func (s *Session) markSubmitting() {
	s.submitting = true
}

func (s *Session) clearSubmitting() {
	s.submitting = false
}

func (s *Session) markAllocated(receipt *billing.Receipt) {
	s.receipt = receipt
	s.submitting = false
}

// ensureOpen rejects edits once the session is allocated or while its payment is being posted.
func (s *Session) ensureOpen() error {
	if s.State().IsTerminal() {
		return ErrSessionAllocated
	}
	if s.submitting {
		return billing.ErrSubmitInFlight
	}
	return nil
}

func (s *Session) clearInvoices() {
	s.available = nil
	s.invoicesLoaded = false
	s.selected = nil
	s.amount = ""
}

func (s *Session) offers(id int64) bool {
	_, ok := s.invoice(id)
	return ok
}

func (s *Session) invoice(id int64) (billing.Invoice, bool) {
	for _, inv := range s.available {
		if inv.ID == id {
			return inv, true
		}
	}
	return billing.Invoice{}, false
}

func violation(rule billing.Rule, message string) *billing.ValidationError {
	return &billing.ValidationError{Rule: rule, Field: rule.Field(), Message: message}
}
