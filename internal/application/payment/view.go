package payment

import (
	"errors"
	"slices"
	"time"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
)

// SessionView is a read-only snapshot of a session for the desk.
type SessionView struct {
	ID                 string                     `json:"id"`
	State              State                      `json:"state"`
	Category           billing.PaymentCategory    `json:"payment_category"`
	CategoryLabel      string                     `json:"payment_category_label,omitempty"`
	Customer           *billing.CustomerRef       `json:"customer,omitempty"`
	InvoicesLoaded     bool                       `json:"invoices_loaded"`
	AvailableInvoices  []billing.Invoice          `json:"available_invoices"`
	SelectedInvoiceIDs []int64                    `json:"selected_invoice_ids"`
	Amount             string                     `json:"amount"`
	PaymentModeID      *int64                     `json:"payment_mode_id,omitempty"`
	ReferenceNumber    string                     `json:"reference_number"`
	PaymentDate        string                     `json:"payment_date"`
	Submitting         bool                       `json:"submitting"`
	Receipt            *billing.Receipt           `json:"receipt,omitempty"`
	Summary            billing.Summary            `json:"summary"`
	NextStep           *billing.ValidationError   `json:"next_step,omitempty"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

// View snapshots the session. NextStep is the first rule still failing, if any.
func (s *Session) View() SessionView {
	v := SessionView{
		ID:                 s.ID,
		State:              s.State(),
		Category:           s.category,
		CategoryLabel:      s.category.Label(),
		InvoicesLoaded:     s.invoicesLoaded,
		AvailableInvoices:  slices.Clone(s.available),
		SelectedInvoiceIDs: slices.Clone(s.selected),
		Amount:             s.amount,
		PaymentModeID:      s.paymentModeID,
		ReferenceNumber:    s.referenceNumber,
		PaymentDate:        s.paymentDate,
		Submitting:         s.submitting,
		Receipt:            s.receipt,
		Summary:            s.Summary(),
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
	if v.AvailableInvoices == nil {
		v.AvailableInvoices = []billing.Invoice{}
	}
	if v.SelectedInvoiceIDs == nil {
		v.SelectedInvoiceIDs = []int64{}
	}
	if customer, ok := s.Customer(); ok {
		v.Customer = &customer
	}
	if v.State != StateAllocated {
		var ve *billing.ValidationError
		if errors.As(s.Validate(), &ve) {
			v.NextStep = ve
		}
	}
	return v
}
