package billing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvoiceOwner is returned when an invoice names no owner or both a patient and an insurer
var ErrInvoiceOwner = errors.New("billing: invoice must be owned by exactly one patient or insurer")

// InvoiceStatus is the settlement state of an invoice as reported upstream.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPartial InvoiceStatus = "partial"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// IsValid checks if the status is one of the known values
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusPaid:
		return true
	}
	return false
}

// InvoiceItem is one billable line of an invoice.
type InvoiceItem struct {
	ID              int64           `json:"id"`
	Name            string          `json:"item_name,omitempty"`
	ItemAmount      decimal.Decimal `json:"item_amount"`
	ActualTotal     decimal.Decimal `json:"actual_total"`
	PaymentModeName string          `json:"payment_mode_name"`
}

// IsCash reports whether the item is billed against the cash payment mode.
func (i InvoiceItem) IsCash() bool {
	return strings.EqualFold(strings.TrimSpace(i.PaymentModeName), "cash")
}

// CoPay is the part of the item price the payment mode does not cover.
// It is not clamped: inconsistent upstream data yields a negative co-pay.
func (i InvoiceItem) CoPay() decimal.Decimal {
	return i.ItemAmount.Sub(i.ActualTotal)
}

// Invoice is a billable record owned by a patient or an insurer.
type Invoice struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	InvoiceDate   string          `json:"invoice_date,omitempty"`
	InvoiceAmount decimal.Decimal `json:"invoice_amount"`
	Status        InvoiceStatus   `json:"status"`
	Items         []InvoiceItem   `json:"invoice_items"`
	PatientID     *int64          `json:"patient_id,omitempty"`
	InsuranceID   *int64          `json:"insurance_id,omitempty"`
}

// Owner returns the single customer that owns the invoice.
func (inv Invoice) Owner() (CustomerRef, error) {
	switch {
	case inv.PatientID != nil && inv.InsuranceID == nil:
		return CustomerRef{ID: *inv.PatientID, Kind: CustomerPatient}, nil
	case inv.InsuranceID != nil && inv.PatientID == nil:
		return CustomerRef{ID: *inv.InsuranceID, Kind: CustomerInsurance}, nil
	default:
		return CustomerRef{}, ErrInvoiceOwner
	}
}

// IsSettled reports whether upstream considers the invoice fully paid
func (inv Invoice) IsSettled() bool {
	return inv.Status == InvoiceStatusPaid
}

// InvoiceIDs returns the ids of invoices in order
func InvoiceIDs(invoices []Invoice) []int64 {
	ids := make([]int64, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	return ids
}
