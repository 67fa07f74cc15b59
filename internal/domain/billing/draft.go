package billing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format exchanged with the desk and upstream
const DateLayout = "2006-01-02"

// Today returns now's calendar date in loc formatted with DateLayout.
func Today(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	return now.Format(DateLayout)
}

// Rule identifies a payment validation rule. Rules are evaluated in ascending order.
type Rule int

const (
	RuleCategory Rule = iota + 1
	RuleCustomer
	RuleInvoices
	RuleAmount
	RulePaymentMode
	RuleReference
	RulePaymentDate
)

// Field returns the request field the rule guards
func (r Rule) Field() string {
	switch r {
	case RuleCategory:
		return "payment_category"
	case RuleCustomer:
		return "customer_id"
	case RuleInvoices:
		return "invoice_ids"
	case RuleAmount:
		return "amount"
	case RulePaymentMode:
		return "payment_mode_id"
	case RuleReference:
		return "reference_number"
	case RulePaymentDate:
		return "payment_date"
	default:
		return ""
	}
}

// String returns the rule name
func (r Rule) String() string {
	switch r {
	case RuleCategory:
		return "category"
	case RuleCustomer:
		return "customer"
	case RuleInvoices:
		return "invoices"
	case RuleAmount:
		return "amount"
	case RulePaymentMode:
		return "payment_mode"
	case RuleReference:
		return "reference_number"
	case RulePaymentDate:
		return "payment_date"
	default:
		return "unknown"
	}
}

func violation(rule Rule, message string) *ValidationError {
	return &ValidationError{Rule: rule, Field: rule.Field(), Message: message}
}

// PaymentDraft is everything the desk has entered for one payment.
// Amount is kept as typed so that invalid input can be reported instead of lost.
type PaymentDraft struct {
	Category        PaymentCategory
	CustomerID      *int64
	InvoiceIDs      []int64
	Amount          string
	PaymentModeID   *int64
	ReferenceNumber string
	PaymentDate     string
}

// Tendered returns the parsed amount, zero when it does not parse.
func (d PaymentDraft) Tendered() decimal.Decimal {
	return ToDecimal(d.Amount)
}

// Validate applies the payment rules in order and reports the first failure.
func (d PaymentDraft) Validate() error {
	if !d.Category.IsSet() {
		return violation(RuleCategory, "Please select a payment category")
	}
	if d.CustomerID == nil {
		if d.Category == CategoryCredit {
			return violation(RuleCustomer, "Please select an insurance company")
		}
		return violation(RuleCustomer, "Please select a patient")
	}
	if len(d.InvoiceIDs) == 0 {
		return violation(RuleInvoices, "Please select at least one invoice")
	}
	if !d.Tendered().IsPositive() {
		return violation(RuleAmount, "Please enter a valid payment amount")
	}
	if d.PaymentModeID == nil {
		return violation(RulePaymentMode, "Please select a payment mode")
	}
	if strings.TrimSpace(d.ReferenceNumber) == "" {
		return violation(RuleReference, "Please enter a reference number")
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(d.PaymentDate)); err != nil {
		return violation(RulePaymentDate, "Please select a payment date")
	}
	return nil
}

// Allocation validates the draft and builds the request sent to the posting service.
func (d PaymentDraft) Allocation() (PaymentAllocation, error) {
	if err := d.Validate(); err != nil {
		return PaymentAllocation{}, err
	}
	ids := make([]int64, len(d.InvoiceIDs))
	copy(ids, d.InvoiceIDs)
	return PaymentAllocation{
		InvoiceIDs:      ids,
		PaymentModeID:   *d.PaymentModeID,
		Amount:          d.Tendered(),
		ReferenceNumber: strings.TrimSpace(d.ReferenceNumber),
		PaymentDate:     strings.TrimSpace(d.PaymentDate),
		CustomerID:      *d.CustomerID,
		CustomerKind:    d.Category.CustomerKind(),
	}, nil
}

// PaymentAllocation is the request that applies a tendered amount to invoices.
type PaymentAllocation struct {
	InvoiceIDs      []int64         `json:"invoice_ids"`
	PaymentModeID   int64           `json:"payment_mode_id"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"reference_number"`
	PaymentDate     string          `json:"payment_date"`
	CustomerID      int64           `json:"customer_id"`
	CustomerKind    CustomerKind    `json:"customer_kind"`
}

// Customer returns the customer the allocation is for
func (a PaymentAllocation) Customer() CustomerRef {
	return CustomerRef{ID: a.CustomerID, Kind: a.CustomerKind}
}
