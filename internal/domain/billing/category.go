package billing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a payment category tag is not recognized
var ErrUnknownCategory = errors.New("billing: unknown payment category")

// PaymentCategory is who is settling the selected invoices.
type PaymentCategory int

const (
	// CategoryUnset means no category has been chosen yet
	CategoryUnset PaymentCategory = iota
	// CategoryCash means the patient pays out of pocket
	CategoryCash
	// CategoryCredit means an insurer is billed
	CategoryCredit
)

// ParsePaymentCategory parses "cash" or "credit". "insurance" is accepted as credit.
func ParsePaymentCategory(s string) (PaymentCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return CategoryCash, nil
	case "credit", "insurance":
		return CategoryCredit, nil
	case "":
		return CategoryUnset, nil
	}
	return CategoryUnset, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// IsSet reports whether a category has been chosen
func (c PaymentCategory) IsSet() bool {
	return c == CategoryCash || c == CategoryCredit
}

// String returns the wire tag
func (c PaymentCategory) String() string {
	switch c {
	case CategoryCash:
		return "cash"
	case CategoryCredit:
		return "credit"
	default:
		return ""
	}
}

// Label returns the desk label for the category
func (c PaymentCategory) Label() string {
	switch c {
	case CategoryCash:
		return "Cash (Patient)"
	case CategoryCredit:
		return "Credit (Insurance)"
	default:
		return ""
	}
}

// CustomerKind maps the category to the kind of customer that owns the invoices.
func (c PaymentCategory) CustomerKind() CustomerKind {
	switch c {
	case CategoryCash:
		return CustomerPatient
	case CategoryCredit:
		return CustomerInsurance
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler
func (c PaymentCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *PaymentCategory) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CustomerKind identifies which kind of party owns an invoice.
type CustomerKind string

const (
	CustomerPatient   CustomerKind = "patient"
	CustomerInsurance CustomerKind = "insurance"
)

// IsValid checks if the customer kind is valid
func (k CustomerKind) IsValid() bool {
	return k == CustomerPatient || k == CustomerInsurance
}

// CustomerRef points at a patient or an insurer.
type CustomerRef struct {
	ID   int64        `json:"customer_id"`
	Kind CustomerKind `json:"customer_kind"`
}

// String returns "<kind>:<id>"
func (r CustomerRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}
