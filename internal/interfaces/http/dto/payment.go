package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RawAmount is an amount as the desk typed it. It decodes from a JSON string
// or a JSON number and keeps the text so invalid input reaches validation.
type RawAmount string

// UnmarshalJSON implements json.Unmarshaler
func (a *RawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = RawAmount(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount must be a number or a string: %w", err)
		}
		*a = RawAmount(n.String())
	}
	return nil
}

// SessionURI binds the payment session path parameter
type SessionURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// SelectCategoryRequest chooses who settles the invoices
type SelectCategoryRequest struct {
	PaymentCategory string `json:"payment_category" binding:"required"`
}

// SelectCustomerRequest chooses the patient or insurer
type SelectCustomerRequest struct {
	CustomerID *int64 `json:"customer_id" binding:"required,gt=0"`
}

// SelectInvoicesRequest replaces the invoice selection. An empty list clears it.
type SelectInvoicesRequest struct {
	InvoiceIDs []int64 `json:"invoice_ids" binding:"max=500,dive,gt=0"`
}

// SetAmountRequest records the tendered amount
type SetAmountRequest struct {
	Amount RawAmount `json:"amount"`
}

// SetDetailsRequest records payment mode, reference and payment date.
// An empty payment date keeps the current one.
type SetDetailsRequest struct {
	PaymentModeID   *int64 `json:"payment_mode_id" binding:"omitempty,gt=0"`
	ReferenceNumber string `json:"reference_number" binding:"max=100"`
	PaymentDate     string `json:"payment_date" binding:"omitempty,yyyymmdd"`
}

// PaymentModesQuery filters the payment modes offered to a customer
type PaymentModesQuery struct {
	CustomerKind string `form:"customer_kind" binding:"omitempty,oneof=patient insurance"`
	InsuranceID  int64  `form:"insurance_id" binding:"omitempty,gt=0"`
}

// ReceiptListQuery filters receipt listings
type ReceiptListQuery struct {
	PatientID *int64 `form:"patient_id" binding:"omitempty,gt=0"`
	DateFrom  string `form:"date_from" binding:"omitempty,yyyymmdd"`
	DateTo    string `form:"date_to" binding:"omitempty,yyyymmdd"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
}

// ReceiptURI binds the receipt path parameter
type ReceiptURI struct {
	ID int64 `uri:"id" binding:"required,gt=0"`
}

// SupplierURI binds the supplier path parameter
type SupplierURI struct {
	ID int64 `uri:"id" binding:"required,gt=0"`
}

// SupplierStatementQuery narrows the supplier summary to selected invoices and
// an amount to apply
type SupplierStatementQuery struct {
	InvoiceIDs []int64 `form:"invoice_ids" binding:"omitempty,dive,gt=0"`
	Tendered   string  `form:"tendered" binding:"omitempty,decimal_gt0"`
}

// SupplierPaymentRequest posts a payment to a supplier. Field rules are
// applied by the payment service in order, so only shapes are checked here.
type SupplierPaymentRequest struct {
	SupplierID      *int64    `json:"supplier_id"`
	InvoiceIDs      []int64   `json:"invoice_ids" binding:"max=500,dive,gt=0"`
	Amount          RawAmount `json:"amount"`
	PaymentModeID   *int64    `json:"payment_mode_id"`
	ReferenceNumber string    `json:"reference_number" binding:"max=100"`
	PaymentDate     string    `json:"payment_date"`
}
