// Package payables models what the hospital owes its suppliers and how a
// payment to a supplier is validated before it is posted.
package payables

import (
	"context"
	"strings"
	"time"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// Supplier is a vendor the hospital buys from
type Supplier struct {
	ID   int64  `json:"id"`
	Name string `json:"official_name"`
}

// SupplierInvoice is an invoice received from a supplier.
type SupplierInvoice struct {
	ID            int64                 `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	SupplierID    int64                 `json:"supplier"`
	Amount        decimal.Decimal       `json:"amount"`
	PaidAmount    decimal.Decimal       `json:"paid_amount"`
	Status        billing.InvoiceStatus `json:"status"`
}

// Outstanding is the part of the invoice not yet paid
func (i SupplierInvoice) Outstanding() decimal.Decimal {
	return i.Amount.Sub(i.PaidAmount)
}

// Aggregate sums the outstanding amounts of selected and compares them with the
// tendered amount using the same sign convention as patient payments:
// a positive balance is still owed to the supplier.
func Aggregate(selected []SupplierInvoice, tendered decimal.Decimal) billing.Summary {
	total := decimal.Zero
	lines := make([]billing.SummaryLine, 0, len(selected))
	for _, inv := range selected {
		owed := inv.Outstanding()
		total = total.Add(owed)
		lines = append(lines, billing.SummaryLine{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			Status:        inv.Status,
			InvoiceAmount: inv.Amount,
			CashPortion:   owed,
		})
	}
	balance := total.Sub(tendered)
	return billing.Summary{
		TotalOwed:   total,
		Tendered:    tendered,
		Balance:     balance,
		BalanceKind: billing.ClassifyBalance(balance),
		Lines:       lines,
	}
}

// SupplierPayment is a payment to one supplier covering one or more invoices.
type SupplierPayment struct {
	SupplierID      *int64
	InvoiceIDs      []int64
	Amount          string
	PaymentModeID   *int64
	ReferenceNumber string
	PaymentDate     string
}

// Validate applies the payment rules in order, as for patient payments but
// without a category step.
func (p SupplierPayment) Validate() error {
	if p.SupplierID == nil {
		return &billing.ValidationError{Rule: billing.RuleCustomer, Field: "supplier_id", Message: "Please select a supplier"}
	}
	draft := billing.PaymentDraft{
		Category:        billing.CategoryCash,
		CustomerID:      p.SupplierID,
		InvoiceIDs:      p.InvoiceIDs,
		Amount:          p.Amount,
		PaymentModeID:   p.PaymentModeID,
		ReferenceNumber: p.ReferenceNumber,
		PaymentDate:     p.PaymentDate,
	}
	return draft.Validate()
}

// Allocation validates the payment and builds the posting payload
func (p SupplierPayment) Allocation() (SupplierAllocation, error) {
	if err := p.Validate(); err != nil {
		return SupplierAllocation{}, err
	}
	ids := make([]int64, len(p.InvoiceIDs))
	copy(ids, p.InvoiceIDs)
	return SupplierAllocation{
		SupplierID:      *p.SupplierID,
		InvoiceIDs:      ids,
		PaymentModeID:   *p.PaymentModeID,
		Amount:          billing.ToDecimal(p.Amount),
		ReferenceNumber: strings.TrimSpace(p.ReferenceNumber),
		PaymentDate:     strings.TrimSpace(p.PaymentDate),
	}, nil
}

// SupplierAllocation is the request posted for a supplier payment.
type SupplierAllocation struct {
	SupplierID      int64           `json:"supplier_id"`
	InvoiceIDs      []int64         `json:"invoice_ids"`
	PaymentModeID   int64           `json:"payment_mode"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"reference_number"`
	PaymentDate     string          `json:"payment_date"`
}

// SupplierReceipt is returned once a supplier payment is posted
type SupplierReceipt struct {
	ID          int64           `json:"id"`
	SupplierID  int64           `json:"supplier"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Gateway reads supplier invoices and posts supplier payments
type Gateway interface {
	Suppliers(ctx context.Context) ([]Supplier, error)
	SupplierInvoices(ctx context.Context, supplierID int64) ([]SupplierInvoice, error)
	AllocateSupplierPayment(ctx context.Context, allocation SupplierAllocation) (*SupplierReceipt, error)
}
