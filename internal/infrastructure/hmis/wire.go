package hmis

import (
	"time"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/payables"
)

// The HMIS serializes decimals as strings but older endpoints send numbers
// or null; wire types decode through billing.Amount and are converted to
// domain types at the boundary.

type invoiceItemDTO struct {
	ID              int64          `json:"id"`
	ItemName        string         `json:"item_name"`
	ItemAmount      billing.Amount `json:"item_amount"`
	ActualTotal     billing.Amount `json:"actual_total"`
	PaymentModeName string         `json:"payment_mode_name"`
}

type invoiceDTO struct {
	ID            int64            `json:"id"`
	InvoiceNumber string           `json:"invoice_number"`
	InvoiceDate   string           `json:"invoice_date"`
	InvoiceAmount billing.Amount   `json:"invoice_amount"`
	Status        string           `json:"status"`
	Patient       *int64           `json:"patient"`
	Insurance     *int64           `json:"insurance"`
	Items         []invoiceItemDTO `json:"invoice_items"`
}

func (d invoiceDTO) toDomain() billing.Invoice {
	items := make([]billing.InvoiceItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, billing.InvoiceItem{
			ID:              it.ID,
			Name:            it.ItemName,
			ItemAmount:      it.ItemAmount.Decimal,
			ActualTotal:     it.ActualTotal.Decimal,
			PaymentModeName: it.PaymentModeName,
		})
	}
	return billing.Invoice{
		ID:            d.ID,
		InvoiceNumber: d.InvoiceNumber,
		InvoiceDate:   d.InvoiceDate,
		InvoiceAmount: d.InvoiceAmount.Decimal,
		Status:        billing.InvoiceStatus(d.Status),
		Items:         items,
		PatientID:     d.Patient,
		InsuranceID:   d.Insurance,
	}
}

type paymentModeDTO struct {
	ID                   int64   `json:"id"`
	PaymentMode          string  `json:"payment_mode"`
	PaymentCategory      string  `json:"payment_category"`
	Insurance            *int64  `json:"insurance"`
	InsuranceCompanyName *string `json:"insurance_company_name"`
	IsDefault            bool    `json:"is_default"`
}

func (d paymentModeDTO) toDomain() billing.PaymentModeOption {
	opt := billing.PaymentModeOption{
		ID:          d.ID,
		Name:        d.PaymentMode,
		Category:    billing.ModeCategory(d.PaymentCategory),
		InsuranceID: d.Insurance,
		IsDefault:   d.IsDefault,
	}
	if d.InsuranceCompanyName != nil {
		opt.InsuranceName = *d.InsuranceCompanyName
	}
	return opt
}

type breakdownDTO struct {
	PaymentMode     string         `json:"payment_mode"`
	PaymentCategory string         `json:"payment_category"`
	TotalAmount     billing.Amount `json:"total_amount"`
	TotalPaid       billing.Amount `json:"total_paid"`
	TotalPending    billing.Amount `json:"total_pending"`
}

func (d breakdownDTO) toDomain() billing.ModeBreakdown {
	return billing.ModeBreakdown{
		PaymentMode:     d.PaymentMode,
		PaymentCategory: billing.ModeCategory(d.PaymentCategory),
		TotalAmount:     d.TotalAmount.Decimal,
		TotalPaid:       d.TotalPaid.Decimal,
		TotalPending:    d.TotalPending.Decimal,
	}
}

type allocationDTO struct {
	InvoiceItem   int64          `json:"invoice_item"`
	AmountApplied billing.Amount `json:"amount_applied"`
	AppliedAt     time.Time      `json:"applied_at"`
}

type receiptDTO struct {
	ID              int64           `json:"id"`
	Patient         *int64          `json:"patient"`
	PaymentMode     int64           `json:"payment_mode"`
	TotalAmount     billing.Amount  `json:"total_amount"`
	ReferenceNumber string          `json:"reference_number"`
	CreatedAt       time.Time       `json:"created_at"`
	Allocations     []allocationDTO `json:"allocations"`
}

func (d receiptDTO) toDomain() billing.Receipt {
	allocs := make([]billing.ReceiptAllocation, 0, len(d.Allocations))
	for _, a := range d.Allocations {
		allocs = append(allocs, billing.ReceiptAllocation{
			InvoiceItemID: a.InvoiceItem,
			AmountApplied: a.AmountApplied.Decimal,
			AppliedAt:     a.AppliedAt,
		})
	}
	return billing.Receipt{
		ID:              d.ID,
		PatientID:       d.Patient,
		PaymentModeID:   d.PaymentMode,
		TotalAmount:     d.TotalAmount.Decimal,
		ReferenceNumber: d.ReferenceNumber,
		CreatedAt:       d.CreatedAt,
		Allocations:     allocs,
	}
}

type supplierInvoiceDTO struct {
	ID         int64          `json:"id"`
	InvoiceNo  string         `json:"invoice_no"`
	Supplier   int64          `json:"supplier"`
	Amount     billing.Amount `json:"amount"`
	PaidAmount billing.Amount `json:"paid_amount"`
	Status     string         `json:"status"`
}

func (d supplierInvoiceDTO) toDomain() payables.SupplierInvoice {
	return payables.SupplierInvoice{
		ID:            d.ID,
		InvoiceNumber: d.InvoiceNo,
		SupplierID:    d.Supplier,
		Amount:        d.Amount.Decimal,
		PaidAmount:    d.PaidAmount.Decimal,
		Status:        billing.InvoiceStatus(d.Status),
	}
}

type supplierReceiptDTO struct {
	ID          int64          `json:"id"`
	Supplier    int64          `json:"supplier"`
	TotalAmount billing.Amount `json:"total_amount"`
	CreatedAt   time.Time      `json:"created_at"`
}

func toDomainList[D any, T any](in []D, conv func(D) T) []T {
	out := make([]T, 0, len(in))
	for _, d := range in {
		out = append(out, conv(d))
	}
	return out
}
