package billing

import "context"

// InvoiceSource loads invoices owned by a customer
type InvoiceSource interface {
	InvoicesFor(ctx context.Context, customer CustomerRef) ([]Invoice, error)
}

// PaymentPoster submits allocations to the posting service, the only writer of payment state
type PaymentPoster interface {
	AllocatePayment(ctx context.Context, allocation PaymentAllocation) (*Receipt, error)
}

// ReceiptSource reads receipts back from the posting service
type ReceiptSource interface {
	ReceiptPDF(ctx context.Context, receiptID int64) ([]byte, error)
	ListReceipts(ctx context.Context, query ReceiptQuery) ([]Receipt, error)
}

// PaymentModeSource lists payment modes and their billed totals
type PaymentModeSource interface {
	PaymentModes(ctx context.Context) ([]PaymentModeOption, error)
	PaymentModeBreakdown(ctx context.Context) ([]ModeBreakdown, error)
}
