package billing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptAllocation is one application of a receipt to an invoice line
type ReceiptAllocation struct {
	InvoiceItemID int64           `json:"invoice_item"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	AppliedAt     time.Time       `json:"applied_at"`
}

// Receipt is the record the posting service returns for an allocation.
type Receipt struct {
	ID              int64               `json:"id"`
	PatientID       *int64              `json:"patient,omitempty"`
	PaymentModeID   int64               `json:"payment_mode"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	ReferenceNumber string              `json:"reference_number"`
	CreatedAt       time.Time           `json:"created_at"`
	Allocations     []ReceiptAllocation `json:"allocations"`
}

// ReceiptQuery filters receipt listings
type ReceiptQuery struct {
	PatientID *int64
	DateFrom  string
	DateTo    string
	Page      int
}

// ReceiptDocument is a rendered receipt
type ReceiptDocument struct {
	ReceiptID   int64
	ContentType string
	Body        []byte
	// URL is a time-limited link to the stored document, empty when the store cannot sign URLs
	URL string
}

// Filename returns the download name used for the document
func (d ReceiptDocument) Filename() string {
	return fmt.Sprintf("payment_receipt_%d.pdf", d.ReceiptID)
}

// ErrReceiptNotStored is returned by a ReceiptStore that holds no document for a receipt
var ErrReceiptNotStored = errors.New("billing: receipt document not stored")

// ReceiptStore keeps rendered receipts so they can be reprinted without
// asking the posting service to render them again.
type ReceiptStore interface {
	Put(ctx context.Context, receiptID int64, contentType string, body io.Reader, size int64) (string, error)
	Get(ctx context.Context, receiptID int64) (*ReceiptDocument, error)
	URL(ctx context.Context, receiptID int64) (string, error)
}
