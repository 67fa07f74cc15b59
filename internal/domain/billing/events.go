package billing

import (
	"strconv"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types published by the billing desk
const (
	EventTypePaymentAllocated = "billing.payment.allocated"
	AggregateTypeReceipt      = "PaymentReceipt"
)

// PaymentAllocated is published once the posting service accepted a payment.
type PaymentAllocated struct {
	shared.BaseDomainEvent
	ReceiptID       int64           `json:"receipt_id"`
	Customer        CustomerRef     `json:"customer"`
	InvoiceIDs      []int64         `json:"invoice_ids"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentModeID   int64           `json:"payment_mode_id"`
	ReferenceNumber string          `json:"reference_number"`
}

// NewPaymentAllocated builds the event for allocation and the receipt it produced
func NewPaymentAllocated(allocation PaymentAllocation, receiptID int64) *PaymentAllocated {
	ids := make([]int64, len(allocation.InvoiceIDs))
	copy(ids, allocation.InvoiceIDs)
	return &PaymentAllocated{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypePaymentAllocated,
			AggregateTypeReceipt,
			strconv.FormatInt(receiptID, 10),
		),
		ReceiptID:       receiptID,
		Customer:        allocation.Customer(),
		InvoiceIDs:      ids,
		Amount:          allocation.Amount,
		PaymentModeID:   allocation.PaymentModeID,
		ReferenceNumber: allocation.ReferenceNumber,
	}
}
