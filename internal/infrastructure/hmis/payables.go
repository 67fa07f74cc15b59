package hmis

import (
	"context"
	"net/url"
	"strconv"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/payables"
)

// Suppliers implements payables.Gateway.
func (c *Client) Suppliers(ctx context.Context) ([]payables.Supplier, error) {
	return getList[payables.Supplier](ctx, c, pathSuppliers, nil)
}

// SupplierInvoices lists the pending invoices of one supplier.
func (c *Client) SupplierInvoices(ctx context.Context, supplierID int64) ([]payables.SupplierInvoice, error) {
	dtos, err := getList[supplierInvoiceDTO](ctx, c, pathSupplierInvoices, url.Values{
		"supplier": {strconv.FormatInt(supplierID, 10)},
		"status":   {string(billing.InvoiceStatusPending)},
	})
	if err != nil {
		return nil, err
	}
	return toDomainList(dtos, supplierInvoiceDTO.toDomain), nil
}

// AllocateSupplierPayment implements payables.Gateway.
func (c *Client) AllocateSupplierPayment(ctx context.Context, allocation payables.SupplierAllocation) (*payables.SupplierReceipt, error) {
	var dto supplierReceiptDTO
	if err := c.postJSON(ctx, pathAllocateSupplier, allocation, &dto); err != nil {
		return nil, err
	}
	return &payables.SupplierReceipt{
		ID:          dto.ID,
		SupplierID:  dto.Supplier,
		TotalAmount: dto.TotalAmount.Decimal,
		CreatedAt:   dto.CreatedAt,
	}, nil
}

var _ payables.Gateway = (*Client)(nil)
