package hmis

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
)

const (
	pathPatientInvoices  = "/billing/invoices/patient/%d/"
	pathInvoices         = "/billing/invoices/"
	pathPaymentModes     = "/billing/payment-modes/"
	pathAllocatePayment  = "/billing/allocate-payment/"
	pathReceiptPDF       = "/billing/download_payment_receipt_pdf/%d/"
	pathPaymentReceipts  = "/billing/payment-receipts/"
	pathModesBreakdown   = "/billing/payment-modes-breakdown/"
	pathPatients         = "/patients/patients/"
	pathInsurers         = "/company/insurance/"
	pathSuppliers        = "/inventory/suppliers/"
	pathSupplierInvoices = "/inventory/supplier-invoice/"
	pathAllocateSupplier = "/inventory/allocate-supplier-payment/"
)

// InvoicesFor implements billing.InvoiceSource. Insurer invoices are
// restricted to pending ones.
func (c *Client) InvoicesFor(ctx context.Context, customer billing.CustomerRef) ([]billing.Invoice, error) {
	var (
		dtos []invoiceDTO
		err  error
	)
	switch customer.Kind {
	case billing.CustomerPatient:
		dtos, err = getList[invoiceDTO](ctx, c, fmt.Sprintf(pathPatientInvoices, customer.ID), nil)
	case billing.CustomerInsurance:
		dtos, err = getList[invoiceDTO](ctx, c, pathInvoices, url.Values{
			"insurance": {strconv.FormatInt(customer.ID, 10)},
			"status":    {string(billing.InvoiceStatusPending)},
		})
	default:
		return nil, fmt.Errorf("hmis: unknown customer kind %q", customer.Kind)
	}
	if err != nil {
		return nil, err
	}
	invoices := toDomainList(dtos, invoiceDTO.toDomain)
	if customer.Kind == billing.CustomerInsurance {
		// Insurer invoices are still linked to the treated patient upstream;
		// for payment purposes the insurer is the owner.
		for i := range invoices {
			id := customer.ID
			invoices[i].InsuranceID = &id
			invoices[i].PatientID = nil
		}
	}
	return invoices, nil
}

// AllocatePayment implements billing.PaymentPoster.
func (c *Client) AllocatePayment(ctx context.Context, allocation billing.PaymentAllocation) (*billing.Receipt, error) {
	var dto receiptDTO
	if err := c.postJSON(ctx, pathAllocatePayment, allocation, &dto); err != nil {
		return nil, err
	}
	receipt := dto.toDomain()
	return &receipt, nil
}

// ReceiptPDF implements billing.ReceiptSource.
func (c *Client) ReceiptPDF(ctx context.Context, receiptID int64) ([]byte, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf(pathReceiptPDF, receiptID), nil, nil, "application/pdf")
}

// ListReceipts implements billing.ReceiptSource.
func (c *Client) ListReceipts(ctx context.Context, query billing.ReceiptQuery) ([]billing.Receipt, error) {
	q := url.Values{}
	if query.PatientID != nil {
		q.Set("patient", strconv.FormatInt(*query.PatientID, 10))
	}
	if query.DateFrom != "" {
		q.Set("created_at__gte", query.DateFrom)
	}
	if query.DateTo != "" {
		q.Set("created_at__lte", query.DateTo)
	}
	if query.Page > 0 {
		q.Set("page", strconv.Itoa(query.Page))
	}
	dtos, err := getList[receiptDTO](ctx, c, pathPaymentReceipts, q)
	if err != nil {
		return nil, err
	}
	return toDomainList(dtos, receiptDTO.toDomain), nil
}

// PaymentModes implements billing.PaymentModeSource.
func (c *Client) PaymentModes(ctx context.Context) ([]billing.PaymentModeOption, error) {
	dtos, err := getList[paymentModeDTO](ctx, c, pathPaymentModes, nil)
	if err != nil {
		return nil, err
	}
	return toDomainList(dtos, paymentModeDTO.toDomain), nil
}

// PaymentModeBreakdown implements billing.PaymentModeSource.
func (c *Client) PaymentModeBreakdown(ctx context.Context) ([]billing.ModeBreakdown, error) {
	dtos, err := getList[breakdownDTO](ctx, c, pathModesBreakdown, nil)
	if err != nil {
		return nil, err
	}
	return toDomainList(dtos, breakdownDTO.toDomain), nil
}

// Patients implements billing.CustomerDirectory.
func (c *Client) Patients(ctx context.Context) ([]billing.Patient, error) {
	return getList[billing.Patient](ctx, c, pathPatients, nil)
}

// InsuranceCompanies implements billing.CustomerDirectory.
func (c *Client) InsuranceCompanies(ctx context.Context) ([]billing.InsuranceCompany, error) {
	return getList[billing.InsuranceCompany](ctx, c, pathInsurers, nil)
}

var (
	_ billing.InvoiceSource     = (*Client)(nil)
	_ billing.PaymentPoster     = (*Client)(nil)
	_ billing.ReceiptSource     = (*Client)(nil)
	_ billing.PaymentModeSource = (*Client)(nil)
	_ billing.CustomerDirectory = (*Client)(nil)
)
