package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	paymentapp "github.com/mosesmbadi/easymed-sub000/internal/application/payment"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/payables"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/dto"
)

// SupplierPayments settles supplier invoices
type SupplierPayments interface {
	SupplierStatement(ctx context.Context, supplierID int64, selected []int64, tendered string) (*paymentapp.SupplierStatement, error)
	AllocateSupplierPayment(ctx context.Context, payment payables.SupplierPayment) (*paymentapp.SupplierPaymentResult, error)
}

// SupplierHandler handles supplier payment endpoints
type SupplierHandler struct {
	BaseHandler
	payments SupplierPayments
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(payments SupplierPayments) *SupplierHandler {
	return &SupplierHandler{payments: payments}
}

// Statement godoc
// @Summary      Get a supplier statement
// @Description  Returns the outstanding invoices of a supplier and the totals of the invoices selected in the query
// @Tags         supplier-payments
// @Produce      json
// @Param        id path int true "Supplier ID"
// @Param        invoice_ids query []int false "Selected invoice IDs" collectionFormat(multi)
// @Param        tendered query string false "Tendered amount"
// @Success      200 {object} dto.Response{data=paymentapp.SupplierStatement}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /suppliers/{id}/invoices [get]
func (h *SupplierHandler) Statement(c *gin.Context) {
	var uri dto.SupplierURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	var query dto.SupplierStatementQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	statement, err := h.payments.SupplierStatement(c.Request.Context(), uri.ID, query.InvoiceIDs, query.Tendered)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statement)
}

// Pay godoc
// @Summary      Pay supplier invoices
// @Description  Posts a payment against supplier invoices
// @Tags         supplier-payments
// @Accept       json
// @Produce      json
// @Param        request body dto.SupplierPaymentRequest true "Supplier payment"
// @Success      201 {object} dto.Response{data=paymentapp.SupplierPaymentResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /supplier-payments [post]
func (h *SupplierHandler) Pay(c *gin.Context) {
	var req dto.SupplierPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.payments.AllocateSupplierPayment(c.Request.Context(), payables.SupplierPayment{
		SupplierID:      req.SupplierID,
		InvoiceIDs:      req.InvoiceIDs,
		Amount:          string(req.Amount),
		PaymentModeID:   req.PaymentModeID,
		ReferenceNumber: req.ReferenceNumber,
		PaymentDate:     req.PaymentDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
