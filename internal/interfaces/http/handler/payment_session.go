package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	paymentapp "github.com/mosesmbadi/easymed-sub000/internal/application/payment"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/dto"
)

// PaymentSessions drives the payment entry workflow of a desk user
type PaymentSessions interface {
	Start(ctx context.Context, owner string) paymentapp.SessionView
	Get(ctx context.Context, owner, sessionID string) (paymentapp.SessionView, error)
	SelectCategory(ctx context.Context, owner, sessionID string, category billing.PaymentCategory) (paymentapp.SessionView, error)
	SelectCustomer(ctx context.Context, owner, sessionID string, customerID int64) (paymentapp.SessionView, error)
	LoadInvoices(ctx context.Context, owner, sessionID string) (paymentapp.SessionView, error)
	SelectInvoices(ctx context.Context, owner, sessionID string, invoiceIDs []int64) (paymentapp.SessionView, error)
	SetAmount(ctx context.Context, owner, sessionID, amount string) (paymentapp.SessionView, error)
	SetDetails(ctx context.Context, owner, sessionID string, paymentModeID *int64, reference, date string) (paymentapp.SessionView, error)
	Summary(ctx context.Context, owner, sessionID string) (paymentapp.SummaryView, error)
	Submit(ctx context.Context, owner, sessionID string) (*paymentapp.SubmitResult, error)
	Abandon(ctx context.Context, owner, sessionID string) error
}

// PaymentSessionHandler handles the payment session endpoints
type PaymentSessionHandler struct {
	BaseHandler
	sessions PaymentSessions
}

// NewPaymentSessionHandler creates a new PaymentSessionHandler
func NewPaymentSessionHandler(sessions PaymentSessions) *PaymentSessionHandler {
	return &PaymentSessionHandler{sessions: sessions}
}

// Start godoc
// @Summary      Start a payment session
// @Description  Opens a new payment session for the caller
// @Tags         payment-sessions
// @Produce      json
// @Success      201 {object} dto.Response{data=paymentapp.SessionView}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-sessions [post]
func (h *PaymentSessionHandler) Start(c *gin.Context) {
	h.Created(c, h.sessions.Start(c.Request.Context(), ownerOf(c)))
}

// Get godoc
// @Summary      Get a payment session
// @Description  Returns the current state of a session
// @Tags         payment-sessions
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response{data=paymentapp.SessionView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-sessions/{id} [get]
func (h *PaymentSessionHandler) Get(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.sessions.Get(c.Request.Context(), ownerOf(c), id)
	h.respond(c, view, err)
}

// SelectCategory godoc
// @Summary      Select the payment category
// @Description  Chooses cash, credit or insurance settlement
// @Tags         payment-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body dto.SelectCategoryRequest true "Payment category"
// @Success      200 {object} dto.Response{data=paymentapp.SessionView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-sessions/{id}/category [put]
func (h *PaymentSessionHandler) SelectCategory(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req dto.SelectCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	category, err := billing.ParsePaymentCategory(req.PaymentCategory)
	if err != nil || !category.IsSet() {
		h.BadRequest(c, "Unknown payment category")
		return
	}
	view, err := h.sessions.SelectCategory(c.Request.Context(), ownerOf(c), id, category)
	h.respond(c, view, err)
}

// SelectCustomer godoc
// @Summary      Select the patient or insurer
// @Description  Chooses the patient or insurer the payment is for
// @Tags         payment-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body dto.SelectCustomerRequest true "Customer"
// @Success      200 {object} dto.Response{data=paymentapp.SessionView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-sessions/{id}/customer [put]
func (h *PaymentSessionHandler) SelectCustomer(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req dto.SelectCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	view, err := h.sessions.SelectCustomer(c.Request.Context(), ownerOf(c), id, *req.CustomerID)
	h.respond(c, view, err)
}

// LoadInvoices godoc
// @Summary      Load outstanding invoices
// @Description  Fetches the outstanding invoices of the selected customer
// @Tags         payment-sessions
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response{data=paymentapp.SessionView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-sessions/{id}/invoices [get]
func (h *PaymentSessionHandler) LoadInvoices(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.sessions.LoadInvoices(c.Request.Context(), ownerOf(c), id)
	h.respond(c, view, err)
}

// SelectInvoices godoc
// @Summary      Select invoices to pay
// @Description  Replaces the invoice selection
// @Tags         payment-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body dto.SelectInvoicesRequest true "Invoice selection"
// @Success      200 {object} dto.Response{data=paymentapp.SessionView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-sessions/{id}/invoices [put]
func (h *PaymentSessionHandler) SelectInvoices(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req dto.SelectInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	view, err := h.sessions.SelectInvoices(c.Request.Context(), ownerOf(c), id, req.InvoiceIDs)
	h.respond(c, view, err)
}

// SetAmount godoc
// @Summary      Set the tendered amount
// @Description  Records the tendered amount
// @Tags         payment-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body dto.SetAmountRequest true "Tendered amount"
// @Success      200 {object} dto.Response{data=paymentapp.SessionView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-sessions/{id}/amount [put]
func (h *PaymentSessionHandler) SetAmount(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req dto.SetAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	view, err := h.sessions.SetAmount(c.Request.Context(), ownerOf(c), id, string(req.Amount))
	h.respond(c, view, err)
}

// SetDetails godoc
// @Summary      Set payment mode, reference and date
// @Description  Records payment mode, reference number and payment date
// @Tags         payment-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body dto.SetDetailsRequest true "Payment details"
// @Success      200 {object} dto.Response{data=paymentapp.SessionView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-sessions/{id}/details [put]
func (h *PaymentSessionHandler) SetDetails(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req dto.SetDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	view, err := h.sessions.SetDetails(c.Request.Context(), ownerOf(c), id, req.PaymentModeID, req.ReferenceNumber, req.PaymentDate)
	h.respond(c, view, err)
}

// Summary godoc
// @Summary      Get the payment summary
// @Description  Returns the totals of the selection and how the amount would be applied
// @Tags         payment-sessions
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response{data=paymentapp.SummaryView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-sessions/{id}/summary [get]
func (h *PaymentSessionHandler) Summary(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.sessions.Summary(c.Request.Context(), ownerOf(c), id)
	h.respond(c, view, err)
}

// Submit godoc
// @Summary      Submit the payment allocation
// @Description  Posts the payment allocation. A receipt that could not be rendered is reported in meta.warnings; the payment itself was recorded.
// @Tags         payment-sessions
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      201 {object} dto.Response{data=paymentapp.SubmitResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-sessions/{id}/submit [post]
func (h *PaymentSessionHandler) Submit(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	result, err := h.sessions.Submit(c.Request.Context(), ownerOf(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponseWithWarnings(result, warningsOf(result.Warnings)))
}

// Abandon godoc
// @Summary      Abandon a payment session
// @Description  Discards a session
// @Tags         payment-sessions
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-sessions/{id} [delete]
func (h *PaymentSessionHandler) Abandon(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.sessions.Abandon(c.Request.Context(), ownerOf(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *PaymentSessionHandler) sessionID(c *gin.Context) (string, bool) {
	var uri dto.SessionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return "", false
	}
	return uri.ID, true
}

func (h *PaymentSessionHandler) respond(c *gin.Context, data any, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}
