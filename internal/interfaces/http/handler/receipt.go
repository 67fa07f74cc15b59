package handler

import (
	"context"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/dto"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/middleware"
)

// Receipts lists payment receipts and renders their documents
type Receipts interface {
	ListReceipts(ctx context.Context, query billing.ReceiptQuery) ([]billing.Receipt, error)
	ReceiptDocument(ctx context.Context, receiptID int64) (*billing.ReceiptDocument, error)
}

// ReceiptHandler handles receipt endpoints
type ReceiptHandler struct {
	BaseHandler
	receipts Receipts
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receipts Receipts) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// List godoc
// @Summary      List payment receipts
// @Description  Returns receipts filtered by patient and payment date
// @Tags         receipts
// @Produce      json
// @Param        patient_id query int false "Patient ID"
// @Param        date_from query string false "From date" format(date)
// @Param        date_to query string false "To date" format(date)
// @Param        page query int false "Page number" default(1)
// @Success      200 {object} dto.Response{data=[]billing.Receipt}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /receipts [get]
func (h *ReceiptHandler) List(c *gin.Context) {
	var query dto.ReceiptListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	if query.Page == 0 {
		query.Page = 1
	}
	if query.DateFrom != "" && query.DateTo != "" && query.DateFrom > query.DateTo {
		h.BadRequest(c, "date_from must not be after date_to")
		return
	}

	receipts, err := h.receipts.ListReceipts(c.Request.Context(), billing.ReceiptQuery{
		PatientID: query.PatientID,
		DateFrom:  query.DateFrom,
		DateTo:    query.DateTo,
		Page:      query.Page,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(receipts, int64(len(receipts)), query.Page))
}

// Document godoc
// @Summary      Download a receipt PDF
// @Description  Downloads the receipt PDF. When the document was stored, its signed link is returned in the X-Receipt-URL header.
// @Tags         receipts
// @Produce      application/pdf
// @Param        id path int true "Receipt ID"
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /receipts/{id}/document [get]
func (h *ReceiptHandler) Document(c *gin.Context) {
	var uri dto.ReceiptURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	doc, err := h.receipts.ReceiptDocument(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	if doc.URL != "" {
		c.Header(middleware.ReceiptURLHeader, doc.URL)
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename()}))
	c.Data(http.StatusOK, contentType, doc.Body)
}
