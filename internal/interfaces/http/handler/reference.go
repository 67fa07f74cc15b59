package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mosesmbadi/easymed-sub000/internal/application/referencedata"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/payables"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/dto"
)

// ReferenceData lists the lookups offered while taking a payment
type ReferenceData interface {
	PaymentModes(ctx context.Context) ([]billing.PaymentModeOption, error)
	PaymentModesFor(ctx context.Context, customer billing.CustomerRef) ([]billing.PaymentModeOption, error)
	PaymentModeBreakdown(ctx context.Context) (*referencedata.Breakdown, error)
	Patients(ctx context.Context) ([]billing.Patient, error)
	InsuranceCompanies(ctx context.Context) ([]billing.InsuranceCompany, error)
	Suppliers(ctx context.Context) ([]payables.Supplier, error)
}

// ReferenceHandler serves payment modes, patients, insurers and suppliers
type ReferenceHandler struct {
	BaseHandler
	data ReferenceData
}

// NewReferenceHandler creates a new ReferenceHandler
func NewReferenceHandler(data ReferenceData) *ReferenceHandler {
	return &ReferenceHandler{data: data}
}

// PaymentModes godoc
// @Summary      List payment modes
// @Description  Lists payment modes. With customer_kind=patient insurer modes are left out; with customer_kind=insurance the modes of insurance_id are kept as well.
// @Tags         reference-data
// @Produce      json
// @Param        customer_kind query string false "Customer kind" Enums(patient, insurance)
// @Param        insurance_id query int false "Insurance company ID"
// @Success      200 {object} dto.Response{data=[]billing.PaymentModeOption}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-modes [get]
func (h *ReferenceHandler) PaymentModes(c *gin.Context) {
	var query dto.PaymentModesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	var (
		modes []billing.PaymentModeOption
		err   error
	)
	switch billing.CustomerKind(query.CustomerKind) {
	case billing.CustomerPatient:
		modes, err = h.data.PaymentModesFor(ctx, billing.CustomerRef{Kind: billing.CustomerPatient})
	case billing.CustomerInsurance:
		if query.InsuranceID == 0 {
			h.BadRequest(c, "insurance_id is required when customer_kind is insurance")
			return
		}
		modes, err = h.data.PaymentModesFor(ctx, billing.CustomerRef{ID: query.InsuranceID, Kind: billing.CustomerInsurance})
	default:
		modes, err = h.data.PaymentModes(ctx)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, modes)
}

// PaymentModeBreakdown godoc
// @Summary      Get payment mode breakdown
// @Description  Returns live totals per payment mode
// @Tags         reference-data
// @Produce      json
// @Success      200 {object} dto.Response{data=referencedata.Breakdown}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-modes/breakdown [get]
func (h *ReferenceHandler) PaymentModeBreakdown(c *gin.Context) {
	breakdown, err := h.data.PaymentModeBreakdown(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, breakdown)
}

// Patients godoc
// @Summary      List patients
// @Description  Lists patients
// @Tags         reference-data
// @Produce      json
// @Success      200 {object} dto.Response{data=[]billing.Patient}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /patients [get]
func (h *ReferenceHandler) Patients(c *gin.Context) {
	patients, err := h.data.Patients(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(patients, int64(len(patients)), 1))
}

// Insurers godoc
// @Summary      List insurance companies
// @Description  Lists insurance companies
// @Tags         reference-data
// @Produce      json
// @Success      200 {object} dto.Response{data=[]billing.InsuranceCompany}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /insurers [get]
func (h *ReferenceHandler) Insurers(c *gin.Context) {
	insurers, err := h.data.InsuranceCompanies(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(insurers, int64(len(insurers)), 1))
}

// Suppliers godoc
// @Summary      List suppliers
// @Description  Lists suppliers
// @Tags         reference-data
// @Produce      json
// @Success      200 {object} dto.Response{data=[]payables.Supplier}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /suppliers [get]
func (h *ReferenceHandler) Suppliers(c *gin.Context) {
	suppliers, err := h.data.Suppliers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(suppliers, int64(len(suppliers)), 1))
}
