package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/shared"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/logger"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/dto"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := middleware.GetRequestID(c); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// ownerOf returns the desk user that owns the sessions of this request
func ownerOf(c *gin.Context) string {
	return middleware.GetUserID(c)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindError sends a 400 response for a request that failed binding
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, middleware.FormatValidationErrors(err, getRequestID(c)))
}

// HandleError converts service errors to HTTP responses.
//
// A payment rule violation is reported as ERR_VALIDATION with the failing
// field in details. A token the HMIS rejects while loading data is reported
// as 401; a rejected allocation stays ERR_ALLOCATION_FAILED. Any other coded error maps through dto.NormalizeErrorCode. Errors
// without a code are logged and hidden behind a 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := getRequestID(c)

	var verr *billing.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(verr.Message, requestID, []dto.ValidationDetail{{
			Field:   verr.Field,
			Message: verr.Message,
			Rule:    verr.Rule.String(),
		}}))
		return
	}

	var allocErr *billing.AllocationError
	if errors.Is(err, shared.ErrUnauthorized) && !errors.As(err, &allocErr) {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "The HMIS rejected your credentials. Please sign in again")
		return
	}

	code := dto.NormalizeErrorCode(shared.CodeOf(err))
	if code == "" {
		logger.L(c.Request.Context()).Error("Unhandled error", zap.Error(err))
		h.InternalError(c, "An unexpected error occurred")
		return
	}

	status := dto.GetHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("Request failed", zap.String("code", code), zap.Error(err))
	}
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, userMessage(err), requestID))
}

// userMessage returns the text shown to the desk for err
func userMessage(err error) string {
	var (
		domainErr *shared.DomainError
		allocErr  *billing.AllocationError
		fetchErr  *billing.DataFetchError
	)
	switch {
	case errors.As(err, &allocErr):
		return allocErr.Error()
	case errors.As(err, &fetchErr):
		return "Could not load " + fetchErr.Resource + ". Please try again"
	case errors.As(err, &domainErr):
		return domainErr.Message
	case errors.Is(err, billing.ErrSubmitInFlight):
		return "A payment submission is already in progress"
	default:
		return strings.TrimPrefix(err.Error(), "billing: ")
	}
}

// warningsOf converts non-fatal conditions to response warnings
func warningsOf(errs []error) []dto.Warning {
	if len(errs) == 0 {
		return nil
	}
	warnings := make([]dto.Warning, 0, len(errs))
	for _, err := range errs {
		code := dto.NormalizeErrorCode(shared.CodeOf(err))
		if code == "" {
			code = dto.ErrCodeUnknown
		}
		warnings = append(warnings, dto.Warning{Code: code, Message: err.Error()})
	}
	return warnings
}
