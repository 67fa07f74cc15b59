package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/shared"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/logger"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/dto"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setUserContext simulates the principal set by the bearer auth middleware
func setUserContext(c *gin.Context, userID string) {
	c.Set(logger.GinUserIDKey, userID)
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context",
			setup: func(c *gin.Context) {
				c.Set(logger.GinRequestIDKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(middleware.RequestIDHeader, "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(logger.GinRequestIDKey, "ctx-id")
				c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodGet, "/")
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestOwnerOf(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/")
	assert.Empty(t, ownerOf(c))

	setUserContext(c, "42")
	assert.Equal(t, "42", ownerOf(c))
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.Success(c, map[string]string{"message": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "ok", resp.Data.(map[string]any)["message"])
}

func TestBaseHandlerCreatedAndNoContent(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext(http.MethodPost, "/")
	h.Created(c, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)

	c, w = newTestContext(http.MethodDelete, "/")
	h.NoContent(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestBaseHandlerError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")
	c.Set(logger.GinRequestIDKey, "req-1")

	h.BadRequest(c, "bad input")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.Equal(t, "bad input", resp.Error.Message)
	assert.Equal(t, "req-1", resp.Error.RequestID)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "payment rule violation",
			err:        &billing.ValidationError{Rule: billing.RuleAmount, Field: "amount", Message: "Please enter a valid payment amount"},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
			wantMsg:    "Please enter a valid payment amount",
		},
		{
			name:       "not found",
			err:        shared.NewDomainError("NOT_FOUND", "Payment session not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
			wantMsg:    "Payment session not found",
		},
		{
			name:       "invalid state",
			err:        shared.NewDomainError("INVALID_STATE", "Payment has already been allocated for this session"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodeInvalidState,
			wantMsg:    "Payment has already been allocated for this session",
		},
		{
			name:       "unknown invoice",
			err:        shared.NewDomainError("UNKNOWN_INVOICE", "Invoice 7 is not available for this customer"),
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeUnknownInvoice,
			wantMsg:    "Invoice 7 is not available for this customer",
		},
		{
			name:       "submission in flight",
			err:        billing.ErrSubmitInFlight,
			wantStatus: http.StatusConflict,
			wantCode:   dto.ErrCodeSubmitInFlight,
			wantMsg:    "A payment submission is already in progress",
		},
		{
			name:       "allocation rejected",
			err:        &billing.AllocationError{Status: 400, Message: "Amount exceeds balance"},
			wantStatus: http.StatusBadGateway,
			wantCode:   dto.ErrCodeAllocationFailed,
			wantMsg:    "payment allocation failed: Amount exceeds balance",
		},
		{
			name:       "allocation rejected for credentials stays an allocation failure",
			err:        &billing.AllocationError{Status: 401, Err: shared.ErrUnauthorized},
			wantStatus: http.StatusBadGateway,
			wantCode:   dto.ErrCodeAllocationFailed,
		},
		{
			name:       "data fetch failure",
			err:        &billing.DataFetchError{Resource: "invoices", Err: errors.New("connection refused")},
			wantStatus: http.StatusBadGateway,
			wantCode:   dto.ErrCodeDataFetch,
			wantMsg:    "Could not load invoices. Please try again",
		},
		{
			name:       "upstream rejected credentials while loading",
			err:        &billing.DataFetchError{Resource: "invoices", Err: fmt.Errorf("fetch: %w", shared.ErrUnauthorized)},
			wantStatus: http.StatusUnauthorized,
			wantCode:   dto.ErrCodeUnauthorized,
		},
		{
			name:       "uncoded error is hidden",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternal,
			wantMsg:    "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Error.Message)
			}
		})
	}
}

func TestHandleErrorValidationDetails(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/")

	h.HandleError(c, &billing.ValidationError{Rule: billing.RuleReference, Field: "reference_number", Message: "Please enter a reference number"})

	var body struct {
		Error struct {
			Details []dto.ValidationDetail `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, dto.ValidationDetail{
		Field:   "reference_number",
		Message: "Please enter a reference number",
		Rule:    "reference_number",
	}, body.Error.Details[0])
}

func TestHandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")
	h.HandleError(c, nil)
	assert.Empty(t, w.Body.String())
}

func TestWarningsOf(t *testing.T) {
	assert.Nil(t, warningsOf(nil))

	warnings := warningsOf([]error{
		&billing.ReceiptFetchWarning{ReceiptID: 9, Err: errors.New("timeout")},
		errors.New("odd"),
	})
	require.Len(t, warnings, 2)
	assert.Equal(t, dto.ErrCodeReceiptUnavailable, warnings[0].Code)
	assert.Equal(t, "receipt 9 could not be retrieved: timeout", warnings[0].Message)
	assert.Equal(t, dto.ErrCodeUnknown, warnings[1].Code)
}
