package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeValidation is used when a request or a payment draft fails validation
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeUnknownInvoice is used when an invoice id was not offered for the customer
	ErrCodeUnknownInvoice = "ERR_UNKNOWN_INVOICE"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when the bearer token is missing or rejected upstream
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeSubmitInFlight is used when a payment is submitted twice before it resolves
	ErrCodeSubmitInFlight = "ERR_SUBMIT_IN_FLIGHT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for the session state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Upstream error codes
const (
	// ErrCodeAllocationFailed is used when the HMIS rejects or never answers a payment
	ErrCodeAllocationFailed = "ERR_ALLOCATION_FAILED"
	// ErrCodeDataFetch is used when invoices or reference data cannot be loaded
	ErrCodeDataFetch = "ERR_DATA_FETCH"
	// ErrCodeReceiptUnavailable is reported as a warning after a successful payment
	ErrCodeReceiptUnavailable = "ERR_RECEIPT_UNAVAILABLE"
	// ErrCodeUpstream is used for other HMIS failures
	ErrCodeUpstream = "ERR_UPSTREAM"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeUnknownInvoice:  http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeConflict:       http.StatusConflict,
	ErrCodeSubmitInFlight: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	// Upstream errors -> 502 Bad Gateway
	ErrCodeAllocationFailed:   http.StatusBadGateway,
	ErrCodeDataFetch:          http.StatusBadGateway,
	ErrCodeUpstream:           http.StatusBadGateway,
	ErrCodeReceiptUnavailable: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps the codes carried by domain and gateway errors
// to the ERR_ codes exposed over HTTP
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":           ErrCodeNotFound,
	"INVALID_INPUT":       ErrCodeBadRequest,
	"INVALID_STATE":       ErrCodeInvalidState,
	"UNAUTHORIZED":        ErrCodeUnauthorized,
	"CONFLICT":            ErrCodeConflict,
	"VALIDATION_ERROR":    ErrCodeValidation,
	"UNKNOWN_INVOICE":     ErrCodeUnknownInvoice,
	"SUBMIT_IN_FLIGHT":    ErrCodeSubmitInFlight,
	"ALLOCATION_FAILED":   ErrCodeAllocationFailed,
	"DATA_FETCH_FAILED":   ErrCodeDataFetch,
	"RECEIPT_UNAVAILABLE": ErrCodeReceiptUnavailable,
	"UPSTREAM_ERROR":      ErrCodeUpstream,
}

// NormalizeErrorCode converts a domain error code to the HTTP format
// If the code is already in the HTTP format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
