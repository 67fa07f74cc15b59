package billing

import (
	"errors"
	"fmt"
)

// Error codes carried by the billing error taxonomy
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeAllocationFailed   = "ALLOCATION_FAILED"
	CodeReceiptUnavailable = "RECEIPT_UNAVAILABLE"
	CodeDataFetch          = "DATA_FETCH_FAILED"
	CodeSubmitInFlight     = "SUBMIT_IN_FLIGHT"
)

// ErrSubmitInFlight is returned when a payment is submitted while a previous
// submission for the same session has not resolved yet.
var ErrSubmitInFlight = &inFlightError{}

type inFlightError struct{}

func (*inFlightError) Error() string {
	return "billing: a payment submission is already in progress"
}

func (*inFlightError) ErrorCode() string { return CodeSubmitInFlight }

// ValidationError reports the first failing rule of a payment draft.
// It never reaches the network.
type ValidationError struct {
	Rule    Rule   `json:"rule"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrorCode implements shared.Coded
func (e *ValidationError) ErrorCode() string { return CodeValidation }

// AllocationError reports that posting a payment failed. The session that
// produced it keeps its data so the desk can retry.
type AllocationError struct {
	// Status is the upstream HTTP status, 0 for transport failures
	Status  int
	Message string
	Err     error
}

func (e *AllocationError) Error() string {
	if e.Message != "" {
		return "payment allocation failed: " + e.Message
	}
	if e.Err != nil {
		return "payment allocation failed: " + e.Err.Error()
	}
	return "payment allocation failed"
}

func (e *AllocationError) Unwrap() error { return e.Err }

// ErrorCode implements shared.Coded
func (e *AllocationError) ErrorCode() string { return CodeAllocationFailed }

// ReceiptFetchWarning reports that a receipt could not be fetched or stored
// after a successful allocation. It never undoes the allocation.
type ReceiptFetchWarning struct {
	ReceiptID int64
	Err       error
}

func (w *ReceiptFetchWarning) Error() string {
	return fmt.Sprintf("receipt %d could not be retrieved: %v", w.ReceiptID, w.Err)
}

func (w *ReceiptFetchWarning) Unwrap() error { return w.Err }

// ErrorCode implements shared.Coded
func (w *ReceiptFetchWarning) ErrorCode() string { return CodeReceiptUnavailable }

// DataFetchError reports that reference or invoice data could not be loaded.
type DataFetchError struct {
	Resource string
	Err      error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("could not load %s: %v", e.Resource, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }

// ErrorCode implements shared.Coded
func (e *DataFetchError) ErrorCode() string { return CodeDataFetch }

// IsWarning reports whether err is a non-fatal condition that should be shown
// to the desk as a warning rather than an error.
func IsWarning(err error) bool {
	var w *ReceiptFetchWarning
	return errors.Is(err, ErrSubmitInFlight) || errors.As(err, &w)
}
