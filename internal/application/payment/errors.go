package payment

import (
	"fmt"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/shared"
)

// CodeUnknownInvoice is carried by errors for invoice ids the session did not offer
const CodeUnknownInvoice = "UNKNOWN_INVOICE"

var (
	// ErrSessionNotFound is returned for unknown, expired or foreign sessions
	ErrSessionNotFound = shared.NewDomainError("NOT_FOUND", "Payment session not found")
	// ErrSessionAllocated is returned when a settled session is edited or submitted again
	ErrSessionAllocated = shared.NewDomainError("INVALID_STATE", "Payment has already been allocated for this session")
	// ErrNoCustomer is returned when invoices are requested before a customer is chosen
	ErrNoCustomer = shared.NewDomainError("INVALID_STATE", "Select a customer before loading invoices")
	// ErrUnknownInvoice matches every unknown-invoice error by code
	ErrUnknownInvoice = shared.NewDomainError(CodeUnknownInvoice, "Invoice is not available for this customer")
)

func unknownInvoice(id int64) error {
	return shared.NewDomainError(CodeUnknownInvoice, fmt.Sprintf("Invoice %d is not available for this customer", id))
}
