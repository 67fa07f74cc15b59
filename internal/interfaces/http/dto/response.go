package dto

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// Warning is a non-fatal condition reported next to a successful result
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries pagination and warnings
type Meta struct {
	Total    int64     `json:"total,omitempty"`
	Page     int       `json:"page,omitempty"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewSuccessResponseWithWarnings creates a success response that also reports warnings.
// Meta is omitted when there are none.
func NewSuccessResponseWithWarnings(data any, warnings []Warning) Response {
	resp := NewSuccessResponse(data)
	if len(warnings) > 0 {
		resp.Meta = &Meta{Warnings: warnings}
	}
	return resp
}

// NewListResponse creates a success response for a list with its size and page
func NewListResponse(data any, total int64, page int) Response {
	return Response{
		Success: true,
		Data:    data,
		Meta:    &Meta{Total: total, Page: page},
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithRequestID creates an error response tagged with the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	resp := NewErrorResponse(code, message)
	resp.Error.RequestID = requestID
	return resp
}

// ValidationDetail describes one invalid request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Rule    string `json:"rule,omitempty"`
}

// NewValidationErrorResponse creates a validation error response with per-field details
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}
