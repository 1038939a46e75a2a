package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthenticated     = NewDomainError("UNAUTHENTICATED", "Request credentials are missing or invalid")
	ErrIntegrationDisabled = NewDomainError("INTEGRATION_DISABLED", "Integration is disabled for this tenant")
	ErrMalformedPayload    = NewDomainError("MALFORMED_PAYLOAD", "Request payload could not be parsed")
	ErrValidationFailure   = NewDomainError("VALIDATION_FAILURE", "Payload is well-formed but missing required fields")
	ErrTransientInfra      = NewDomainError("TRANSIENT_INFRA", "Transient infrastructure failure")
	ErrRetryExhausted      = NewDomainError("RETRY_EXHAUSTED", "Job exhausted its retry budget")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
