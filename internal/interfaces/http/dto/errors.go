package dto

import "net/http"

// Error code constants returned to integration partners and operators
// Format: ERR_<CATEGORY>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeTransientInfra signals a retryable infrastructure failure
	ErrCodeTransientInfra = "ERR_TRANSIENT_INFRA"
)

// Authentication error codes
const (
	// ErrCodeUnauthenticated is used when integration credentials are missing or invalid
	ErrCodeUnauthenticated = "ERR_UNAUTHENTICATED"
	// ErrCodeTokenExpired is used when the operator token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the operator token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeIntegrationDisabled is used when the tenant's integration is switched off
	ErrCodeIntegrationDisabled = "ERR_INTEGRATION_DISABLED"
)

// Payload error codes
const (
	// ErrCodeMalformedPayload is used when a document cannot be parsed at all
	ErrCodeMalformedPayload = "ERR_MALFORMED_PAYLOAD"
	// ErrCodeValidation is used when a document parses but fails validation
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests outside document bodies
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Resource and state error codes
const (
	// ErrCodeNotFound is used when a referenced resource does not exist
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeRetryExhausted is used when a job has burned its whole attempt budget
	ErrCodeRetryExhausted = "ERR_RETRY_EXHAUSTED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:        http.StatusInternalServerError,
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeTransientInfra: http.StatusInternalServerError,

	ErrCodeUnauthenticated:     http.StatusUnauthorized,
	ErrCodeTokenExpired:        http.StatusUnauthorized,
	ErrCodeTokenInvalid:        http.StatusUnauthorized,
	ErrCodeIntegrationDisabled: http.StatusForbidden,

	ErrCodeMalformedPayload: http.StatusBadRequest,
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidInput:     http.StatusBadRequest,

	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeInvalidState:   http.StatusUnprocessableEntity,
	ErrCodeRetryExhausted: http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to wire-level codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHENTICATED":      ErrCodeUnauthenticated,
	"INTEGRATION_DISABLED": ErrCodeIntegrationDisabled,
	"MALFORMED_PAYLOAD":    ErrCodeMalformedPayload,
	"VALIDATION_FAILURE":   ErrCodeValidation,
	"TRANSIENT_INFRA":      ErrCodeTransientInfra,
	"RETRY_EXHAUSTED":      ErrCodeRetryExhausted,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the wire-level format
// If the code is already in the wire format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if wireCode, ok := DomainErrorCodeMapping[code]; ok {
		return wireCode
	}
	return code
}
