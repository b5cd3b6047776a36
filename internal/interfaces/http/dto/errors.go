package dto

import (
	"errors"
	"net/http"

	"github.com/fiscalhub/backend/internal/domain/shared"
)

// Error code constants for the HTTP surface
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeValidation is the base code for request validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for resource conflicts, including stale versions
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeInvalidState is used when an operation is invalid for the current
	// document status
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for fiscal rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeGatewayUnavailable is used when the tax authority cannot be reached
	ErrCodeGatewayUnavailable = "ERR_GATEWAY_UNAVAILABLE"
)

// domainCodeMapping maps domain error codes to HTTP surface codes
var domainCodeMapping = map[string]string{
	shared.CodeNotFound:                    ErrCodeNotFound,
	shared.CodeInvalidInput:                ErrCodeBadRequest,
	shared.CodeConcurrencyConflict:         ErrCodeConflict,
	shared.CodeAlreadyAuthorized:           ErrCodeInvalidState,
	shared.CodeAlreadyCancelled:            ErrCodeInvalidState,
	shared.CodeInvalidStatusTransition:     ErrCodeInvalidState,
	shared.CodeEmptyDocument:               ErrCodeBusinessRule,
	shared.CodeInvalidItemValue:            ErrCodeBusinessRule,
	shared.CodeInvalidOperationCode:        ErrCodeBusinessRule,
	shared.CodeInvalidClassificationCode:   ErrCodeBusinessRule,
	shared.CodeInvalidAccessKey:            ErrCodeBusinessRule,
	shared.CodeCancellationDeadlineExpired: ErrCodeBusinessRule,
}

// errorCodeHTTPStatus maps HTTP surface codes to status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:       http.StatusUnprocessableEntity,
	ErrCodeGatewayUnavailable: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status for a surface error code, defaulting
// to 500 for unknown codes
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// MapDomainError translates a domain error into (surface code, HTTP status,
// message). Unknown errors map to ERR_INTERNAL with a generic message so
// internals never leak to clients.
func MapDomainError(err error) (string, int, string) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		code, ok := domainCodeMapping[de.Code]
		if !ok {
			code = ErrCodeBusinessRule
		}
		return code, GetHTTPStatus(code), de.Message
	}
	return ErrCodeInternal, http.StatusInternalServerError, "An internal error occurred"
}
