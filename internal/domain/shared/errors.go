package shared

// DomainError represents an expected business failure carrying a stable code.
// Expected failures are returned, never panicked; the code is part of the
// public contract and must stay stable across releases.
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

// IsDomainError reports whether err is a DomainError with the given code
func IsDomainError(err error, code string) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == code
}

// Stable error codes shared across the fiscal engine
const (
	CodeNotFound                    = "NOT_FOUND"
	CodeAlreadyAuthorized           = "ALREADY_AUTHORIZED"
	CodeAlreadyCancelled            = "ALREADY_CANCELLED"
	CodeInvalidOperationCode        = "INVALID_OPERATION_CODE"
	CodeInvalidAccessKey            = "INVALID_ACCESS_KEY"
	CodeEmptyDocument               = "EMPTY_DOCUMENT"
	CodeInvalidItemValue            = "INVALID_ITEM_VALUE"
	CodeInvalidStatusTransition     = "INVALID_STATUS_TRANSITION"
	CodeInvalidClassificationCode   = "INVALID_CLASSIFICATION_CODE"
	CodeCancellationDeadlineExpired = "CANCELLATION_DEADLINE_EXPIRED"
	CodeConcurrencyConflict         = "CONCURRENCY_CONFLICT"
	CodeInvalidInput                = "INVALID_INPUT"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)
