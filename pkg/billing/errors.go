package billing

import "errors"

// Error codes surfaced to API clients
const (
	CodeMissingRequiredField        = "MISSING_REQUIRED_FIELD"
	CodeMissingField                = "MISSING_FIELD"
	CodeInvalidDate                 = "INVALID_DATE"
	CodeInvalidStatus               = "INVALID_STATUS"
	CodePlanNotFound                = "PLAN_NOT_FOUND"
	CodePlanNotActive               = "PLAN_NOT_ACTIVE"
	CodeSubscriptionNotFound        = "SUBSCRIPTION_NOT_FOUND"
	CodeSubscriptionAlreadyCanceled = "SUBSCRIPTION_ALREADY_CANCELED"
	CodeEndDateRequired             = "END_DATE_REQUIRED"
	CodeInvoiceNotFound             = "INVOICE_NOT_FOUND"
	CodeDatabaseError               = "DATABASE_ERROR"
)

// Kind classifies an error for HTTP status mapping
type Kind int

// Error classifications
const (
	KindValidation Kind = iota
	KindNotFound
	KindInvalidState
	KindStoreFailure
)

// Error is a coded domain error
type Error struct {
	Code    string
	Message string
	Kind    Kind
}

func (e *Error) Error() string {
	return e.Message
}

// NewValidationError creates a validation error (maps to 400)
func NewValidationError(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: KindValidation}
}

// NewNotFoundError creates a not-found error (maps to 404)
func NewNotFoundError(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: KindNotFound}
}

// NewInvalidStateError creates an invalid-state error (maps to 400)
func NewInvalidStateError(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: KindInvalidState}
}

// NewStoreError wraps a store failure (maps to 500). The underlying error
// message is surfaced; all store failures are reported uniformly.
func NewStoreError(err error) *Error {
	return &Error{Code: CodeDatabaseError, Message: err.Error(), Kind: KindStoreFailure}
}

// AsError extracts a *Error from err, if present
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
