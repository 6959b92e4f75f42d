package shared

import "fmt"

// Codes of the generic domain errors. Aggregates add their own codes
// (TEAM_FULL, DAY_NOT_EDITABLE, ...) next to the rule they guard.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeAlreadyExists     = "ALREADY_EXISTS"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidState      = "INVALID_STATE"
	CodeForbidden         = "FORBIDDEN"
	CodePhaseClosed       = "PHASE_CLOSED"
	CodeSequenceExhausted = "SEQUENCE_EXHAUSTED"
)

// DomainError is a business rule violation. Code is stable and mapped to
// an API error code by the HTTP layer; Message is shown to the user.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the infrastructure error behind the rule, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches on Code, so errors.Is(err, ErrNotFound) holds for every
// not-found error whatever its message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code
}

// Withf returns an error with the same code and a more specific message
func (e *DomainError) Withf(format string, args ...any) *DomainError {
	return &DomainError{Code: e.Code, Message: fmt.Sprintf(format, args...), cause: e.cause}
}

// Wrap attaches cause without changing code or message
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, cause: cause}
}

// NewDomainError creates a domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

var (
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists     = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput      = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState      = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrForbidden         = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrPhaseClosed       = NewDomainError(CodePhaseClosed, "This action is not available in the current campaign phase")
	ErrSequenceExhausted = NewDomainError(CodeSequenceExhausted, "No more sequence numbers available for this campaign")
)
