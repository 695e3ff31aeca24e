package core

import "errors"

// ErrorCode is a stable, machine-readable failure code. Codes never change
// once published; callers branch on them instead of parsing messages.
type ErrorCode string

const (
	CodeInvalidQuantity        ErrorCode = "InvalidQuantity"
	CodeBackorderLimitExceeded ErrorCode = "BackorderLimitExceeded"
	CodeInsufficientStock      ErrorCode = "InsufficientStock"
	CodeInvalidStateTransition ErrorCode = "InvalidStateTransition"
	CodeNotFound               ErrorCode = "NotFound"
	CodeEmptyOrder             ErrorCode = "EmptyOrder"
	CodeNoFulfillableLocations ErrorCode = "NoFulfillableLocations"
	CodeSameLocation           ErrorCode = "SameLocation"
	CodeEmptyTransfer          ErrorCode = "EmptyTransfer"
)

// DomainError is a typed failure returned by core operations. Operations that
// return one guarantee no partial state was persisted.
type DomainError struct {
	Code    ErrorCode
	Message string
}

func (e *DomainError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is matches any DomainError with the same code, so sites can wrap the
// sentinels below with fmt.Errorf("%w: ...") and errors.Is still works.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return e.Code == de.Code
}

var (
	ErrInvalidQuantity        = &DomainError{Code: CodeInvalidQuantity, Message: "quantity is invalid for this operation"}
	ErrBackorderLimitExceeded = &DomainError{Code: CodeBackorderLimitExceeded, Message: "adjustment would exceed the backorder limit"}
	ErrInsufficientStock      = &DomainError{Code: CodeInsufficientStock, Message: "not enough stock to satisfy the request"}
	ErrInvalidStateTransition = &DomainError{Code: CodeInvalidStateTransition, Message: "state transition is not allowed"}
	ErrNotFound               = &DomainError{Code: CodeNotFound, Message: "record not found"}
	ErrEmptyOrder             = &DomainError{Code: CodeEmptyOrder, Message: "no items requested"}
	ErrNoFulfillableLocations = &DomainError{Code: CodeNoFulfillableLocations, Message: "no active fulfillable stock locations"}
	ErrSameLocation           = &DomainError{Code: CodeSameLocation, Message: "source and destination locations must differ"}
	ErrEmptyTransfer          = &DomainError{Code: CodeEmptyTransfer, Message: "transfer has no items"}
)

// CodeOf extracts the stable code from err, or "" if err carries none.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
