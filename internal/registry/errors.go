package registry

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes registry errors.
type ErrorCode string

const (
	// ErrCodeMalformedID indicates an ID that does not match IDPattern.
	ErrCodeMalformedID ErrorCode = "MALFORMED_ID"

	// ErrCodeDuplicateID indicates an ID that is already registered.
	ErrCodeDuplicateID ErrorCode = "DUPLICATE_ID"

	// ErrCodeNotFound indicates Make was called with an unknown ID.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeDeprecated indicates Make was called on a retired entity.
	ErrCodeDeprecated ErrorCode = "DEPRECATED"

	// ErrCodeUnresolvable indicates an entry point reference that could not
	// be resolved to a factory.
	ErrCodeUnresolvable ErrorCode = "UNRESOLVABLE"
)

// Error is returned by Register, Make and Catalog.Resolve.
type Error struct {
	Code    ErrorCode
	ID      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsMalformedID reports whether err is a malformed ID registration error.
func IsMalformedID(err error) bool { return hasCode(err, ErrCodeMalformedID) }

// IsDuplicateID reports whether err is a duplicate registration error.
func IsDuplicateID(err error) bool { return hasCode(err, ErrCodeDuplicateID) }

// IsNotFound reports whether err means the ID was never registered.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsDeprecated reports whether err means the entity was retired.
func IsDeprecated(err error) bool { return hasCode(err, ErrCodeDeprecated) }

// IsUnresolvable reports whether err is an entry point resolution failure.
func IsUnresolvable(err error) bool { return hasCode(err, ErrCodeUnresolvable) }

func newMalformedIDError(id string) *Error {
	return &Error{
		Code:    ErrCodeMalformedID,
		ID:      id,
		Message: fmt.Sprintf("attempted to register malformed entity ID %q (IDs must match %s)", id, IDPattern),
	}
}

func newDuplicateIDError(id string) *Error {
	return &Error{
		Code:    ErrCodeDuplicateID,
		ID:      id,
		Message: fmt.Sprintf("entity with ID %q already registered; register a new version instead", id),
	}
}

func newNotFoundError(id string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		ID:      id,
		Message: fmt.Sprintf("no registered entity with ID %q", id),
	}
}

func newDeprecatedError(id string) *Error {
	return &Error{
		Code:    ErrCodeDeprecated,
		ID:      id,
		Message: fmt.Sprintf("attempting to make deprecated entity %q (hint: is there a newer registered version of this entity?)", id),
	}
}
