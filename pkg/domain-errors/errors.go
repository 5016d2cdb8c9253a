// Package domainerrors carries coded errors across layer boundaries so callers can
// branch on a stable code instead of matching message text.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks template or input data that references unknown codes or
	// misses required keys. Construction is aborted; no entity is produced.
	CodeValidation Code = "validation"
	// CodeInvalidInput marks malformed primitives such as identifiers.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound marks a missing row or entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a write that collides with existing state.
	CodeConflict Code = "conflict"
	// CodeWriteFailed marks a store upsert or delete that did not happen.
	CodeWriteFailed Code = "write_failed"
	// CodeReadInconsistency marks a row expected to exist that is gone.
	CodeReadInconsistency Code = "read_inconsistency"
	// CodeInternal marks everything else.
	CodeInternal Code = "internal"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to err. A nil err stays nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
