package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error tag constants.
const (
	TagSyntaxError        = "SyntaxError"
	TagTypeError          = "TypeError"
	TagNameError          = "NameError"
	TagRedeclarationError = "RedeclarationError"
	TagArityError         = "ArityError"
	TagValueError         = "ValueError"
	TagZeroDivisionError  = "ZeroDivisionError"
	TagRecursionError     = "RecursionError"
	TagCancelledError     = "CancelledError"
)

// Error is a diagnostic raised by any stage. Message is the human-readable
// line printed to the user; Line is the 1-based source line when known.
type Error struct {
	Message string   `json:"message"`
	Tags    []string `json:"tags"`
	Line    int      `json:"line,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// HasTag returns true if the error has the specified tag.
func (e *Error) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AtLine returns e with its source line set.
func (e *Error) AtLine(line int) *Error {
	e.Line = line
	return e
}

// AsError extracts a *Error from err, wrapping foreign errors with no tags.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Message: err.Error()}
}

// Common error constructors.

// NewSyntaxError creates a SyntaxError.
func NewSyntaxError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagSyntaxError}}
}

// NewTypeError creates a TypeError.
func NewTypeError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagTypeError}}
}

// NewNameError creates a NameError for an unresolved identifier.
func NewNameError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagNameError}}
}

// NewRedeclarationError creates a RedeclarationError.
func NewRedeclarationError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagRedeclarationError}}
}

// NewArityError creates an ArityError.
func NewArityError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagArityError}}
}

// NewValueError creates a ValueError.
func NewValueError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagValueError}}
}

// NewZeroDivisionError creates a ZeroDivisionError.
func NewZeroDivisionError() *Error {
	return &Error{Message: "division by zero", Tags: []string{TagZeroDivisionError}}
}

// NewRecursionError creates a RecursionError for call stack overflow.
func NewRecursionError(limit int) *Error {
	return &Error{
		Message: fmt.Sprintf("call stack depth limit exceeded (max %d)", limit),
		Tags:    []string{TagRecursionError},
	}
}

// NewCancelledError creates a CancelledError from a context error.
func NewCancelledError(cause error) *Error {
	return &Error{Message: "execution cancelled: " + cause.Error(), Tags: []string{TagCancelledError}}
}

// ErrorList is the accumulated error list of one stage.
type ErrorList []*Error

// Error joins the messages one per line.
func (l ErrorList) Error() string {
	return strings.Join(l.Messages(), "\n")
}

// Messages returns the error messages in order.
func (l ErrorList) Messages() []string {
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = e.Message
	}
	return out
}

// Err returns l as an error, or nil when l is empty.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// NewMismatchError creates the TypeError raised when two operands carry
// different or incompatible tags.
func NewMismatchError(left, right ValueType) *Error {
	return NewTypeError(fmt.Sprintf("couldn't evaluate type '%s' with type '%s'", left, right))
}

// NewOperatorError creates the TypeError raised when the unary operator op
// is not defined for an operand of type t.
func NewOperatorError(op string, t ValueType) *Error {
	return NewTypeError(fmt.Sprintf("operator '%s' is not defined for type '%s'", op, t))
}

// NewBinaryOperatorError creates the TypeError raised when the binary
// operator op is not defined for operands of types left and right.
func NewBinaryOperatorError(op string, left, right ValueType) *Error {
	return NewTypeError(fmt.Sprintf("operator '%s' is not defined for types '%s' and '%s'", op, left, right))
}
