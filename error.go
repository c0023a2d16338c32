// Copyright © 2024 The Expreva authors

package expreva

import (
	"bytes"
	"fmt"
)

// ErrorVal is an Val adapter that implements the error interface so that
// evaluation errors can cross the host boundary as ordinary Go errors.
type ErrorVal Val

// Error implements the error interface.
func (e *ErrorVal) Error() string {
	var buf bytes.Buffer
	if e.Source != nil && e.Source.Pos >= 0 {
		fmt.Fprintf(&buf, "%s: ", e.Source)
	}
	if e.Fun != nil && e.Fun.Name != "" {
		fmt.Fprintf(&buf, "%s: ", e.Fun.Name)
	}
	if e.Str != "" {
		fmt.Fprintf(&buf, "%s: ", e.Str)
	}
	buf.WriteString(e.message())
	return buf.String()
}

// Condition returns the error's condition name.
func (e *ErrorVal) Condition() string {
	return e.Str
}

func (e *ErrorVal) message() string {
	var buf bytes.Buffer
	for i, cell := range e.Cells {
		if i > 0 {
			buf.WriteString(" ")
		}
		if cell.Kind == KString {
			buf.WriteString(cell.Str)
		} else {
			buf.WriteString(cell.String())
		}
	}
	return buf.String()
}

// ErrorMessage returns the message portion of the error without location or
// condition decoration.
func (e *ErrorVal) ErrorMessage() string {
	return e.message()
}

// GoError converts a KError value into a Go error.  It returns nil when v is
// not an error so that host code can write `if err := v.GoError(); err != nil`.
func (v *Val) GoError() error {
	if v.Kind != KError {
		return nil
	}
	return (*ErrorVal)(v)
}
