// Package logicerr marks errors caused by invalid requests rather than by
// storage failures. Logical errors are always detected before any data is
// modified.
package logicerr

import (
	"errors"
	"fmt"
)

// Error is wrapped to highlight the business logic errors.
var Error = errors.New("logical error")

// New returns simple error with a provided error message.
func New(msg string) error {
	return Wrap(errors.New(msg))
}

// Wrap wraps arbitrary error into a logical one.
func Wrap(err error) error {
	return fmt.Errorf("%w: %w", Error, err)
}

// Is checks whether err is a logical one.
func Is(err error) bool {
	return errors.Is(err, Error)
}
