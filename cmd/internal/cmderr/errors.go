// Package cmderr maps command errors to process exit codes.
package cmderr

import (
	"errors"
	"fmt"
	"os"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/util/logicerr"
)

const (
	// CodeInternal is returned for I/O and other unexpected failures.
	CodeInternal = 1
	// CodeLogical is returned for rejected requests, e.g. invalid input or
	// write to read-only storage.
	CodeLogical = 2
)

// ExitErr specific error for ExitOnErr function that passes the exit code and error caused.
type ExitErr struct {
	Code  int
	Cause error
}

func (x ExitErr) Error() string { return x.Cause.Error() }

func (x ExitErr) Unwrap() error { return x.Cause }

// Code returns exit code for err: the one of ExitErr if err wraps it,
// CodeLogical for logical errors and CodeInternal otherwise. Returns 0 for
// nil.
func Code(err error) int {
	if err == nil {
		return 0
	}

	var e ExitErr
	if errors.As(err, &e) {
		return e.Code
	}
	if logicerr.Is(err) {
		return CodeLogical
	}
	return CodeInternal
}

// ExitOnErr writes error to os.Stderr and calls os.Exit with the code
// returned by Code. Does nothing if err is nil.
func ExitOnErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(Code(err))
	}
}
