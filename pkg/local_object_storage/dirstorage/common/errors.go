package common

import (
	"errors"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/util/logicerr"
)

var (
	// ErrReadOnly MUST be returned for modifying operations when the storage
	// was opened in readonly mode.
	ErrReadOnly = logicerr.New("opened as read-only")

	// ErrIDExhausted MUST be returned when the ID allocator can not satisfy
	// the request. Allocation is all-or-nothing, so no ID is consumed.
	ErrIDExhausted = logicerr.New("ID range exhausted")

	// ErrObjectTooLarge MUST be returned when a payload can not fit into an
	// empty container.
	ErrObjectTooLarge = logicerr.New("object too large")

	// ErrMalformedInput MUST be returned for invalid call arguments such as
	// batches of different lengths or nil payloads.
	ErrMalformedInput = logicerr.New("malformed input")
)

// ErrLostContainer is returned when a container file is missing or can not
// be parsed.
var ErrLostContainer = errors.New("lost container")
