package cmderr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	require.Zero(t, Code(nil))
	require.Equal(t, CodeInternal, Code(errors.New("disk failure")))
	require.Equal(t, CodeLogical, Code(fmt.Errorf("write: %w", common.ErrReadOnly)))
	require.Equal(t, 5, Code(fmt.Errorf("cmd: %w", ExitErr{Code: 5, Cause: common.ErrReadOnly})))

	e := ExitErr{Code: 3, Cause: common.ErrMalformedInput}
	require.Equal(t, common.ErrMalformedInput.Error(), e.Error())
	require.ErrorIs(t, e, common.ErrMalformedInput)
}
