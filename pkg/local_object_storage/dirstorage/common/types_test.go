package common

import (
	"testing"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/util/logicerr"
	"github.com/stretchr/testify/require"
)

func TestAddress(t *testing.T) {
	require.True(t, EmptyAddress.IsEmpty())
	require.False(t, Address{}.IsEmpty())
	require.False(t, Address{Container: -1, Offset: 0}.IsEmpty())
	require.Equal(t, "3:120", Address{Container: 3, Offset: 120}.String())
	require.Equal(t, "-1:-1", EmptyAddress.String())
}

func TestErrors(t *testing.T) {
	for _, err := range []error{ErrReadOnly, ErrIDExhausted, ErrObjectTooLarge, ErrMalformedInput} {
		require.True(t, logicerr.Is(err), err)
	}
	require.False(t, logicerr.Is(ErrLostContainer))
}
