package mode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMode(t *testing.T) {
	require.False(t, ReadWrite.ReadOnly())
	require.True(t, ReadOnly.ReadOnly())
	require.True(t, Degraded.ReadOnly())

	require.Equal(t, "READ_WRITE", ReadWrite.String())
	require.Equal(t, "DEGRADED", Degraded.String())
	require.Equal(t, "UNDEFINED", Mode(42).String())
}
