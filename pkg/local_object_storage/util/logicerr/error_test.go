package logicerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	base := errors.New("batch lengths differ")
	err := fmt.Errorf("write: %w", Wrap(base))

	require.True(t, Is(err))
	require.ErrorIs(t, err, base)
	require.ErrorIs(t, err, Error)

	require.False(t, Is(base))
	require.False(t, Is(nil))
	require.True(t, Is(New("empty payload")))
}
