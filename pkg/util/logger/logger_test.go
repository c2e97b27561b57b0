package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	var prm Prm

	l, err := NewLogger(prm)
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zap.InfoLevel))
	require.False(t, l.Core().Enabled(zap.DebugLevel))

	require.NoError(t, prm.SetLevelString("debug"))
	require.NoError(t, prm.SetFormat("json"))
	prm.DisableTimestamps()

	l, err = NewLogger(prm)
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zap.DebugLevel))
}

func TestPrm_Validation(t *testing.T) {
	var prm Prm

	require.Error(t, prm.SetLevelString("verbose"))
	require.Error(t, prm.SetFormat("xml"))
	require.NoError(t, prm.SetFormat("Console"))
	require.NoError(t, prm.SetLevelString("WARN"))
}
