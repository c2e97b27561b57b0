package testutil_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nspcc-dev/dirstore/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewBufferedLogger(t *testing.T) {
	l, lb := testutil.NewBufferedLogger(t, zap.InfoLevel)
	lb.AssertEmpty()

	l.Debug("dropped")
	l.Info("stored", zap.Int("records", 3), zap.Duration("took", 250*time.Millisecond))
	l.Warn("lost", zap.Strings("containers", []string{"cont1"}))

	require.Equal(t, []testutil.LogEntry{
		{Level: zap.InfoLevel, Message: "stored", Fields: map[string]any{
			"records": json.Number("3"),
			"took":    json.Number("0.25"),
		}},
		{Level: zap.WarnLevel, Message: "lost", Fields: map[string]any{
			"containers": []any{"cont1"},
		}},
	}, lb.Entries())

	lb.AssertContains(testutil.LogEntry{Level: zap.WarnLevel, Message: "lost", Fields: map[string]any{
		"containers": []any{"cont1"},
	}})
	lb.AssertMessage(zapcore.InfoLevel, "stored")
	lb.AssertNoMessage("dropped")
}
