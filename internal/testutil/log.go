// Package testutil provides helpers shared by storage tests.
package testutil

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

const (
	logLevelKey   = "level"
	logMessageKey = "msg"
	logTimeKey    = "ts"
)

// LogEntry is a decoded log record. Numbers are kept as [json.Number].
type LogEntry struct {
	Level   zapcore.Level
	Message string
	Fields  map[string]any
}

// LogBuffer collects entries written by the logger from NewBufferedLogger.
type LogBuffer struct {
	t  testing.TB
	mu sync.Mutex
	b  zaptest.Buffer
}

// NewBufferedLogger returns JSON logger writing to the returned buffer.
// Entries below minLevel are dropped.
func NewBufferedLogger(t testing.TB, minLevel zapcore.Level) (*zap.Logger, *LogBuffer) {
	lb := &LogBuffer{t: t}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.LevelKey = logLevelKey
	encCfg.MessageKey = logMessageKey
	encCfg.TimeKey = logTimeKey

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), lockedSyncer{lb}, minLevel)

	return zap.New(core), lb
}

// Entries returns all entries written so far.
func (x *LogBuffer) Entries() []LogEntry {
	x.mu.Lock()
	lines := x.b.Lines()
	x.mu.Unlock()

	res := make([]LogEntry, len(lines))
	for i := range lines {
		dec := json.NewDecoder(strings.NewReader(lines[i]))
		dec.UseNumber()

		var m map[string]any
		require.NoError(x.t, dec.Decode(&m), i)

		lvl, ok := m[logLevelKey].(string)
		require.True(x.t, ok, i)

		var err error
		res[i].Level, err = zapcore.ParseLevel(lvl)
		require.NoError(x.t, err, i)

		res[i].Message, ok = m[logMessageKey].(string)
		require.True(x.t, ok, i)

		delete(m, logTimeKey)
		delete(m, logLevelKey)
		delete(m, logMessageKey)
		res[i].Fields = m
	}

	return res
}

// AssertEmpty asserts that nothing was logged.
func (x *LogBuffer) AssertEmpty() {
	require.Empty(x.t, x.Entries())
}

// AssertContains asserts that exactly the given entry was logged.
func (x *LogBuffer) AssertContains(e LogEntry) {
	require.Contains(x.t, x.Entries(), e)
}

// AssertMessage asserts that an entry with the given level and message was
// logged regardless of its fields.
func (x *LogBuffer) AssertMessage(lvl zapcore.Level, msg string) {
	for _, e := range x.Entries() {
		if e.Level == lvl && e.Message == msg {
			return
		}
	}
	require.Failf(x.t, "log entry not found", "level: %s, message: %q", lvl, msg)
}

// AssertNoMessage asserts that no entry with the given message was logged.
func (x *LogBuffer) AssertNoMessage(msg string) {
	for _, e := range x.Entries() {
		require.NotEqual(x.t, msg, e.Message)
	}
}

type lockedSyncer struct {
	b *LogBuffer
}

func (x lockedSyncer) Write(p []byte) (int, error) {
	x.b.mu.Lock()
	defer x.b.mu.Unlock()
	return x.b.b.Write(p)
}

func (x lockedSyncer) Sync() error {
	x.b.mu.Lock()
	defer x.b.mu.Unlock()
	return x.b.b.Sync()
}
