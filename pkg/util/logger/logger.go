// Package logger builds zap loggers for command-line tools.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	formatJSON    = "json"
	formatConsole = "console"
)

// Prm groups NewLogger parameters.
type Prm struct {
	level    zapcore.Level
	encoding string
	noTime   bool
}

// SetLevelString sets minimum logging level. Accepted values are the ones
// of zapcore.Level, default is info.
func (p *Prm) SetLevelString(s string) error {
	return p.level.UnmarshalText([]byte(s))
}

// SetFormat sets output format: console (default) or json.
func (p *Prm) SetFormat(f string) error {
	switch strings.ToLower(f) {
	case "", formatConsole:
		p.encoding = formatConsole
	case formatJSON:
		p.encoding = formatJSON
	default:
		return fmt.Errorf("unsupported log format %q", f)
	}
	return nil
}

// DisableTimestamps drops the time from the records.
func (p *Prm) DisableTimestamps() {
	p.noTime = true
}

// NewLogger returns zap logger writing to stderr according to prm.
func NewLogger(prm Prm) (*zap.Logger, error) {
	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(prm.level)
	c.Encoding = formatConsole
	if prm.encoding != "" {
		c.Encoding = prm.encoding
	}
	c.Sampling = nil

	if prm.noTime {
		c.EncoderConfig.TimeKey = ""
	} else {
		c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := c.Build(zap.AddStacktrace(zap.NewAtomicLevelAt(zap.FatalLevel)))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return l, nil
}
