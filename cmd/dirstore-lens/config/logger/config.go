package loggerconfig

import (
	"github.com/nspcc-dev/dirstore/cmd/dirstore-lens/config"
)

const (
	subsection = "logger"

	// LevelDefault is a default logger level.
	LevelDefault = "info"
	// FormatDefault is a default logger output format.
	FormatDefault = "console"
)

// Level returns the value of "level" config parameter
// from "logger" section.
//
// Returns LevelDefault if the value is not a non-empty string.
func Level(c *config.Config) string {
	v := config.StringSafe(c.Sub(subsection), "level")
	if v != "" {
		return v
	}

	return LevelDefault
}

// Format returns the value of "format" config parameter
// from "logger" section.
//
// Returns FormatDefault if the value is not a non-empty string.
func Format(c *config.Config) string {
	v := config.StringSafe(c.Sub(subsection), "format")
	if v != "" {
		return v
	}

	return FormatDefault
}

// Timestamp returns the value of "timestamp" config parameter
// from "logger" section.
//
// Returns false if the value is not a boolean.
func Timestamp(c *config.Config) bool {
	return config.BoolSafe(c.Sub(subsection), "timestamp")
}
