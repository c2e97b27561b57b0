package index

import (
	"io/fs"

	"go.uber.org/zap"
)

// Option is an option of Index's constructor.
type Option func(*cfg)

type cfg struct {
	tableSize int64

	noSync bool
	perm   fs.FileMode

	log *zap.Logger
}

func defaultCfg() *cfg {
	return &cfg{
		tableSize: DefaultTableSize,
		perm:      0o640,
		log:       zap.L(),
	}
}

// WithTableSize returns option to set the number of hash buckets.
func WithTableSize(size int64) Option {
	return func(c *cfg) {
		c.tableSize = size
	}
}

// WithNoSync returns option to disable data flushing after every call.
func WithNoSync(noSync bool) Option {
	return func(c *cfg) {
		c.noSync = noSync
	}
}

// WithPermissions returns option to set permissions of the created file.
func WithPermissions(perm fs.FileMode) Option {
	return func(c *cfg) {
		c.perm = perm
	}
}

// WithLogger returns option to specify Index's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		c.log = l
	}
}
