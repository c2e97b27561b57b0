package container

import (
	"io/fs"
	"math"

	"go.uber.org/zap"
)

// Option is an option of Container's constructor.
type Option func(*cfg)

type cfg struct {
	sizeLimit int64
	readOnly  bool

	noSync bool
	perm   fs.FileMode

	log *zap.Logger
}

func defaultCfg() *cfg {
	return &cfg{
		sizeLimit: math.MaxInt64,
		perm:      0o640,
		log:       zap.L(),
	}
}

// WithSizeLimit returns option to set the maximum logical size of the
// container including its header.
func WithSizeLimit(limit int64) Option {
	return func(c *cfg) {
		c.sizeLimit = limit
	}
}

// WithReadOnly returns option to open container for reading only.
func WithReadOnly(readOnly bool) Option {
	return func(c *cfg) {
		c.readOnly = readOnly
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

// WithLogger returns option to specify Container's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		c.log = l
	}
}
