package supervisor

import (
	"io/fs"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/container"
	"go.uber.org/zap"
)

const (
	// DefaultPrefix is a default name prefix of container files.
	DefaultPrefix = "cont"

	// DefaultMaxContainerSize is a default limit of the container size.
	DefaultMaxContainerSize = 1 << 30
)

// Option is an option of Supervisor's constructor.
type Option func(*cfg)

type cfg struct {
	maxSize  int64
	prefix   string
	readOnly bool

	noSync bool
	perm   fs.FileMode

	log *zap.Logger
}

func defaultCfg() *cfg {
	return &cfg{
		maxSize: DefaultMaxContainerSize,
		prefix:  DefaultPrefix,
		perm:    0o640,
		log:     zap.L(),
	}
}

func (c *cfg) containerOptions() []container.Option {
	return []container.Option{
		container.WithSizeLimit(c.maxSize),
		container.WithReadOnly(c.readOnly),
		container.WithNoSync(c.noSync),
		container.WithPermissions(c.perm),
		container.WithLogger(c.log),
	}
}

// WithMaxContainerSize returns option to set the size limit of every
// container including its header.
func WithMaxContainerSize(size int64) Option {
	return func(c *cfg) {
		c.maxSize = size
	}
}

// WithPrefix returns option to set container file name prefix.
func WithPrefix(prefix string) Option {
	return func(c *cfg) {
		c.prefix = prefix
	}
}

// WithReadOnly returns option to open containers for reading only.
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

// WithPermissions returns option to set permissions of the created files.
func WithPermissions(perm fs.FileMode) Option {
	return func(c *cfg) {
		c.perm = perm
	}
}

// WithLogger returns option to specify Supervisor's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		c.log = l
	}
}
