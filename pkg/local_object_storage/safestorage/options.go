package safestorage

import (
	"io/fs"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/mode"
	"go.uber.org/zap"
)

// Option is an option of Storage's constructor.
type Option func(*cfg)

// Metrics is a set of safety metrics.
type Metrics interface {
	SetSafetyState(path string, stable bool)
	IncRecoveries(path string)
}

type cfg struct {
	log *zap.Logger

	readOnly bool
	noSync   bool
	perm     fs.FileMode

	metrics Metrics

	storageOpts []dirstorage.Option
}

func defaultCfg() *cfg {
	return &cfg{
		log:     zap.L(),
		perm:    0o640,
		metrics: noopMetrics{},
	}
}

// storageOptions returns options of the inner directory storage: common
// settings followed by the ones passed with WithStorageOptions.
func (c *cfg) storageOptions() []dirstorage.Option {
	m := mode.ReadWrite
	if c.readOnly {
		m = mode.ReadOnly
	}

	return append([]dirstorage.Option{
		dirstorage.WithLogger(c.log),
		dirstorage.WithNoSync(c.noSync),
		dirstorage.WithPermissions(c.perm),
		dirstorage.WithMode(m),
	}, c.storageOpts...)
}

// WithLogger returns option to specify Storage's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		c.log = l
	}
}

// WithReadOnly returns option to never modify the storage directory. The
// flag file is not touched, unstable storage is not rebuilt.
func WithReadOnly(readOnly bool) Option {
	return func(c *cfg) {
		c.readOnly = readOnly
	}
}

// WithNoSync returns option to disable flushing data to the disk after
// every operation.
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

// WithMetrics returns option to specify safety metrics.
func WithMetrics(m Metrics) Option {
	return func(c *cfg) {
		c.metrics = m
	}
}

// WithStorageOptions returns option to pass options to the directory
// storage created by NewDirectory and OpenDirectory.
func WithStorageOptions(opts ...dirstorage.Option) Option {
	return func(c *cfg) {
		c.storageOpts = append(c.storageOpts, opts...)
	}
}

type noopMetrics struct{}

func (noopMetrics) SetSafetyState(string, bool) {}
func (noopMetrics) IncRecoveries(string)        {}
