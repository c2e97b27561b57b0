package dirstorage

import (
	"io/fs"
	"time"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/container"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/idgen"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/index"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/supervisor"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/mode"
	"go.uber.org/zap"
)

// Option is an option of Storage's constructor.
type Option func(*cfg)

type cfg struct {
	log *zap.Logger

	maxContainerSize int64
	tableSize        int64
	minID, maxID     int64

	noSync bool
	perm   fs.FileMode
	mode   mode.Mode

	metrics   Metrics
	cacheSize int
}

func defaultCfg() *cfg {
	return &cfg{
		log:              zap.L(),
		maxContainerSize: supervisor.DefaultMaxContainerSize,
		tableSize:        index.DefaultTableSize,
		minID:            idgen.DefaultMinID,
		maxID:            idgen.DefaultMaxID,
		perm:             0o640,
		metrics:          noopMetrics{},
	}
}

func (c *cfg) generatorOptions() []idgen.Option {
	return []idgen.Option{
		idgen.WithRange(c.minID, c.maxID),
		idgen.WithNoSync(c.noSync),
		idgen.WithPermissions(c.perm),
		idgen.WithLogger(c.log),
	}
}

func (c *cfg) indexOptions() []index.Option {
	return []index.Option{
		index.WithTableSize(c.tableSize),
		index.WithNoSync(c.noSync),
		index.WithPermissions(c.perm),
		index.WithLogger(c.log),
	}
}

func (c *cfg) supervisorOptions() []supervisor.Option {
	return []supervisor.Option{
		supervisor.WithMaxContainerSize(c.maxContainerSize),
		supervisor.WithReadOnly(c.mode.ReadOnly()),
		supervisor.WithNoSync(c.noSync),
		supervisor.WithPermissions(c.perm),
		supervisor.WithLogger(c.log),
	}
}

func (c *cfg) sourceOptions() []container.Option {
	return []container.Option{
		container.WithReadOnly(true),
		container.WithLogger(c.log),
	}
}

// WithLogger returns option to specify Storage's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		c.log = l
	}
}

// WithMaxContainerSize returns option to set the size limit of container
// files. It also limits the maximum object size.
func WithMaxContainerSize(size int64) Option {
	return func(c *cfg) {
		c.maxContainerSize = size
	}
}

// WithIndexTableSize returns option to set the number of index buckets.
// Existing storage must be opened with the value it was created with.
func WithIndexTableSize(size int64) Option {
	return func(c *cfg) {
		c.tableSize = size
	}
}

// WithIDRange returns option to set inclusive bounds of generated IDs.
func WithIDRange(minID, maxID int64) Option {
	return func(c *cfg) {
		c.minID = minID
		c.maxID = maxID
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

// WithMode returns option to set Storage's mode. Storage opened with a
// read-only mode never modifies its directory.
func WithMode(m mode.Mode) Option {
	return func(c *cfg) {
		c.mode = m
	}
}

// WithMetrics returns option to specify storage metrics.
func WithMetrics(m Metrics) Option {
	return func(c *cfg) {
		c.metrics = m
	}
}

// WithAddressCacheSize returns option to cache up to size ID addresses in
// memory. Zero disables the cache.
func WithAddressCacheSize(size int) Option {
	return func(c *cfg) {
		c.cacheSize = size
	}
}

// Metrics is a set of storage metrics. Path label is the storage directory.
type Metrics interface {
	AddOperationDuration(path, op string, d time.Duration)
	SetContainersCount(path string, n int)
	AddLostContainers(path string, n int)
	IncRebuilds(path string)
	AddWrittenBytes(path string, n int)
}

type noopMetrics struct{}

func (noopMetrics) AddOperationDuration(string, string, time.Duration) {}
func (noopMetrics) SetContainersCount(string, int)                     {}
func (noopMetrics) AddLostContainers(string, int)                      {}
func (noopMetrics) IncRebuilds(string)                                 {}
func (noopMetrics) AddWrittenBytes(string, int)                        {}
