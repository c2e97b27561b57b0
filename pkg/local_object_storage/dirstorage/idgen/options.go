package idgen

import (
	"fmt"
	"io/fs"
	"math"

	"go.uber.org/zap"
)

// Default bounds of the ID range.
const (
	DefaultMinID = math.MinInt32
	DefaultMaxID = math.MinInt32 + 100_000_000
)

// Option is an option of Generator's constructor.
type Option func(*cfg)

type cfg struct {
	minID, maxID int64

	noSync bool
	perm   fs.FileMode

	log *zap.Logger
}

func defaultCfg() *cfg {
	return &cfg{
		minID: DefaultMinID,
		maxID: DefaultMaxID,
		perm:  0o640,
		log:   zap.L(),
	}
}

func (c *cfg) validate() error {
	if c.minID > c.maxID || c.maxID == math.MaxInt64 {
		return fmt.Errorf("invalid ID range [%d, %d]", c.minID, c.maxID)
	}
	return nil
}

// WithRange returns option to set inclusive bounds of the allocated IDs.
// The upper bound must be less than math.MaxInt64.
func WithRange(minID, maxID int64) Option {
	return func(c *cfg) {
		c.minID = minID
		c.maxID = maxID
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

// WithLogger returns option to specify Generator's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		c.log = l
	}
}
