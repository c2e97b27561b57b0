package storageconfig

import (
	"errors"
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/nspcc-dev/dirstore/cmd/dirstore-lens/config"
	"github.com/nspcc-dev/dirstore/cmd/dirstore-lens/config/internal"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/idgen"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/index"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/supervisor"
)

const subsection = "storage"

const (
	// MaxContainerSizeDefault is a default container size limit.
	MaxContainerSizeDefault = internal.Size(supervisor.DefaultMaxContainerSize)
	// IndexTableSizeDefault is a default number of index buckets.
	IndexTableSizeDefault = index.DefaultTableSize
)

// IDRange is a range of generated identifiers.
type IDRange struct {
	Min int64 `mapstructure:"min"`
	Max int64 `mapstructure:"max"`
}

// Config is a "storage" section of the configuration.
type Config struct {
	Path             string        `mapstructure:"path"`
	MaxContainerSize internal.Size `mapstructure:"max_container_size"`
	IndexTableSize   int64         `mapstructure:"index_table_size"`
	NoSync           bool          `mapstructure:"no_sync"`
	AddressCacheSize int           `mapstructure:"address_cache_size"`
	IDRange          IDRange       `mapstructure:"id_range"`
}

// Read returns "storage" section of c with defaults applied and the path
// expanded.
func Read(c *config.Config) (Config, error) {
	var res Config

	if err := c.Sub(subsection).Unmarshal(&res); err != nil {
		return res, err
	}

	if res.Path != "" {
		p, err := homedir.Expand(res.Path)
		if err != nil {
			return res, fmt.Errorf("expand storage path: %w", err)
		}
		res.Path = p
	}

	res.MaxContainerSize = res.MaxContainerSize.OrDefault(MaxContainerSizeDefault)
	if res.IndexTableSize <= 0 {
		res.IndexTableSize = IndexTableSizeDefault
	}
	if res.IDRange == (IDRange{}) {
		res.IDRange = IDRange{Min: idgen.DefaultMinID, Max: idgen.DefaultMaxID}
	}
	if res.IDRange.Min > res.IDRange.Max {
		return res, errors.New("storage.id_range.min is greater than max")
	}

	return res, nil
}

// Options returns options of the directory storage configured by x.
func (x Config) Options() []dirstorage.Option {
	opts := []dirstorage.Option{
		dirstorage.WithMaxContainerSize(int64(x.MaxContainerSize)),
		dirstorage.WithIndexTableSize(x.IndexTableSize),
		dirstorage.WithNoSync(x.NoSync),
		dirstorage.WithIDRange(x.IDRange.Min, x.IDRange.Max),
	}
	if x.AddressCacheSize > 0 {
		opts = append(opts, dirstorage.WithAddressCacheSize(x.AddressCacheSize))
	}
	return opts
}
