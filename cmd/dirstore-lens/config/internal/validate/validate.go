// Package validate describes all known configuration keys.
package validate

import (
	"fmt"
	"reflect"

	"github.com/nspcc-dev/dirstore/cmd/internal/configvalidator"
	"github.com/spf13/viper"
)

type validConfig struct {
	Logger struct {
		Level     string `mapstructure:"level"`
		Format    string `mapstructure:"format"`
		Timestamp bool   `mapstructure:"timestamp"`
	} `mapstructure:"logger"`

	Storage struct {
		Path             string `mapstructure:"path"`
		MaxContainerSize string `mapstructure:"max_container_size"`
		IndexTableSize   int64  `mapstructure:"index_table_size"`
		NoSync           bool   `mapstructure:"no_sync"`
		AddressCacheSize int    `mapstructure:"address_cache_size"`
		IDRange          struct {
			Min int64 `mapstructure:"min"`
			Max int64 `mapstructure:"max"`
		} `mapstructure:"id_range"`
	} `mapstructure:"storage"`
}

// ValidateStruct checks that the viper config has known keys only.
func ValidateStruct(v *viper.Viper) error {
	if err := configvalidator.CheckForUnknownFields(v.AllSettings(), validConfig{}); err != nil {
		return fmt.Errorf("check config keys: %w", err)
	}
	return nil
}

// Keys returns full names of all known leaf keys, e.g. "storage.path".
func Keys() []string {
	return keys(reflect.TypeFor[validConfig](), "")
}

func keys(t reflect.Type, prefix string) []string {
	var res []string
	for i := range t.NumField() {
		f := t.Field(i)
		name := prefix + f.Tag.Get("mapstructure")
		if f.Type.Kind() == reflect.Struct {
			res = append(res, keys(f.Type, name+".")...)
		} else {
			res = append(res, name)
		}
	}
	return res
}
