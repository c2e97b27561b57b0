// Package config provides access to the lens configuration read from a file
// and DIRSTORE_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/nspcc-dev/dirstore/cmd/dirstore-lens/config/internal"
	"github.com/nspcc-dev/dirstore/cmd/dirstore-lens/config/internal/validate"
	"github.com/spf13/viper"
)

// Config represents a group of named values structured
// by tree type.
//
// Sub-trees are named configuration sub-sections,
// leaves are named configuration values.
// Names are of string type.
type Config struct {
	v *viper.Viper

	path []string
}

const separator = "."

// New creates a new Config instance.
//
// If file option is provided (WithConfigFile),
// configuration values are read from it and checked for unknown keys.
// Otherwise, only environment variables are used.
func New(opts ...Option) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(internal.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(separator, internal.EnvSeparator))

	for _, key := range validate.Keys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	o := defaultOpts()
	for i := range opts {
		opts[i](o)
	}

	if o.path != "" {
		v.SetConfigFile(o.path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := validate.ValidateStruct(v); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Config{
		v: v,
	}, nil
}

// Sub returns subsection of the Config by name.
//
// Missing subsection has no values.
func (x *Config) Sub(name string) *Config {
	return &Config{
		v:    x.v,
		path: append(x.path[:len(x.path):len(x.path)], name),
	}
}

// Value returns configuration value by name.
//
// Result can be casted to a particular type
// via corresponding function (e.g. StringSafe).
func (x *Config) Value(name string) any {
	return x.v.Get(strings.Join(append(x.path[:len(x.path):len(x.path)], name), separator))
}

// Unmarshal decodes the whole section into dst using `mapstructure` tags.
// Fields of internal.Size type accept sizes like "64M".
func (x *Config) Unmarshal(dst any) error {
	var section any = x.v.AllSettings()
	for _, name := range x.path {
		m, ok := section.(map[string]any)
		if !ok {
			section = nil
			break
		}
		section = m[name]
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			internal.SizeHook(),
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	if err := dec.Decode(section); err != nil {
		return fmt.Errorf("decode %s section: %w", strings.Join(x.path, separator), err)
	}
	return nil
}
