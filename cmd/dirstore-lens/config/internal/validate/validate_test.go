package validate

import (
	"testing"

	"github.com/nspcc-dev/dirstore/cmd/internal/configvalidator"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	require.Equal(t, []string{
		"logger.level",
		"logger.format",
		"logger.timestamp",
		"storage.path",
		"storage.max_container_size",
		"storage.index_table_size",
		"storage.no_sync",
		"storage.address_cache_size",
		"storage.id_range.min",
		"storage.id_range.max",
	}, Keys())
}

func TestValidateStruct(t *testing.T) {
	v := viper.New()
	v.Set("storage.path", "/data")
	v.Set("logger.level", "debug")
	require.NoError(t, ValidateStruct(v))

	v.Set("storage.compress", true)
	require.ErrorIs(t, ValidateStruct(v), configvalidator.ErrUnknownField)
}
