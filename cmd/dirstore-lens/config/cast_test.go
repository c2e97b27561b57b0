package config_test

import (
	"testing"

	"github.com/nspcc-dev/dirstore/cmd/dirstore-lens/config"
	"github.com/stretchr/testify/require"
)

func TestCast(t *testing.T) {
	t.Setenv("DIRSTORE_STORAGE_PATH", "/data")
	t.Setenv("DIRSTORE_STORAGE_NO_SYNC", "true")
	t.Setenv("DIRSTORE_STORAGE_MAX_CONTAINER_SIZE", "2 mb")
	t.Setenv("DIRSTORE_STORAGE_INDEX_TABLE_SIZE", "bad")

	c, err := config.New()
	require.NoError(t, err)

	s := c.Sub("storage")

	require.Equal(t, "/data", config.String(s, "path"))
	require.Equal(t, "/data", config.StringSafe(s, "path"))
	require.Empty(t, config.StringSafe(s, "missing"))

	require.True(t, config.BoolSafe(s, "no_sync"))
	require.False(t, config.BoolSafe(s, "path"))

	require.Equal(t, uint64(2<<20), config.SizeInBytesSafe(s, "max_container_size"))
	require.Zero(t, config.SizeInBytesSafe(s, "path"))

	require.Zero(t, config.UintSafe(s, "index_table_size"))
}
