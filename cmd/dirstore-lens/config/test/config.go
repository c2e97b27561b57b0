package configtest

import (
	"testing"

	"github.com/nspcc-dev/dirstore/cmd/dirstore-lens/config"
	"github.com/stretchr/testify/require"
	"github.com/subosito/gotenv"
)

func fromFile(t testing.TB, path string) *config.Config {
	c, err := config.New(config.WithConfigFile(path))
	require.NoError(t, err)

	return c
}

// ForEachFileType passes configs read from next files:
//   - `<pref>.yaml`;
//   - `<pref>.json`.
func ForEachFileType(t testing.TB, pref string, f func(*config.Config)) {
	for _, p := range []string{pref + ".yaml", pref + ".json"} {
		f(fromFile(t, p))
	}
}

// ForEnvFileType passes config built from environment variables listed in
// `<pref>.env`. Variables are reset after the test.
func ForEnvFileType(t *testing.T, pref string, f func(*config.Config)) {
	envs, err := gotenv.Read(pref + ".env")
	require.NoError(t, err)

	for k, v := range envs {
		t.Setenv(k, v)
	}

	f(EmptyConfig(t))
}

// EmptyConfig returns config without any values from files.
func EmptyConfig(t testing.TB) *config.Config {
	c, err := config.New()
	require.NoError(t, err)

	return c
}
