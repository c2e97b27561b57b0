package internal

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSizeInBytes(t *testing.T) {
	for s, exp := range map[string]uint64{
		"":       0,
		"1":      1,
		"1b":     1,
		"12":     12,
		"1k":     1 << 10,
		"1 kb":   1 << 10,
		"64M":    64 << 20,
		"2 GB":   2 << 30,
		"1t":     1 << 40,
		"x":      0,
		"1q":     0,
		"1 zzz":  0,
		"9999999999999T": 0,
	} {
		require.Equal(t, exp, ParseSizeInBytes(s), s)
	}
}

func TestSizeHook(t *testing.T) {
	hook := SizeHook()

	v, err := hook(reflect.TypeOf(""), reflect.TypeFor[Size](), "1m")
	require.NoError(t, err)
	require.Equal(t, Size(1<<20), v)

	v, err = hook(reflect.TypeOf(0), reflect.TypeFor[Size](), 4096)
	require.NoError(t, err)
	require.Equal(t, Size(4096), v)

	v, err = hook(reflect.TypeOf(""), reflect.TypeOf(""), "1m")
	require.NoError(t, err)
	require.Equal(t, "1m", v)

	require.Equal(t, Size(5), Size(0).OrDefault(5))
	require.Equal(t, Size(3), Size(3).OrDefault(5))
}
