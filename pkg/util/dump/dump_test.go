package dump

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.db")

	db, err := Open(path, false)
	require.NoError(t, err)

	n, err := db.Count()
	require.NoError(t, err)
	require.Zero(t, n)

	data, err := db.Get(1)
	require.NoError(t, err)
	require.Nil(t, data)

	n, err = db.PutBatch([]int64{-5, 1, 2}, [][]byte{[]byte("neg"), nil, {}})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.NoError(t, db.Close())

	db, err = Open(path, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	data, err = db.Get(-5)
	require.NoError(t, err)
	require.Equal(t, []byte("neg"), data)

	data, err = db.Get(1)
	require.NoError(t, err)
	require.Nil(t, data)

	data, err = db.Get(2)
	require.NoError(t, err)
	require.NotNil(t, data)
	require.Empty(t, data)

	n, err = db.Count()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfb}, Key(-5))
}
