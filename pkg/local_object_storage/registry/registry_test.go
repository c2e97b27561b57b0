package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/safestorage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRegistry(t *testing.T) *Registry {
	r := New(zaptest.NewLogger(t),
		safestorage.WithNoSync(true),
		safestorage.WithStorageOptions(dirstorage.WithMaxContainerSize(1000)),
	)
	t.Cleanup(func() { require.NoError(t, r.Close()) })
	return r
}

func TestRegistry(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()

	_, ok := r.Get(dir)
	require.False(t, ok)

	s, err := r.Create(dir)
	require.NoError(t, err)
	require.Equal(t, int64(975), s.MaxObjectSize())

	same, err := r.Open(filepath.Join(dir, "..", filepath.Base(dir)))
	require.NoError(t, err)
	require.Same(t, s, same)

	same, err = r.Create(dir)
	require.NoError(t, err)
	require.Same(t, s, same)

	got, ok := r.Get(dir)
	require.True(t, ok)
	require.Same(t, s, got)

	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(dir, link))

	got, ok = r.Get(link)
	require.True(t, ok)
	require.Same(t, s, got)

	id, err := s.Write([]byte("data"))
	require.NoError(t, err)

	require.NoError(t, r.Close())

	_, ok = r.Get(dir)
	require.False(t, ok)

	s, err = r.Open(dir)
	require.NoError(t, err)

	data, err := s.Get(id)
	require.NoError(t, err)
	require.Equal(t, []byte("data"), data)
}

func TestRegistry_OpenMissing(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Open(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	_, ok := r.Get(filepath.Join(t.TempDir(), "missing"))
	require.False(t, ok)
}
