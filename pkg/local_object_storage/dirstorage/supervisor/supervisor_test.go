package supervisor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/container"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testMaxSize = 1000

func testOptions(t *testing.T, opts ...Option) []Option {
	return append([]Option{
		WithLogger(zaptest.NewLogger(t)),
		WithNoSync(true),
		WithMaxContainerSize(testMaxSize),
	}, opts...)
}

func payloads(n int, size int64) ([]int64, [][]byte) {
	ids := make([]int64, n)
	data := make([][]byte, n)
	for i := range n {
		ids[i] = int64(i)
		data[i] = make([]byte, size)
		data[i][0] = byte(i)
	}
	return ids, data
}

func TestSupervisor_MaxObjectSize(t *testing.T) {
	s, err := New(t.TempDir(), testOptions(t)...)
	require.NoError(t, err)

	require.EqualValues(t, 975, s.MaxObjectSize(1))
	require.EqualValues(t, 975, s.MaxObjectSize(0))
	require.EqualValues(t, 316, s.MaxObjectSize(3))
	require.EqualValues(t, 0, s.MaxObjectSize(1000))
}

func TestSupervisor_Packing(t *testing.T) {
	s, err := New(t.TempDir(), testOptions(t)...)
	require.NoError(t, err)
	require.Zero(t, s.ContainersCount())

	// (1000 - 12) / 13 empty records per container
	ids := make([]int64, 200)
	data := make([][]byte, 200)
	for i := range data {
		ids[i] = int64(i)
		data[i] = []byte{}
	}

	addrs, err := s.Put(ids, data)
	require.NoError(t, err)
	require.Equal(t, 3, s.ContainersCount())
	require.EqualValues(t, 0, addrs[75].Container)
	require.EqualValues(t, 1, addrs[76].Container)
	require.EqualValues(t, 2, addrs[199].Container)

	for _, c := range s.Containers() {
		require.LessOrEqual(t, c.Size, int64(testMaxSize))
	}
}

func TestSupervisor_Reuse(t *testing.T) {
	s, err := New(t.TempDir(), testOptions(t)...)
	require.NoError(t, err)

	ids, data := payloads(10, s.MaxObjectSize(1))
	addrs, err := s.Put(ids, data)
	require.NoError(t, err)
	require.Equal(t, 10, s.ContainersCount())

	for _, c := range s.Containers() {
		require.EqualValues(t, testMaxSize, c.Size)
	}

	n, err := s.Remove(addrs)
	require.NoError(t, err)
	require.Equal(t, 10, n)

	// removed space is not reused
	ids, data = payloads(10, s.MaxObjectSize(3))
	_, err = s.Put(ids, data)
	require.NoError(t, err)
	require.Equal(t, 10+(10+2)/3, s.ContainersCount())
}

func TestSupervisor_PutGetRemove(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir, testOptions(t)...)
	require.NoError(t, err)

	ids, data := payloads(5, 300)
	addrs, err := s.Put(ids, data)
	require.NoError(t, err)
	require.Len(t, addrs, 5)
	require.Equal(t, 2, s.ContainersCount())

	get := append([]common.Address{common.EmptyAddress}, addrs...)
	recs, err := s.Get(get)
	require.NoError(t, err)
	require.Nil(t, recs[0])
	for i := range addrs {
		require.Equal(t, &common.Record{ID: ids[i], Data: data[i]}, recs[i+1])
	}

	n, err := s.Remove([]common.Address{addrs[1], addrs[4], common.EmptyAddress})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	t.Run("reopen", func(t *testing.T) {
		s, err := Open(dir, testOptions(t)...)
		require.NoError(t, err)
		require.Equal(t, 2, s.ContainersCount())

		recs, err := s.Get(addrs)
		require.NoError(t, err)
		require.NotNil(t, recs[0])
		require.Nil(t, recs[1])
		require.Nil(t, recs[4])

		// appended to the last container
		more, err := s.Put([]int64{100}, [][]byte{{1}})
		require.NoError(t, err)
		require.EqualValues(t, 1, more[0].Container)
	})

	t.Run("unknown container", func(t *testing.T) {
		_, err := s.Get([]common.Address{{Container: 7, Offset: container.HeaderSize}})
		require.ErrorIs(t, err, common.ErrLostContainer)
	})

	t.Run("too large", func(t *testing.T) {
		before := s.ContainersCount()

		_, err := s.Put([]int64{1, 2}, [][]byte{{1}, make([]byte, s.MaxObjectSize(1)+1)})
		require.ErrorIs(t, err, common.ErrObjectTooLarge)
		require.Equal(t, before, s.ContainersCount())
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := s.Put([]int64{1}, nil)
		require.ErrorIs(t, err, common.ErrMalformedInput)
	})
}

func TestSupervisor_Open(t *testing.T) {
	t.Run("gap", func(t *testing.T) {
		dir := t.TempDir()

		s, err := New(dir, testOptions(t)...)
		require.NoError(t, err)
		ids, data := payloads(3, s.MaxObjectSize(1))
		_, err = s.Put(ids, data)
		require.NoError(t, err)

		require.NoError(t, os.Remove(filepath.Join(dir, "cont1")))

		_, err = Open(dir, testOptions(t)...)
		require.ErrorIs(t, err, common.ErrLostContainer)
		require.ErrorContains(t, err, "cont1")
	})

	t.Run("corrupted", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cont0"), []byte{1, 2}, 0o600))

		_, err := Open(dir, testOptions(t)...)
		require.ErrorIs(t, err, common.ErrLostContainer)
		require.ErrorIs(t, err, container.ErrCorrupted)
	})

	t.Run("new removes stale", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"cont0", "cont3", "cont0.temp", "other"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
		}

		s, err := New(dir, testOptions(t)...)
		require.NoError(t, err)
		require.Zero(t, s.ContainersCount())

		files, err := ListFiles(dir, DefaultPrefix, "")
		require.NoError(t, err)
		require.Empty(t, files)

		files, err = ListFiles(dir, DefaultPrefix, ".temp")
		require.NoError(t, err)
		require.Equal(t, []File{{Name: "cont0.temp", Number: 0}}, files)
	})

	t.Run("read-only", func(t *testing.T) {
		dir := t.TempDir()

		_, err := New(dir, testOptions(t, WithReadOnly(true))...)
		require.ErrorIs(t, err, common.ErrReadOnly)

		s, err := Open(dir, testOptions(t, WithReadOnly(true))...)
		require.NoError(t, err)

		_, err = s.Put([]int64{1}, [][]byte{{1}})
		require.ErrorIs(t, err, common.ErrReadOnly)
		_, err = s.Remove(nil)
		require.ErrorIs(t, err, common.ErrReadOnly)
	})
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cont10", "cont2", "cont02", "cont-1", "cont", "contx", "cont1.temp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "cont3"), 0o700))

	files, err := ListFiles(dir, "cont", "")
	require.NoError(t, err)
	require.Equal(t, []File{{Name: "cont2", Number: 2}, {Name: "cont10", Number: 10}}, files)
}

func TestSupervisor_PutPartial(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, testOptions(t)...)
	require.NoError(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(dir, s.Name(1)), 0o700))

	ids, data := payloads(2, 600)
	addrs, err := s.Put(ids, data)
	require.Error(t, err)
	require.Equal(t, []common.Address{{Container: 0, Offset: container.HeaderSize}}, addrs)

	recs, err := s.Get(addrs)
	require.NoError(t, err)
	require.Equal(t, data[0], recs[0].Data)
}
