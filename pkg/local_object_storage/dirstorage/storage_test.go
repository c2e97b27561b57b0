package dirstorage

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/index"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/mode"
	"github.com/nspcc-dev/dirstore/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testContainerSize = 1000

func testOptions(t *testing.T, opts ...Option) []Option {
	return append([]Option{
		WithLogger(zaptest.NewLogger(t)),
		WithNoSync(true),
		WithMaxContainerSize(testContainerSize),
		WithIndexTableSize(97),
	}, opts...)
}

func newTestStorage(t *testing.T, opts ...Option) *Storage {
	s, err := New(t.TempDir(), testOptions(t, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func payload(i, size int) []byte {
	return bytes.Repeat([]byte{byte(i)}, size)
}

func containersRecords(t *testing.T, s *Storage) int {
	info, err := s.Info()
	require.NoError(t, err)

	var n int
	for _, c := range info.Containers {
		n += int(c.Records)
	}
	return n
}

func TestStorage_WriteGet(t *testing.T) {
	s := newTestStorage(t)

	id, err := s.Write([]byte("hello"))
	require.NoError(t, err)

	empty, err := s.Write([]byte{})
	require.NoError(t, err)
	require.NotEqual(t, id, empty)

	data, err := s.Get(id)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	data, err = s.Get(empty)
	require.NoError(t, err)
	require.NotNil(t, data)
	require.Empty(t, data)

	data, err = s.Get(id + 100)
	require.NoError(t, err)
	require.Nil(t, data)

	res, err := s.GetBatch([]int64{empty, id + 100, id})
	require.NoError(t, err)
	require.Equal(t, [][]byte{{}, nil, []byte("hello")}, res)

	res, err = s.GetBatch(nil)
	require.NoError(t, err)
	require.Empty(t, res)
}

func TestStorage_WriteBatchValidation(t *testing.T) {
	s := newTestStorage(t)

	ids, err := s.GenerateIDs(2)
	require.NoError(t, err)

	for name, tc := range map[string]struct {
		ids  []int64
		data [][]byte
		err  error
	}{
		"length mismatch": {ids: ids, data: [][]byte{{1}}, err: common.ErrMalformedInput},
		"nil payload":     {data: [][]byte{{1}, nil}, err: common.ErrMalformedInput},
		"duplicate IDs":   {ids: []int64{ids[0], ids[0]}, data: [][]byte{{1}, {2}}, err: common.ErrMalformedInput},
		"too large":       {data: [][]byte{{1}, make([]byte, s.MaxObjectSize()+1)}, err: common.ErrObjectTooLarge},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.WriteBatch(tc.ids, tc.data)
			require.ErrorIs(t, err, tc.err)
		})
	}

	info, err := s.Info()
	require.NoError(t, err)
	require.Empty(t, info.Containers)
	require.EqualValues(t, ids[1]+1, info.NextID, "IDs must not be consumed")

	res, err := s.WriteBatch(nil, nil)
	require.NoError(t, err)
	require.Empty(t, res)

	res, err = s.WriteBatch(nil, [][]byte{make([]byte, s.MaxObjectSize())})
	require.NoError(t, err)
	require.Len(t, res, 1)
}

func TestStorage_Overwrite(t *testing.T) {
	s := newTestStorage(t)

	ids, err := s.GenerateIDs(2)
	require.NoError(t, err)

	res, err := s.WriteBatch(ids, [][]byte{[]byte("a1"), []byte("b1")})
	require.NoError(t, err)
	require.Equal(t, ids, res)

	_, err = s.WriteBatch(ids[:1], [][]byte{[]byte("a2")})
	require.NoError(t, err)

	data, err := s.GetBatch(ids)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("a2"), []byte("b1")}, data)

	// replaced record is tombstoned
	require.Equal(t, 2, containersRecords(t, s))
}

func TestStorage_Remove(t *testing.T) {
	s := newTestStorage(t)

	ids, err := s.WriteBatch(nil, [][]byte{{1}, {2}, {3}})
	require.NoError(t, err)

	ok, err := s.Remove(ids[1])
	require.NoError(t, err)
	require.True(t, ok)

	data, err := s.Get(ids[1])
	require.NoError(t, err)
	require.Nil(t, data)

	ok, err = s.Remove(ids[1])
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.RemoveBatch([]int64{ids[1], ids[2], ids[2]})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.RemoveBatch(nil)
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, 1, containersRecords(t, s))

	// the latest released ID comes first
	id, err := s.Write([]byte{4})
	require.NoError(t, err)
	require.Equal(t, ids[2], id)

	data, err = s.Get(id)
	require.NoError(t, err)
	require.Equal(t, []byte{4}, data)
}

func TestStorage_Packing(t *testing.T) {
	s := newTestStorage(t)
	require.EqualValues(t, 975, s.MaxObjectSize())

	data := make([][]byte, 10)
	for i := range data {
		data[i] = payload(i, int(s.MaxObjectSize()))
	}

	ids, err := s.WriteBatch(nil, data)
	require.NoError(t, err)

	info, err := s.Info()
	require.NoError(t, err)
	require.Len(t, info.Containers, 10)

	ok, err := s.RemoveBatch(ids)
	require.NoError(t, err)
	require.True(t, ok)

	for i := range data {
		data[i] = payload(i, 316)
	}
	_, err = s.WriteBatch(nil, data)
	require.NoError(t, err)

	info, err = s.Info()
	require.NoError(t, err)
	require.Len(t, info.Containers, 14)

	info2, err := s.Rebuild()
	require.NoError(t, err)
	require.Empty(t, info2.LostContainers)
	require.Equal(t, 10, info2.Records)
	require.Equal(t, 4, info2.Containers)
}

func TestStorage_Reopen(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir, testOptions(t)...)
	require.NoError(t, err)

	ids, err := s.WriteBatch(nil, [][]byte{[]byte("x"), []byte("y")})
	require.NoError(t, err)
	_, err = s.Remove(ids[0])
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Get(ids[1])
	require.ErrorIs(t, err, ErrClosed)

	s, err = Open(dir, testOptions(t)...)
	require.NoError(t, err)

	data, err := s.GetBatch(ids)
	require.NoError(t, err)
	require.Equal(t, [][]byte{nil, []byte("y")}, data)

	id, err := s.Write([]byte("z"))
	require.NoError(t, err)
	require.Equal(t, ids[0], id)

	t.Run("wrong index table size", func(t *testing.T) {
		_, err := Open(dir, testOptions(t, WithIndexTableSize(98))...)
		require.ErrorIs(t, err, index.ErrCorrupted)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "missing"), testOptions(t)...)
		require.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("not a directory", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "gen"), testOptions(t)...)
		require.ErrorIs(t, err, ErrNotDirectory)
	})
}

func TestStorage_ReadOnly(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir, testOptions(t)...)
	require.NoError(t, err)
	id, err := s.Write([]byte("ro"))
	require.NoError(t, err)

	_, err = New(dir, testOptions(t, WithMode(mode.ReadOnly))...)
	require.ErrorIs(t, err, common.ErrReadOnly)

	ro, err := Open(dir, testOptions(t, WithMode(mode.ReadOnly))...)
	require.NoError(t, err)
	require.Equal(t, mode.ReadOnly, ro.Mode())

	data, err := ro.Get(id)
	require.NoError(t, err)
	require.Equal(t, []byte("ro"), data)

	_, err = ro.Write([]byte{1})
	require.ErrorIs(t, err, common.ErrReadOnly)
	_, err = ro.Remove(id)
	require.ErrorIs(t, err, common.ErrReadOnly)
	_, err = ro.GenerateIDs(1)
	require.ErrorIs(t, err, common.ErrReadOnly)
	_, err = ro.Rebuild()
	require.ErrorIs(t, err, common.ErrReadOnly)
}

func TestStorage_AddressCache(t *testing.T) {
	s := newTestStorage(t, WithAddressCacheSize(2))

	ids, err := s.WriteBatch(nil, [][]byte{{1}, {2}, {3}})
	require.NoError(t, err)

	for range 2 {
		data, err := s.GetBatch(ids)
		require.NoError(t, err)
		require.Equal(t, [][]byte{{1}, {2}, {3}}, data)
	}

	_, err = s.Remove(ids[2])
	require.NoError(t, err)

	data, err := s.Get(ids[2])
	require.NoError(t, err)
	require.Nil(t, data)

	_, err = s.Rebuild()
	require.NoError(t, err)

	data, err = s.Get(ids[0])
	require.NoError(t, err)
	require.Equal(t, []byte{1}, data)
}

func TestStorage_IterateIDs(t *testing.T) {
	s := newTestStorage(t)

	ids, err := s.WriteBatch(nil, [][]byte{{1}, {2}, {3}})
	require.NoError(t, err)
	_, err = s.Remove(ids[0])
	require.NoError(t, err)

	var got []int64
	require.NoError(t, s.IterateIDs(func(id int64) error {
		got = append(got, id)
		return nil
	}))
	require.ElementsMatch(t, ids[1:], got)
}

func TestStorage_Metrics(t *testing.T) {
	dir := t.TempDir()
	reg := prometheus.NewRegistry()
	m := metrics.NewStorageMetrics(reg)

	s, err := New(dir, testOptions(t, WithMetrics(m))...)
	require.NoError(t, err)

	_, err = s.WriteBatch(nil, [][]byte{make([]byte, 10), make([]byte, 5)})
	require.NoError(t, err)
	_, err = s.Rebuild()
	require.NoError(t, err)

	expected := `
# HELP dirstore_storage_written_bytes_total Payload bytes accepted by write operations
# TYPE dirstore_storage_written_bytes_total counter
dirstore_storage_written_bytes_total{path="` + dir + `"} 15
`
	require.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(expected), "dirstore_storage_written_bytes_total"))
}

func TestStorage_NewOverwrites(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir, testOptions(t)...)
	require.NoError(t, err)
	id, err := s.Write([]byte("old"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cont5.temp"), nil, 0o600))

	s, err = New(dir, testOptions(t)...)
	require.NoError(t, err)

	data, err := s.Get(id)
	require.NoError(t, err)
	require.Nil(t, data)

	_, err = os.Stat(filepath.Join(dir, "cont5.temp"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}
