package index

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestIndex(t *testing.T, opts ...Option) *Index {
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithNoSync(true)}, opts...)
	x, err := New(filepath.Join(t.TempDir(), FileName), opts...)
	require.NoError(t, err)
	return x
}

func addr(c int32, off int64) common.Address {
	return common.Address{Container: c, Offset: off}
}

func TestIndex_PutGet(t *testing.T) {
	x := newTestIndex(t, WithTableSize(7))

	res, err := x.Get([]int64{1, -1})
	require.NoError(t, err)
	require.Equal(t, []common.Address{common.EmptyAddress, common.EmptyAddress}, res)

	// 3, 10, -10 and 17 share a bucket
	ids := []int64{3, 10, -10, 17, 5}
	addrs := []common.Address{addr(0, 12), addr(0, 30), addr(1, 12), addr(2, 100), addr(3, 12)}
	require.NoError(t, x.Put(ids, addrs))

	res, err = x.Get(append(ids, 24))
	require.NoError(t, err)
	require.Equal(t, append(addrs, common.EmptyAddress), res)

	st, err := x.Stats()
	require.NoError(t, err)
	require.EqualValues(t, 7, st.TableSize)
	require.EqualValues(t, 5, st.Cells)

	t.Run("overwrite in place", func(t *testing.T) {
		require.NoError(t, x.Put([]int64{10}, []common.Address{addr(9, 99)}))

		res, err := x.Get([]int64{10, 3, 17})
		require.NoError(t, err)
		require.Equal(t, []common.Address{addr(9, 99), addr(0, 12), addr(2, 100)}, res)

		st, err := x.Stats()
		require.NoError(t, err)
		require.EqualValues(t, 5, st.Cells)
	})

	t.Run("last write in batch wins", func(t *testing.T) {
		require.NoError(t, x.Put([]int64{40, 40}, []common.Address{addr(1, 1), addr(2, 2)}))

		res, err := x.Get([]int64{40})
		require.NoError(t, err)
		require.Equal(t, []common.Address{addr(2, 2)}, res)
	})

	t.Run("length mismatch", func(t *testing.T) {
		require.ErrorIs(t, x.Put([]int64{1}, nil), common.ErrMalformedInput)
	})
}

func TestIndex_Remove(t *testing.T) {
	x := newTestIndex(t, WithTableSize(5))

	ids := []int64{1, 6, 11, 16}
	addrs := []common.Address{addr(0, 1), addr(0, 6), addr(0, 11), addr(0, 16)}
	require.NoError(t, x.Put(ids, addrs))

	// middle, head and tail of the same chain
	require.NoError(t, x.Remove([]int64{6}))
	require.NoError(t, x.Remove([]int64{1, 16, 100}))

	res, err := x.Get(ids)
	require.NoError(t, err)
	require.Equal(t, []common.Address{common.EmptyAddress, common.EmptyAddress, addr(0, 11), common.EmptyAddress}, res)

	// cells are leaked
	st, err := x.Stats()
	require.NoError(t, err)
	require.EqualValues(t, 4, st.Cells)

	require.NoError(t, x.Put([]int64{6}, []common.Address{addr(4, 4)}))

	res, err = x.Get([]int64{6, 11})
	require.NoError(t, err)
	require.Equal(t, []common.Address{addr(4, 4), addr(0, 11)}, res)
}

func TestIndex_Iterate(t *testing.T) {
	x := newTestIndex(t, WithTableSize(3))

	exp := map[int64]common.Address{
		-4: addr(0, 1),
		0:  addr(0, 2),
		3:  addr(1, 3),
		7:  addr(2, 4),
	}
	for id, a := range exp {
		require.NoError(t, x.Put([]int64{id}, []common.Address{a}))
	}
	require.NoError(t, x.Remove([]int64{3}))
	delete(exp, 3)

	got := make(map[int64]common.Address)
	require.NoError(t, x.Iterate(func(id int64, a common.Address) error {
		got[id] = a
		return nil
	}))
	require.Equal(t, exp, got)

	errStop := errors.New("stop")
	var n int
	err := x.Iterate(func(int64, common.Address) error {
		n++
		return errStop
	})
	require.ErrorIs(t, err, errStop)
	require.Equal(t, 1, n)
}

func TestIndex_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	x, err := New(path, WithTableSize(11))
	require.NoError(t, err)
	require.NoError(t, x.Put([]int64{42}, []common.Address{addr(1, 2)}))

	_, err = Open(path, WithTableSize(12))
	require.ErrorIs(t, err, ErrCorrupted)

	x, err = Open(path, WithTableSize(11))
	require.NoError(t, err)

	res, err := x.Get([]int64{42})
	require.NoError(t, err)
	require.Equal(t, []common.Address{addr(1, 2)}, res)

	_, err = New(path, WithTableSize(0))
	require.Error(t, err)
}

func TestIndex_Corrupted(t *testing.T) {
	const tableSize = 4

	newCorrupted := func(t *testing.T, corrupt func(raw []byte)) *Index {
		path := filepath.Join(t.TempDir(), FileName)

		x, err := New(path, WithTableSize(tableSize))
		require.NoError(t, err)
		require.NoError(t, x.Put([]int64{1, 5}, []common.Address{addr(0, 1), addr(0, 5)}))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		corrupt(raw)
		require.NoError(t, os.WriteFile(path, raw, 0o600))

		return x
	}

	first := int64(tableSize*8 + 8)

	t.Run("pointer out of arena", func(t *testing.T) {
		x := newCorrupted(t, func(raw []byte) {
			binary.BigEndian.PutUint64(raw[8:], uint64(first+1000*cellSize))
		})

		_, err := x.Get([]int64{1})
		require.ErrorIs(t, err, ErrCorrupted)
		require.ErrorIs(t, x.Put([]int64{9}, []common.Address{addr(0, 0)}), ErrCorrupted)
	})

	t.Run("misaligned pointer", func(t *testing.T) {
		x := newCorrupted(t, func(raw []byte) {
			binary.BigEndian.PutUint64(raw[8:], uint64(first+3))
		})

		_, err := x.Get([]int64{5})
		require.ErrorIs(t, err, ErrCorrupted)
	})

	t.Run("loop", func(t *testing.T) {
		x := newCorrupted(t, func(raw []byte) {
			// second cell points back to the first one
			binary.BigEndian.PutUint64(raw[first+cellSize:], uint64(first))
		})

		_, err := x.Get([]int64{9})
		require.ErrorIs(t, err, ErrCorrupted)
		require.ErrorIs(t, x.Iterate(func(int64, common.Address) error { return nil }), ErrCorrupted)
	})

	t.Run("end of file", func(t *testing.T) {
		x := newCorrupted(t, func(raw []byte) {
			binary.BigEndian.PutUint64(raw[tableSize*8:], uint64(first+100*cellSize))
		})

		_, err := x.Get([]int64{1})
		require.ErrorIs(t, err, ErrCorrupted)
	})
}

func TestIndex_NewLayout(t *testing.T) {
	const tableSize = 4
	x := newTestIndex(t, WithTableSize(tableSize))

	b, err := os.ReadFile(x.path)
	require.NoError(t, err)
	require.Len(t, b, (tableSize+1)*8)

	for i := range tableSize {
		require.EqualValues(t, -1, int64(binary.BigEndian.Uint64(b[i*8:])), "bucket %d", i)
	}
	require.EqualValues(t, (tableSize+1)*8, binary.BigEndian.Uint64(b[tableSize*8:]))
}
