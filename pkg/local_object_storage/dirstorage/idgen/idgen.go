package idgen

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"github.com/nspcc-dev/dirstore/pkg/util/bytefile"
	"go.uber.org/zap"
)

// FileName is a name of the generator file inside storage directory.
const FileName = "gen"

// File layout: [counter:int64][freeCount:int64][freeID:int64 x freeCount].
const (
	counterOffset   = 0
	freeCountOffset = counterOffset + bytefile.SizeInt64
	freeListOffset  = freeCountOffset + bytefile.SizeInt64
)

// ErrCorrupted is returned when the generator file has invalid layout.
var ErrCorrupted = errors.New("corrupted ID generator file")

// Generator hands out unique int64 IDs from the configured range and
// recycles released ones in LIFO order. Its whole state lives in a single
// file which is opened for every call.
type Generator struct {
	*cfg

	path string
}

func newGenerator(path string, opts []Option) (*Generator, error) {
	c := defaultCfg()
	for i := range opts {
		opts[i](c)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return &Generator{
		cfg:  c,
		path: path,
	}, nil
}

// New creates a fresh generator file at path, overwriting the existing one.
// The first allocated ID is the lower bound of the range.
func New(path string, opts ...Option) (*Generator, error) {
	g, err := newGenerator(path, opts)
	if err != nil {
		return nil, err
	}

	f, err := bytefile.Create(path, g.perm, g.noSync)
	if err != nil {
		return nil, fmt.Errorf("create ID generator file: %w", err)
	}

	hdr := make([]byte, freeListOffset)
	binary.BigEndian.PutUint64(hdr[counterOffset:], uint64(g.minID))

	err = f.WriteBytes(0, hdr)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return nil, fmt.Errorf("init ID generator file: %w", err)
	}

	g.log.Debug("ID generator created", zap.String("path", path))

	return g, nil
}

// Open opens existing generator file and checks its layout.
func Open(path string, opts ...Option) (*Generator, error) {
	g, err := newGenerator(path, opts)
	if err != nil {
		return nil, err
	}

	err = bytefile.View(path, func(f *bytefile.File) error {
		_, _, err := g.readState(f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("open ID generator: %w", err)
	}

	g.log.Debug("ID generator opened", zap.String("path", path))

	return g, nil
}

func (g *Generator) readState(f *bytefile.File) (counter, free int64, err error) {
	size, err := f.Size()
	if err != nil {
		return 0, 0, err
	}
	if size < freeListOffset {
		return 0, 0, fmt.Errorf("%w: file size %d is less than header", ErrCorrupted, size)
	}

	counter, err = f.ReadInt64(counterOffset)
	if err != nil {
		return 0, 0, err
	}

	free, err = f.ReadInt64(freeCountOffset)
	if err != nil {
		return 0, 0, err
	}

	if free < 0 || free > (size-freeListOffset)/bytefile.SizeInt64 {
		return 0, 0, fmt.Errorf("%w: free list length %d does not fit file size %d", ErrCorrupted, free, size)
	}

	return counter, free, nil
}

// Allocate returns count unique IDs. Released IDs are reused first, most
// recently released one first, then the counter is advanced.
//
// Allocation is all-or-nothing: if the free list and the rest of the range
// can not satisfy the request, common.ErrIDExhausted is returned and the
// state is left untouched.
func (g *Generator) Allocate(count int) ([]int64, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative number of IDs %d", common.ErrMalformedInput, count)
	}
	if count == 0 {
		return []int64{}, nil
	}

	var ids []int64

	err := bytefile.Update(g.path, g.noSync, func(f *bytefile.File) error {
		counter, free, err := g.readState(f)
		if err != nil {
			return err
		}

		fromList := min(int64(count), free)
		fromCounter := int64(count) - fromList

		if fromCounter > 0 && !g.available(counter, fromCounter) {
			return fmt.Errorf("%w: requested %d, free list %d, counter %d, upper bound %d",
				common.ErrIDExhausted, count, free, counter, g.maxID)
		}

		res := make([]int64, 0, count)

		if fromList > 0 {
			raw, err := f.ReadBytes(freeListOffset+bytefile.SizeInt64*(free-fromList), int(bytefile.SizeInt64*fromList))
			if err != nil {
				return err
			}
			for i := fromList - 1; i >= 0; i-- {
				res = append(res, int64(binary.BigEndian.Uint64(raw[bytefile.SizeInt64*i:])))
			}
		}

		for i := range fromCounter {
			res = append(res, counter+i)
		}

		if fromCounter > 0 {
			if err := f.WriteInt64(counterOffset, counter+fromCounter); err != nil {
				return err
			}
		}
		if fromList > 0 {
			if err := f.WriteInt64(freeCountOffset, free-fromList); err != nil {
				return err
			}
		}

		ids = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("allocate IDs: %w", err)
	}

	return ids, nil
}

// available checks whether n > 0 IDs can be taken from the counter.
func (g *Generator) available(counter, n int64) bool {
	if counter > g.maxID {
		return false
	}
	return uint64(n-1) <= uint64(g.maxID)-uint64(counter)
}

// Release returns IDs to the free list. Uniqueness is not checked: an ID
// released twice will be handed out twice.
func (g *Generator) Release(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	buf := make([]byte, bytefile.SizeInt64*len(ids))
	for i := range ids {
		binary.BigEndian.PutUint64(buf[bytefile.SizeInt64*i:], uint64(ids[i]))
	}

	err := bytefile.Update(g.path, g.noSync, func(f *bytefile.File) error {
		_, free, err := g.readState(f)
		if err != nil {
			return err
		}

		// list tail first, it becomes visible with the new count only
		if err := f.WriteBytes(freeListOffset+bytefile.SizeInt64*free, buf); err != nil {
			return err
		}
		return f.WriteInt64(freeCountOffset, free+int64(len(ids)))
	})
	if err != nil {
		return fmt.Errorf("release IDs: %w", err)
	}

	return nil
}

// Forget removes IDs contained in live from the free list and returns the
// number of removed entries. The list is emptied before being rewritten, so
// an interrupted call can only lose free IDs, never hand out a live one.
func (g *Generator) Forget(live map[int64]struct{}) (int, error) {
	var removed int

	err := bytefile.Update(g.path, g.noSync, func(f *bytefile.File) error {
		_, free, err := g.readState(f)
		if err != nil || free == 0 {
			return err
		}

		raw, err := f.ReadBytes(freeListOffset, int(bytefile.SizeInt64*free))
		if err != nil {
			return err
		}

		kept := raw[:0]
		for i := range free {
			id := raw[bytefile.SizeInt64*i : bytefile.SizeInt64*(i+1)]
			if _, ok := live[int64(binary.BigEndian.Uint64(id))]; ok {
				continue
			}
			kept = append(kept, id...)
		}

		removed = int(free) - len(kept)/bytefile.SizeInt64
		if removed == 0 {
			return nil
		}

		if err := f.WriteInt64(freeCountOffset, 0); err != nil {
			return err
		}
		if err := f.WriteBytes(freeListOffset, kept); err != nil {
			return err
		}
		return f.WriteInt64(freeCountOffset, int64(len(kept)/bytefile.SizeInt64))
	})
	if err != nil {
		return 0, fmt.Errorf("forget IDs: %w", err)
	}

	return removed, nil
}

// State returns the counter value and the free list length.
func (g *Generator) State() (counter int64, free int64, err error) {
	err = bytefile.View(g.path, func(f *bytefile.File) error {
		counter, free, err = g.readState(f)
		return err
	})
	return
}
