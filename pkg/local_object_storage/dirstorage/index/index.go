package index

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"github.com/nspcc-dev/dirstore/pkg/util/bytefile"
	"go.uber.org/zap"
)

// FileName is a name of the index file inside storage directory.
const FileName = "ind"

// DefaultTableSize is a default number of hash buckets.
const DefaultTableSize = 10_000

// ErrCorrupted is returned when the index file has invalid layout or
// contains invalid pointers.
var ErrCorrupted = errors.New("corrupted index")

// Index is a disk-resident chained hash table mapping object IDs to the
// record addresses.
//
// The file consists of the bucket table, the arena end pointer and the cell
// arena: [head:int64 x H][endOfFile:int64][cell...]. Pointers are absolute
// byte offsets of cells, endPointer terminates a chain. Cells detached by
// Remove are never reused, only a storage rebuild creates a compact index.
type Index struct {
	*cfg

	path string
}

// Stats groups Index state values.
type Stats struct {
	TableSize int64
	// Cells is the number of allocated cells including detached ones.
	Cells int64
}

type chain struct {
	f *bytefile.File
	// firstCell is the offset of the cell arena, endOfFile is the first
	// byte after the last allocated cell
	firstCell, endOfFile int64
}

func newIndex(path string, opts []Option) (*Index, error) {
	c := defaultCfg()
	for i := range opts {
		opts[i](c)
	}

	if c.tableSize <= 0 {
		return nil, fmt.Errorf("invalid index table size %d", c.tableSize)
	}

	return &Index{
		cfg:  c,
		path: path,
	}, nil
}

// New creates an empty index file at path, overwriting the existing one.
func New(path string, opts ...Option) (*Index, error) {
	x, err := newIndex(path, opts)
	if err != nil {
		return nil, err
	}

	f, err := bytefile.Create(path, x.perm, x.noSync)
	if err != nil {
		return nil, fmt.Errorf("create index file: %w", err)
	}

	first := x.firstCell()
	buf := make([]byte, first)
	end := int64(endPointer)
	for i := range x.tableSize {
		binary.BigEndian.PutUint64(buf[i*bytefile.SizeInt64:], uint64(end))
	}
	binary.BigEndian.PutUint64(buf[x.endOfFileOffset():], uint64(first))

	err = f.WriteBytes(0, buf)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return nil, fmt.Errorf("init index file: %w", err)
	}

	x.log.Debug("index created",
		zap.String("path", path),
		zap.Int64("table size", x.tableSize))

	return x, nil
}

// Open opens existing index file and checks its header. Table size must be
// the same the index was created with.
func Open(path string, opts ...Option) (*Index, error) {
	x, err := newIndex(path, opts)
	if err != nil {
		return nil, err
	}

	err = bytefile.View(path, func(f *bytefile.File) error {
		_, err := x.openChain(f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	x.log.Debug("index opened", zap.String("path", path))

	return x, nil
}

func (x *Index) endOfFileOffset() int64 {
	return x.tableSize * bytefile.SizeInt64
}

func (x *Index) firstCell() int64 {
	return x.endOfFileOffset() + bytefile.SizeInt64
}

func (x *Index) bucketOffset(id int64) int64 {
	b := id % x.tableSize
	if b < 0 {
		b = -b
	}
	return b * bytefile.SizeInt64
}

func (x *Index) openChain(f *bytefile.File) (*chain, error) {
	size, err := f.Size()
	if err != nil {
		return nil, err
	}

	c := &chain{f: f, firstCell: x.firstCell()}
	if size < c.firstCell {
		return nil, fmt.Errorf("%w: file size %d is less than header of %d buckets", ErrCorrupted, size, x.tableSize)
	}

	c.endOfFile, err = f.ReadInt64(x.endOfFileOffset())
	if err != nil {
		return nil, err
	}

	if c.endOfFile < c.firstCell || c.endOfFile > size || (c.endOfFile-c.firstCell)%cellSize != 0 {
		return nil, fmt.Errorf("%w: invalid end of cells %d, file size %d", ErrCorrupted, c.endOfFile, size)
	}

	return c, nil
}

func (c *chain) cells() int64 {
	return (c.endOfFile - c.firstCell) / cellSize
}

// readPointer reads a pointer stored at the given offset and checks it
// refers to an allocated cell.
func (c *chain) readPointer(at int64) (int64, error) {
	p, err := c.f.ReadInt64(at)
	if err != nil {
		return 0, err
	}
	if p != endPointer && (p < c.firstCell || p >= c.endOfFile || (p-c.firstCell)%cellSize != 0) {
		return 0, fmt.Errorf("%w: invalid pointer %d at offset %d", ErrCorrupted, p, at)
	}
	return p, nil
}

// find looks for the cell of id in the chain starting at the given bucket.
// Returns the cell offset (or endPointer) and the offset of the link
// pointing to it. If the cell is absent, the link is the chain tail.
func (c *chain) find(bucket, id int64) (cellOff int64, link int64, _ cell, _ error) {
	link = bucket
	p, err := c.readPointer(link)
	if err != nil {
		return 0, 0, cell{}, err
	}

	for steps := int64(0); p != endPointer; steps++ {
		if steps >= c.cells() {
			return 0, 0, cell{}, fmt.Errorf("%w: loop in bucket chain at offset %d", ErrCorrupted, bucket)
		}

		raw, err := c.f.ReadBytes(p, cellSize)
		if err != nil {
			return 0, 0, cell{}, err
		}

		cl := decodeCell(raw)
		if cl.id == id {
			return p, link, cl, nil
		}

		link = p + cellNextOffset
		if p, err = c.readPointer(link); err != nil {
			return 0, 0, cell{}, err
		}
	}

	return endPointer, link, cell{}, nil
}

// Get returns addresses of the given IDs. common.EmptyAddress is returned
// for the absent ones.
func (x *Index) Get(ids []int64) ([]common.Address, error) {
	if len(ids) == 0 {
		return []common.Address{}, nil
	}

	res := make([]common.Address, len(ids))

	err := bytefile.View(x.path, func(f *bytefile.File) error {
		c, err := x.openChain(f)
		if err != nil {
			return err
		}

		for i := range ids {
			off, _, cl, err := c.find(x.bucketOffset(ids[i]), ids[i])
			if err != nil {
				return err
			}
			if off == endPointer {
				res[i] = common.EmptyAddress
				continue
			}
			res[i] = cl.addr
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index get: %w", err)
	}

	return res, nil
}

// Put maps IDs to addresses. Existing mappings are overwritten in place,
// new cells are appended to the arena and linked to the chain tail.
func (x *Index) Put(ids []int64, addrs []common.Address) error {
	if len(ids) != len(addrs) {
		return fmt.Errorf("%w: %d IDs and %d addresses", common.ErrMalformedInput, len(ids), len(addrs))
	}
	if len(ids) == 0 {
		return nil
	}

	err := bytefile.Update(x.path, x.noSync, func(f *bytefile.File) error {
		c, err := x.openChain(f)
		if err != nil {
			return err
		}

		for i := range ids {
			if err := x.put(c, ids[i], addrs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("index put: %w", err)
	}

	return nil
}

func (x *Index) put(c *chain, id int64, addr common.Address) error {
	off, link, _, err := c.find(x.bucketOffset(id), id)
	if err != nil {
		return err
	}

	if off != endPointer {
		return c.f.WriteBytes(off+cellAddressOffset, encodeAddress(addr))
	}

	// cell, then arena end, then link: a crash leaves either a detached
	// cell or nothing at all
	off = c.endOfFile
	if err := c.f.WriteBytes(off, encodeCell(cell{next: endPointer, id: id, addr: addr})); err != nil {
		return err
	}
	if err := c.f.WriteInt64(x.endOfFileOffset(), off+cellSize); err != nil {
		return err
	}
	c.endOfFile = off + cellSize

	return c.f.WriteInt64(link, off)
}

// Remove unlinks cells of the given IDs. Absent IDs are ignored.
func (x *Index) Remove(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	err := bytefile.Update(x.path, x.noSync, func(f *bytefile.File) error {
		c, err := x.openChain(f)
		if err != nil {
			return err
		}

		for i := range ids {
			off, link, cl, err := c.find(x.bucketOffset(ids[i]), ids[i])
			if err != nil {
				return err
			}
			if off == endPointer {
				continue
			}
			if err := c.f.WriteInt64(link, cl.next); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("index remove: %w", err)
	}

	return nil
}

// Iterate calls f for every mapped ID. Error returned by f stops iteration
// and is returned as is.
func (x *Index) Iterate(f func(id int64, addr common.Address) error) error {
	var handlerErr error

	err := bytefile.View(x.path, func(file *bytefile.File) error {
		c, err := x.openChain(file)
		if err != nil {
			return err
		}

		// single pass over all chains can't be longer than the arena
		var steps int64
		for b := range x.tableSize {
			p, err := c.readPointer(b * bytefile.SizeInt64)
			if err != nil {
				return err
			}

			for p != endPointer {
				if steps++; steps > c.cells() {
					return fmt.Errorf("%w: loop in bucket chain %d", ErrCorrupted, b)
				}

				raw, err := file.ReadBytes(p, cellSize)
				if err != nil {
					return err
				}

				cl := decodeCell(raw)
				if handlerErr = f(cl.id, cl.addr); handlerErr != nil {
					return handlerErr
				}

				if p, err = c.readPointer(p + cellNextOffset); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if handlerErr != nil {
		return handlerErr
	}
	if err != nil {
		return fmt.Errorf("index iterate: %w", err)
	}

	return nil
}

// Stats returns current index state.
func (x *Index) Stats() (Stats, error) {
	var st Stats

	err := bytefile.View(x.path, func(f *bytefile.File) error {
		c, err := x.openChain(f)
		if err != nil {
			return err
		}
		st.TableSize = x.tableSize
		st.Cells = c.cells()
		return nil
	})

	return st, err
}
