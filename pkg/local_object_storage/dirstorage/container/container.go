package container

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"github.com/nspcc-dev/dirstore/pkg/util/bytefile"
	"go.uber.org/zap"
)

// Header layout: [recordCount:int32][nextFreeOffset:int64].
const (
	recordCountOffset = 0
	nextFreeOffset    = recordCountOffset + bytefile.SizeInt32

	// HeaderSize is the size of the container header.
	HeaderSize = nextFreeOffset + bytefile.SizeInt64
)

var (
	// ErrCorrupted is returned when the container header is invalid.
	ErrCorrupted = errors.New("corrupted container")

	// ErrFull is returned when the records do not fit into the container.
	ErrFull = errors.New("container is full")
)

// Container is an append-only log of records stored in a single file.
// Removal only flips the record flag, the space is reclaimed by the storage
// rebuild.
type Container struct {
	*cfg

	path   string
	number int32

	recordCount int32
	nextFree    int64
}

func newContainer(path string, number int32, opts []Option) *Container {
	c := defaultCfg()
	for i := range opts {
		opts[i](c)
	}

	return &Container{
		cfg:    c,
		path:   path,
		number: number,
	}
}

// Create creates an empty container file at path, overwriting the existing
// one.
func Create(path string, number int32, opts ...Option) (*Container, error) {
	c := newContainer(path, number, opts)
	if c.readOnly {
		return nil, common.ErrReadOnly
	}

	c.nextFree = HeaderSize

	f, err := bytefile.Create(path, c.perm, c.noSync)
	if err != nil {
		return nil, fmt.Errorf("create container file: %w", err)
	}

	err = f.WriteBytes(0, c.encodeHeader())
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return nil, fmt.Errorf("init container file: %w", err)
	}

	c.log.Debug("container created",
		zap.String("path", path),
		zap.Int32("number", number))

	return c, nil
}

// Open opens existing container file and parses its header.
func Open(path string, number int32, opts ...Option) (*Container, error) {
	c := newContainer(path, number, opts)

	err := bytefile.View(path, func(f *bytefile.File) error {
		size, err := f.Size()
		if err != nil {
			return err
		}
		if size < HeaderSize {
			return fmt.Errorf("%w: file size %d is less than header", ErrCorrupted, size)
		}

		if c.recordCount, err = f.ReadInt32(recordCountOffset); err != nil {
			return err
		}
		if c.nextFree, err = f.ReadInt64(nextFreeOffset); err != nil {
			return err
		}

		if c.recordCount < 0 {
			return fmt.Errorf("%w: negative record count %d", ErrCorrupted, c.recordCount)
		}
		if c.nextFree < HeaderSize || c.nextFree > size {
			return fmt.Errorf("%w: next free offset %d is out of [%d, %d]", ErrCorrupted, c.nextFree, HeaderSize, size)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open container %q: %w", path, err)
	}

	return c, nil
}

func (c *Container) encodeHeader() []byte {
	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(b[recordCountOffset:], uint32(c.recordCount))
	binary.BigEndian.PutUint64(b[nextFreeOffset:], uint64(c.nextFree))
	return b
}

// Number returns the container sequence number.
func (c *Container) Number() int32 { return c.number }

// Path returns the container file path.
func (c *Container) Path() string { return c.path }

// Size returns the logical container size: header plus all records.
func (c *Container) Size() int64 { return c.nextFree }

// RecordCount returns the number of active records.
func (c *Container) RecordCount() int32 { return c.recordCount }

// NeededSpace returns the number of bytes a record with the given payload
// length occupies.
func NeededSpace(payloadLen int) int64 {
	return RecordHeaderSize + int64(payloadLen)
}

// WriteBytes appends count records starting at start index of ids and data
// and returns their addresses. All records are written with a single call,
// the header is updated after them.
func (c *Container) WriteBytes(ids []int64, data [][]byte, start, count int) ([]common.Address, error) {
	if c.readOnly {
		return nil, common.ErrReadOnly
	}
	if len(ids) != len(data) || start < 0 || count < 0 || start+count > len(ids) {
		return nil, fmt.Errorf("%w: range [%d:+%d] of %d IDs and %d payloads",
			common.ErrMalformedInput, start, count, len(ids), len(data))
	}
	if count == 0 {
		return []common.Address{}, nil
	}

	var total int64
	for i := start; i < start+count; i++ {
		total += NeededSpace(len(data[i]))
	}
	if c.nextFree+total > c.sizeLimit {
		return nil, fmt.Errorf("%w: %d bytes needed, %d left", ErrFull, total, c.sizeLimit-c.nextFree)
	}

	buf := make([]byte, 0, total)
	addrs := make([]common.Address, 0, count)
	for i := start; i < start+count; i++ {
		addrs = append(addrs, common.Address{Container: c.number, Offset: c.nextFree + int64(len(buf))})
		buf = appendRecord(buf, ids[i], data[i])
	}

	next := *c
	next.recordCount += int32(count)
	next.nextFree += total

	err := bytefile.Update(c.path, c.noSync, func(f *bytefile.File) error {
		if err := f.WriteBytes(c.nextFree, buf); err != nil {
			return err
		}
		return f.WriteBytes(0, next.encodeHeader())
	})
	if err != nil {
		return nil, fmt.Errorf("write to container %d: %w", c.number, err)
	}

	c.recordCount, c.nextFree = next.recordCount, next.nextFree

	return addrs, nil
}

// GetData reads records at the given offsets. Result contains nil for
// removed records and offsets that do not point to a record.
func (c *Container) GetData(offsets []int64) ([]*common.Record, error) {
	res := make([]*common.Record, len(offsets))
	if len(offsets) == 0 {
		return res, nil
	}

	err := bytefile.View(c.path, func(f *bytefile.File) error {
		for i := range offsets {
			h, ok, err := c.readRecordHeader(f, offsets[i], c.nextFree)
			if err != nil {
				return err
			}
			if !ok || h.flag != flagActive {
				continue
			}

			data, err := f.ReadBytes(offsets[i]+RecordHeaderSize, int(h.size))
			if err != nil {
				return err
			}

			res[i] = &common.Record{ID: h.id, Data: data}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read from container %d: %w", c.number, err)
	}

	return res, nil
}

// readRecordHeader reads the header of the record at off if the whole
// record lies within [HeaderSize, limit).
func (c *Container) readRecordHeader(f *bytefile.File, off, limit int64) (recordHeader, bool, error) {
	if off < HeaderSize || off+RecordHeaderSize > limit {
		return recordHeader{}, false, nil
	}

	raw, err := f.ReadBytes(off, RecordHeaderSize)
	if err != nil {
		return recordHeader{}, false, err
	}

	h := decodeRecordHeader(raw)
	if h.size < 0 || off+NeededSpace(int(h.size)) > limit {
		return h, false, nil
	}

	return h, true, nil
}

// RemoveBytes marks records at the given offsets as removed and returns the
// number of records that were active.
func (c *Container) RemoveBytes(offsets []int64) (int, error) {
	if c.readOnly {
		return 0, common.ErrReadOnly
	}
	if len(offsets) == 0 {
		return 0, nil
	}

	var removed int32

	err := bytefile.Update(c.path, c.noSync, func(f *bytefile.File) error {
		for i := range offsets {
			h, ok, err := c.readRecordHeader(f, offsets[i], c.nextFree)
			if err != nil {
				return err
			}
			if !ok || h.flag != flagActive {
				continue
			}

			if err := f.WriteInt8(offsets[i]+recordFlagOffset, flagRemoved); err != nil {
				return err
			}
			removed++
		}

		if removed == 0 {
			return nil
		}
		return f.WriteInt32(recordCountOffset, max(c.recordCount-removed, 0))
	})
	// flags could be flipped even on failure
	c.recordCount = max(c.recordCount-removed, 0)
	if err != nil {
		return int(removed), fmt.Errorf("remove from container %d: %w", c.number, err)
	}

	return int(removed), nil
}

// RecordInfo describes an active record found by the container scan.
type RecordInfo struct {
	Address common.Address
	ID      int64
	Size    int32
}

// Records scans the container and returns all active records in the file
// order. Scan stops after recordCount active records or at the first record
// that does not fit into the readable part of the file.
func (c *Container) Records() ([]RecordInfo, error) {
	var res []RecordInfo

	err := bytefile.View(c.path, func(f *bytefile.File) error {
		size, err := f.Size()
		if err != nil {
			return err
		}
		limit := min(size, c.nextFree)

		for off := int64(HeaderSize); int32(len(res)) < c.recordCount; {
			h, ok, err := c.readRecordHeader(f, off, limit)
			if err != nil {
				return err
			}
			if !ok {
				if off < limit {
					c.log.Warn("truncated record in container",
						zap.String("path", c.path),
						zap.Int64("offset", off))
				}
				break
			}

			if h.flag == flagActive {
				res = append(res, RecordInfo{
					Address: common.Address{Container: c.number, Offset: off},
					ID:      h.id,
					Size:    h.size,
				})
			}
			off += NeededSpace(int(h.size))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan container %d: %w", c.number, err)
	}

	return res, nil
}

// RecordsAddresses returns addresses of all active records, see Records.
func (c *Container) RecordsAddresses() ([]common.Address, error) {
	recs, err := c.Records()
	if err != nil {
		return nil, err
	}

	res := make([]common.Address, len(recs))
	for i := range recs {
		res[i] = recs[i].Address
	}
	return res, nil
}

// Iterate calls f for every active record in the container order.
func (c *Container) Iterate(f func(common.Address, *common.Record) error) error {
	addrs, err := c.RecordsAddresses()
	if err != nil {
		return err
	}

	offsets := make([]int64, len(addrs))
	for i := range addrs {
		offsets[i] = addrs[i].Offset
	}

	for len(offsets) > 0 {
		n := min(len(offsets), iterateBatch)

		recs, err := c.GetData(offsets[:n])
		if err != nil {
			return err
		}

		for i := range recs {
			if recs[i] == nil {
				continue
			}
			if err := f(common.Address{Container: c.number, Offset: offsets[i]}, recs[i]); err != nil {
				return err
			}
		}

		offsets = offsets[n:]
	}

	return nil
}
