package index

import (
	"encoding/binary"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"github.com/nspcc-dev/dirstore/pkg/util/bytefile"
)

// endPointer terminates bucket chains.
const endPointer = -1

// Cell layout: [next:int64][id:int64][container:int32][offset:int64].
const (
	cellNextOffset      = 0
	cellIDOffset        = cellNextOffset + bytefile.SizeInt64
	cellAddressOffset   = cellIDOffset + bytefile.SizeInt64
	cellContainerOffset = cellAddressOffset
	cellPositionOffset  = cellContainerOffset + bytefile.SizeInt32

	cellSize = cellPositionOffset + bytefile.SizeInt64
)

type cell struct {
	next int64
	id   int64
	addr common.Address
}

func decodeCell(b []byte) cell {
	return cell{
		next: int64(binary.BigEndian.Uint64(b[cellNextOffset:])),
		id:   int64(binary.BigEndian.Uint64(b[cellIDOffset:])),
		addr: common.Address{
			Container: int32(binary.BigEndian.Uint32(b[cellContainerOffset:])),
			Offset:    int64(binary.BigEndian.Uint64(b[cellPositionOffset:])),
		},
	}
}

func encodeCell(c cell) []byte {
	b := make([]byte, cellSize)
	binary.BigEndian.PutUint64(b[cellNextOffset:], uint64(c.next))
	binary.BigEndian.PutUint64(b[cellIDOffset:], uint64(c.id))
	copy(b[cellAddressOffset:], encodeAddress(c.addr))
	return b
}

func encodeAddress(a common.Address) []byte {
	b := make([]byte, cellSize-cellAddressOffset)
	binary.BigEndian.PutUint32(b, uint32(a.Container))
	binary.BigEndian.PutUint64(b[bytefile.SizeInt32:], uint64(a.Offset))
	return b
}
