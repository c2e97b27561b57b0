package container

import (
	"encoding/binary"

	"github.com/nspcc-dev/dirstore/pkg/util/bytefile"
)

// Record header layout: [flag:int8][id:int64][size:int32].
const (
	recordFlagOffset = 0
	recordIDOffset   = recordFlagOffset + bytefile.SizeInt8
	recordSizeOffset = recordIDOffset + bytefile.SizeInt64

	// RecordHeaderSize is the size of the record header preceding payload.
	RecordHeaderSize = recordSizeOffset + bytefile.SizeInt32
)

// Record flags. The only allowed transition is active to removed.
const (
	flagActive  int8 = 1
	flagRemoved int8 = -1
)

// iterateBatch limits the number of records read at once by Iterate.
const iterateBatch = 256

type recordHeader struct {
	flag int8
	id   int64
	size int32
}

func decodeRecordHeader(b []byte) recordHeader {
	return recordHeader{
		flag: int8(b[recordFlagOffset]),
		id:   int64(binary.BigEndian.Uint64(b[recordIDOffset:])),
		size: int32(binary.BigEndian.Uint32(b[recordSizeOffset:])),
	}
}

func appendRecord(b []byte, id int64, data []byte) []byte {
	b = append(b, byte(flagActive))
	b = binary.BigEndian.AppendUint64(b, uint64(id))
	b = binary.BigEndian.AppendUint32(b, uint32(len(data)))
	return append(b, data...)
}
