package common

import (
	"strconv"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/mode"
)

// Address is a physical location of a record: container number and byte
// offset of the record inside the container file.
type Address struct {
	Container int32
	Offset    int64
}

// EmptyAddress means "no such key".
var EmptyAddress = Address{Container: -1, Offset: -1}

// IsEmpty checks whether a is EmptyAddress.
func (a Address) IsEmpty() bool {
	return a == EmptyAddress
}

func (a Address) String() string {
	return strconv.FormatInt(int64(a.Container), 10) + ":" + strconv.FormatInt(a.Offset, 10)
}

// Record is an ID and payload pair read from a container.
type Record struct {
	ID   int64
	Data []byte
}

// RebuildInfo describes the result of the storage compaction.
type RebuildInfo struct {
	// LostContainers contains names of the containers that could not be
	// read. Records stored in them are gone.
	LostContainers []string
	// Records is the number of live records moved into the new containers.
	Records int
	// Containers is the number of containers after the rebuild.
	Containers int
}

// ContainerInfo describes single container file.
type ContainerInfo struct {
	Number  int32
	Name    string
	Records int32
	Size    int64
}

// Info groups storage state values.
type Info struct {
	Path string
	Mode mode.Mode

	MaxContainerSize int64
	MaxObjectSize    int64
	Containers       []ContainerInfo

	// NextID is the ID counter value, it is handed out after the free list
	// is drained.
	NextID  int64
	FreeIDs int64

	IndexTableSize int64
	// IndexCells is the number of allocated index cells including the
	// ones detached by removals.
	IndexCells int64
}
