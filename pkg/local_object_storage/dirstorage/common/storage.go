package common

import "github.com/nspcc-dev/dirstore/pkg/local_object_storage/mode"

// Storage represents key-value object storage addressed by int64 IDs.
//
// Batch operations are positional: the i-th result corresponds to the i-th
// argument. Reading a missing key is not an error, nil payload is returned.
type Storage interface {
	// GenerateIDs reserves n unique IDs.
	GenerateIDs(n int) ([]int64, error)

	// Write stores the payload under a freshly allocated ID.
	Write(data []byte) (int64, error)
	// WriteBatch stores payloads under given IDs or, if ids is nil,
	// under freshly allocated ones. Caller-supplied IDs must be obtained
	// from GenerateIDs.
	WriteBatch(ids []int64, data [][]byte) ([]int64, error)

	Get(id int64) ([]byte, error)
	GetBatch(ids []int64) ([][]byte, error)

	// Remove deletes the record and releases its ID. Reports whether the
	// record existed.
	Remove(id int64) (bool, error)
	// RemoveBatch reports whether at least one record was removed.
	RemoveBatch(ids []int64) (bool, error)

	// Rebuild compacts the storage restoring the index from containers.
	Rebuild() (RebuildInfo, error)
	// MaxObjectSize returns maximum payload size a single Write accepts.
	MaxObjectSize() int64

	// IterateIDs calls f for every stored ID in unspecified order. Error
	// returned by f stops iteration and is returned as is.
	IterateIDs(f func(id int64) error) error
	Info() (Info, error)
	Mode() mode.Mode

	Close() error
}
