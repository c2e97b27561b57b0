package dirstorage

import (
	"time"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	storagelog "github.com/nspcc-dev/dirstore/pkg/local_object_storage/internal/log"
)

// Remove deletes the object and releases its ID. Returns false if there
// is no such ID.
func (s *Storage) Remove(id int64) (bool, error) {
	return s.RemoveBatch([]int64{id})
}

// RemoveBatch deletes objects and releases their IDs. Missing IDs are
// ignored. Returns true if at least one object was removed.
//
// Records are tombstoned before their index entries are dropped and IDs
// are released last, so an interrupted call never leaves a free ID that
// still refers to live data.
func (s *Storage) RemoveBatch(ids []int64) (bool, error) {
	start := time.Now()
	defer func() { s.metrics.AddOperationDuration(s.dir, "REMOVE", time.Since(start)) }()

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.checkState(true); err != nil {
		return false, err
	}

	uniq := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			uniq = append(uniq, id)
		}
	}
	if len(uniq) == 0 {
		return false, nil
	}

	addrs, err := s.addresses(uniq)
	if err != nil {
		return false, err
	}

	var (
		found      []int64
		foundAddrs []common.Address
	)
	for i := range addrs {
		if !addrs[i].IsEmpty() {
			found = append(found, uniq[i])
			foundAddrs = append(foundAddrs, addrs[i])
		}
	}
	if len(found) == 0 {
		return false, nil
	}

	if _, err := s.sv.Remove(foundAddrs); err != nil {
		return false, err
	}

	if s.cache != nil {
		for _, id := range found {
			s.cache.Remove(id)
		}
	}

	if err := s.idx.Remove(found); err != nil {
		return false, err
	}
	if err := s.gen.Release(found); err != nil {
		return false, err
	}

	storagelog.Write(s.log,
		storagelog.OpField("REMOVE"),
		storagelog.StorageTypeField(Type),
		storagelog.IDsField(found))

	return true, nil
}
