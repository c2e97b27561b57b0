package dirstorage

import (
	"fmt"
	"slices"
	"time"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	storagelog "github.com/nspcc-dev/dirstore/pkg/local_object_storage/internal/log"
	"go.uber.org/zap"
)

// GenerateIDs reserves n unique IDs to be used with WriteBatch.
func (s *Storage) GenerateIDs(n int) ([]int64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.checkState(true); err != nil {
		return nil, err
	}

	return s.gen.Allocate(n)
}

// Write stores data under a newly generated ID and returns it.
func (s *Storage) Write(data []byte) (int64, error) {
	ids, err := s.WriteBatch(nil, [][]byte{data})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// WriteBatch stores payloads under the given IDs. If ids is nil, IDs are
// generated. Writing an existing ID replaces its payload.
//
// The batch is validated before any modification: nil payloads, duplicate
// IDs and length mismatch result in common.ErrMalformedInput, payloads
// larger than MaxObjectSize in common.ErrObjectTooLarge.
func (s *Storage) WriteBatch(ids []int64, data [][]byte) ([]int64, error) {
	start := time.Now()
	defer func() { s.metrics.AddOperationDuration(s.dir, "WRITE", time.Since(start)) }()

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.checkState(true); err != nil {
		return nil, err
	}
	if err := s.checkWriteBatch(ids, data); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []int64{}, nil
	}

	var (
		err       error
		generated = ids == nil
		replaced  []common.Address
	)

	if generated {
		if ids, err = s.gen.Allocate(len(data)); err != nil {
			return nil, err
		}
	} else {
		ids = slices.Clone(ids)

		old, err := s.addresses(ids)
		if err != nil {
			return nil, err
		}
		for i := range old {
			if !old[i].IsEmpty() {
				replaced = append(replaced, old[i])
			}
		}
	}

	addrs, err := s.sv.Put(ids, data)
	if err != nil {
		if generated {
			s.releaseUnused(ids, len(addrs))
		}
		return nil, err
	}
	if err := s.idx.Put(ids, addrs); err != nil {
		if generated {
			s.releaseUnused(ids, len(ids))
		}
		return nil, err
	}

	if s.cache != nil {
		for i := range ids {
			s.cache.Add(ids[i], addrs[i])
		}
	}

	if len(replaced) > 0 {
		if _, err := s.sv.Remove(replaced); err != nil {
			// data is already reachable via the index, the old records are
			// only wasted space
			s.log.Warn("failed to remove replaced records", zap.Error(err))
		}
	}

	var size int
	for i := range data {
		size += len(data[i])
	}
	s.metrics.AddWrittenBytes(s.dir, size)
	s.metrics.SetContainersCount(s.dir, s.sv.ContainersCount())

	storagelog.Write(s.log,
		storagelog.OpField("WRITE"),
		storagelog.StorageTypeField(Type),
		storagelog.IDsField(ids))

	return ids, nil
}

func (s *Storage) checkWriteBatch(ids []int64, data [][]byte) error {
	if ids != nil && len(ids) != len(data) {
		return fmt.Errorf("%w: %d IDs and %d payloads", common.ErrMalformedInput, len(ids), len(data))
	}

	limit := s.sv.MaxObjectSize(1)
	for i := range data {
		if data[i] == nil {
			return fmt.Errorf("%w: nil payload #%d", common.ErrMalformedInput, i)
		}
		if int64(len(data[i])) > limit {
			return fmt.Errorf("%w: payload #%d of %d bytes, limit %d", common.ErrObjectTooLarge, i, len(data[i]), limit)
		}
	}

	if len(ids) > 1 {
		seen := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				return fmt.Errorf("%w: duplicate ID %d", common.ErrMalformedInput, id)
			}
			seen[id] = struct{}{}
		}
	}

	return nil
}

// releaseUnused returns IDs generated for a failed write. The first stored
// IDs already have records in containers which a rebuild brings back, they
// are not released and stay allocated until the rebuild.
func (s *Storage) releaseUnused(ids []int64, stored int) {
	if stored > 0 {
		s.log.Warn("IDs of partially stored write are kept allocated",
			zap.Int64s("ids", ids[:stored]))
	}

	ids = ids[stored:]
	if len(ids) == 0 {
		return
	}

	if err := s.gen.Release(ids); err != nil {
		s.log.Warn("failed to release IDs of failed write",
			zap.Int64s("ids", ids),
			zap.Error(err))
	}
}
