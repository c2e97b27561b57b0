package dirstorage

import (
	"time"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	storagelog "github.com/nspcc-dev/dirstore/pkg/local_object_storage/internal/log"
	"go.uber.org/zap"
)

// Get returns payload stored under id or nil if there is no such ID.
func (s *Storage) Get(id int64) ([]byte, error) {
	res, err := s.GetBatch([]int64{id})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// GetBatch returns payloads of the given IDs. Result contains nil for
// missing IDs.
func (s *Storage) GetBatch(ids []int64) ([][]byte, error) {
	start := time.Now()
	defer func() { s.metrics.AddOperationDuration(s.dir, "GET", time.Since(start)) }()

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.checkState(false); err != nil {
		return nil, err
	}

	addrs, err := s.addresses(ids)
	if err != nil {
		return nil, err
	}

	recs, err := s.sv.Get(addrs)
	if err != nil {
		return nil, err
	}

	res := make([][]byte, len(ids))
	for i := range ids {
		switch {
		case recs[i] == nil:
			if !addrs[i].IsEmpty() {
				s.log.Warn("index refers to missing record",
					storagelog.IDField(ids[i]),
					storagelog.AddressField(addrs[i]))
			}
		case recs[i].ID != ids[i]:
			s.log.Warn("index refers to record of another object",
				storagelog.IDField(ids[i]),
				storagelog.AddressField(addrs[i]),
				zap.Int64("record id", recs[i].ID))
		default:
			res[i] = recs[i].Data
		}
	}

	return res, nil
}

// addresses resolves IDs through the cache and the index.
func (s *Storage) addresses(ids []int64) ([]common.Address, error) {
	if s.cache == nil {
		return s.idx.Get(ids)
	}

	res := make([]common.Address, len(ids))

	var (
		missIDs []int64
		missIdx []int
	)
	for i := range ids {
		if a, ok := s.cache.Get(ids[i]); ok {
			res[i] = a
			continue
		}
		missIDs = append(missIDs, ids[i])
		missIdx = append(missIdx, i)
	}

	if len(missIDs) == 0 {
		return res, nil
	}

	found, err := s.idx.Get(missIDs)
	if err != nil {
		return nil, err
	}

	for i := range found {
		res[missIdx[i]] = found[i]
		if !found[i].IsEmpty() {
			s.cache.Add(missIDs[i], found[i])
		}
	}

	return res, nil
}
