package dirstorage

import (
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
)

// MaxObjectSize returns the maximum payload size accepted by Write.
func (s *Storage) MaxObjectSize() int64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.sv.MaxObjectSize(1)
}

// IterateIDs calls f for every stored ID.
func (s *Storage) IterateIDs(f func(id int64) error) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.checkState(false); err != nil {
		return err
	}

	return s.idx.Iterate(func(id int64, _ common.Address) error {
		return f(id)
	})
}

// Info returns current storage state.
func (s *Storage) Info() (common.Info, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.checkState(false); err != nil {
		return common.Info{}, err
	}

	counter, free, err := s.gen.State()
	if err != nil {
		return common.Info{}, err
	}

	st, err := s.idx.Stats()
	if err != nil {
		return common.Info{}, err
	}

	return common.Info{
		Path:             s.dir,
		Mode:             s.mode,
		MaxContainerSize: s.maxContainerSize,
		MaxObjectSize:    s.sv.MaxObjectSize(1),
		Containers:       s.sv.Containers(),
		NextID:           counter,
		FreeIDs:          free,
		IndexTableSize:   st.TableSize,
		IndexCells:       st.Cells,
	}, nil
}
