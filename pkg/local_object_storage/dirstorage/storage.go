// Package dirstorage implements key-value object storage kept in a single
// directory.
//
// The directory holds three kinds of files: the ID generator (gen), the
// hash index (ind) mapping IDs to record addresses and the container files
// (cont0, cont1, ...) with record bytes. Every operation opens the files it
// needs and closes them before returning, no file handles are held between
// calls.
package dirstorage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/idgen"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/index"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/supervisor"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/mode"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/util/logicerr"
	"github.com/nspcc-dev/dirstore/pkg/util"
	"go.uber.org/zap"
)

// Type is dirstorage storage type used in logs.
const Type = "dirstorage"

var (
	// ErrNotDirectory is returned when storage path is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrClosed is returned for calls made after Close.
	ErrClosed = logicerr.New("storage is closed")
)

// Storage is a directory-backed object storage. Calls are serialized, the
// directory must not be used by another Storage instance at the same time.
type Storage struct {
	*cfg

	dir string

	mtx    sync.Mutex
	closed bool

	gen *idgen.Generator
	idx *index.Index
	sv  *supervisor.Supervisor

	cache *simplelru.LRU[int64, common.Address]
}

var _ common.Storage = (*Storage)(nil)

func newStorage(dir string, opts []Option) (*Storage, error) {
	c := defaultCfg()
	for i := range opts {
		opts[i](c)
	}

	c.log = c.log.With(zap.String("component", "directory storage"), zap.String("path", dir))

	s := &Storage{
		cfg: c,
		dir: dir,
	}

	if c.cacheSize > 0 {
		var err error
		s.cache, err = simplelru.NewLRU[int64, common.Address](c.cacheSize, nil)
		if err != nil {
			return nil, fmt.Errorf("create address cache: %w", err)
		}
	}

	return s, nil
}

func (s *Storage) path(name string) string {
	return filepath.Join(s.dir, name)
}

// New creates a new empty storage in dir. The directory is created if
// missing, storage files it already contains are overwritten.
func New(dir string, opts ...Option) (*Storage, error) {
	s, err := newStorage(dir, opts)
	if err != nil {
		return nil, err
	}
	if s.mode.ReadOnly() {
		return nil, common.ErrReadOnly
	}

	if err := util.MkdirAllX(dir, s.perm); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	if err := s.removeRebuildFiles(); err != nil {
		return nil, err
	}

	if s.gen, err = idgen.New(s.path(idgen.FileName), s.generatorOptions()...); err != nil {
		return nil, err
	}
	if s.idx, err = index.New(s.path(index.FileName), s.indexOptions()...); err != nil {
		return nil, err
	}
	if s.sv, err = supervisor.New(dir, s.supervisorOptions()...); err != nil {
		return nil, err
	}

	s.metrics.SetContainersCount(s.dir, 0)
	s.log.Debug("storage created")

	return s, nil
}

func checkDirectory(dir string) error {
	st, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("storage directory: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	return nil
}

// Open opens existing storage located in dir.
//
// Interrupted rebuild is resumed, in read-only mode the storage is switched
// to mode.Degraded instead.
func Open(dir string, opts ...Option) (*Storage, error) {
	s, err := newStorage(dir, opts)
	if err != nil {
		return nil, err
	}

	if err := checkDirectory(dir); err != nil {
		return nil, err
	}

	if s.gen, err = idgen.Open(s.path(idgen.FileName), s.generatorOptions()...); err != nil {
		return nil, err
	}

	interrupted, err := s.rebuildInterrupted()
	if err != nil {
		return nil, err
	}

	if interrupted {
		if !s.mode.ReadOnly() {
			s.log.Warn("interrupted rebuild found, resuming")

			if _, err := s.rebuild(); err != nil {
				return nil, fmt.Errorf("resume rebuild: %w", err)
			}
			return s, nil
		}

		s.log.Warn("interrupted rebuild found, storage is degraded")
		s.mode = mode.Degraded
	}

	if s.idx, err = index.Open(s.path(index.FileName), s.indexOptions()...); err != nil {
		return nil, err
	}
	if s.sv, err = supervisor.Open(dir, s.supervisorOptions()...); err != nil {
		return nil, err
	}

	s.metrics.SetContainersCount(s.dir, s.sv.ContainersCount())
	s.log.Debug("storage opened", zap.Stringer("mode", s.mode))

	return s, nil
}

// Recover opens existing storage located in dir rebuilding its index and
// containers instead of opening them. Unlike Open it succeeds with a
// damaged index or missing containers, everything that could not be read
// is listed in the result.
func Recover(dir string, opts ...Option) (*Storage, common.RebuildInfo, error) {
	s, err := newStorage(dir, opts)
	if err != nil {
		return nil, common.RebuildInfo{}, err
	}
	if s.mode.ReadOnly() {
		return nil, common.RebuildInfo{}, common.ErrReadOnly
	}

	if err := checkDirectory(dir); err != nil {
		return nil, common.RebuildInfo{}, err
	}

	if s.gen, err = idgen.Open(s.path(idgen.FileName), s.generatorOptions()...); err != nil {
		return nil, common.RebuildInfo{}, err
	}

	info, err := s.rebuild()
	if err != nil {
		return nil, info, err
	}

	return s, info, nil
}

// checkState returns an error if the storage can't serve the call.
func (s *Storage) checkState(write bool) error {
	if s.closed {
		return ErrClosed
	}
	if write && s.mode.ReadOnly() {
		return common.ErrReadOnly
	}
	return nil
}

// Mode returns the storage mode.
func (s *Storage) Mode() mode.Mode {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.mode
}

// Path returns the storage directory.
func (s *Storage) Path() string {
	return s.dir
}

// Close releases the storage. Since files are not held between calls, it
// only drops in-memory state, subsequent calls fail with ErrClosed.
func (s *Storage) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.cache != nil {
		s.cache.Purge()
	}
	s.closed = true

	s.log.Debug("storage closed")
	return nil
}
