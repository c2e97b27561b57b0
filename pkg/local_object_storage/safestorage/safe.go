// Package safestorage detects storage operations interrupted by a crash.
//
// A one-byte flag file is set to unstable before every operation and back
// to stable after it succeeds. Storage found unstable on open is rebuilt
// before serving requests.
package safestorage

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/mode"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/util/logicerr"
	"github.com/nspcc-dev/dirstore/pkg/util/bytefile"
	"go.uber.org/zap"
)

// FileName is a name of the flag file inside storage directory.
const FileName = "safe"

const (
	stateStable   int8 = 1
	stateUnstable int8 = -1
)

// Storage wraps common.Storage with the crash detection. It owns the inner
// storage and closes it on Close. It is safe for concurrent use, guarded
// calls are serialized together with their flag updates.
type Storage struct {
	*cfg

	// mtx is held from setting the flag unstable until it is stable again
	mtx   sync.Mutex
	inner common.Storage

	dir      string
	flag     string
	degraded bool
}

var _ common.Storage = (*Storage)(nil)

func applyOptions(opts []Option) *cfg {
	c := defaultCfg()
	for i := range opts {
		opts[i](c)
	}
	c.log = c.log.With(zap.String("component", "safe storage"))
	return c
}

func newSafe(dir string, inner common.Storage, c *cfg) *Storage {
	return &Storage{
		cfg:   c,
		inner: inner,
		dir:   dir,
		flag:  filepath.Join(dir, FileName),
	}
}

// New wraps just created inner storage located in dir and marks it stable.
func New(dir string, inner common.Storage, opts ...Option) (*Storage, error) {
	s := newSafe(dir, inner, applyOptions(opts))
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) init() error {
	if s.readOnly {
		return common.ErrReadOnly
	}

	f, err := bytefile.Create(s.flag, s.perm, s.noSync)
	if err != nil {
		return fmt.Errorf("create safety flag: %w", err)
	}

	err = f.WriteInt8(0, stateStable)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return fmt.Errorf("init safety flag: %w", err)
	}

	s.metrics.SetSafetyState(s.dir, true)
	return nil
}

// Open wraps opened inner storage located in dir. If the flag shows that
// the last operation was interrupted, the inner storage is rebuilt. In
// read-only mode the rebuild is not possible and the storage is reported as
// mode.Degraded instead.
func Open(dir string, inner common.Storage, opts ...Option) (*Storage, error) {
	s := newSafe(dir, inner, applyOptions(opts))

	stable, err := s.stable()
	if err != nil {
		return nil, err
	}
	if stable {
		s.metrics.SetSafetyState(s.dir, true)
		return s, nil
	}

	if s.readOnly {
		s.log.Warn("storage was not closed properly and can't be repaired in read-only mode",
			zap.String("path", dir))
		s.degraded = true
		return s, nil
	}

	s.log.Warn("storage was not closed properly, rebuilding", zap.String("path", dir))

	info, err := inner.Rebuild()
	if err != nil {
		return nil, fmt.Errorf("rebuild unstable storage: %w", err)
	}

	if err := s.recovered(info); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) recovered(info common.RebuildInfo) error {
	s.metrics.IncRecoveries(s.dir)

	if len(info.LostContainers) > 0 {
		s.log.Error("containers lost during recovery",
			zap.String("path", s.dir),
			zap.Strings("containers", info.LostContainers))
	}
	s.log.Info("storage recovered",
		zap.String("path", s.dir),
		zap.Int("records", info.Records))

	return s.setState(stateStable)
}

// stable reads the flag, missing or unknown value means unstable.
func (s *Storage) stable() (bool, error) {
	var state int8

	err := bytefile.View(s.flag, func(f *bytefile.File) error {
		var err error
		state, err = f.ReadInt8(0)
		return err
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("safety flag is missing", zap.String("path", s.flag))
			return false, nil
		}
		if s.readOnly {
			return false, fmt.Errorf("read safety flag: %w", err)
		}
		s.log.Warn("safety flag is unreadable", zap.String("path", s.flag), zap.Error(err))
		return false, nil
	}

	return state == stateStable, nil
}

func (s *Storage) setState(state int8) error {
	err := bytefile.Update(s.flag, s.noSync, func(f *bytefile.File) error {
		return f.WriteInt8(0, state)
	})
	if errors.Is(err, fs.ErrNotExist) {
		f, cErr := bytefile.Create(s.flag, s.perm, s.noSync)
		if cErr != nil {
			return fmt.Errorf("create safety flag: %w", cErr)
		}
		err = f.WriteInt8(0, state)
		if cErr = f.Close(); err == nil {
			err = cErr
		}
	}
	if err != nil {
		return fmt.Errorf("set safety flag: %w", err)
	}

	s.metrics.SetSafetyState(s.dir, state == stateStable)
	return nil
}

// NewDirectory creates a new storage in dir.
func NewDirectory(dir string, opts ...Option) (*Storage, error) {
	c := applyOptions(opts)
	if c.readOnly {
		return nil, common.ErrReadOnly
	}

	inner, err := dirstorage.New(dir, c.storageOptions()...)
	if err != nil {
		return nil, err
	}

	s := newSafe(dir, inner, c)
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenDirectory opens existing storage located in dir. Storage left
// unstable is recovered by rebuilding it from the containers, so unlike
// Open it succeeds even if the index is damaged.
func OpenDirectory(dir string, opts ...Option) (*Storage, error) {
	c := applyOptions(opts)
	s := newSafe(dir, nil, c)

	stable, err := s.stable()
	if err != nil {
		return nil, err
	}

	if !stable && !c.readOnly {
		s.log.Warn("storage was not closed properly, recovering", zap.String("path", dir))

		inner, info, err := dirstorage.Recover(dir, c.storageOptions()...)
		if err != nil {
			return nil, fmt.Errorf("recover unstable storage: %w", err)
		}

		s.inner = inner
		if err := s.recovered(info); err != nil {
			return nil, err
		}
		return s, nil
	}

	inner, err := dirstorage.Open(dir, c.storageOptions()...)
	if err != nil {
		return nil, err
	}

	s.inner = inner
	if !stable {
		s.log.Warn("storage was not closed properly and can't be repaired in read-only mode",
			zap.String("path", dir))
		s.degraded = true
	} else {
		s.metrics.SetSafetyState(s.dir, true)
	}
	return s, nil
}

// safeCall runs op with the flag set to unstable. Logical errors are
// detected before any modification, so they restore the stable flag.
func safeCall[T any](s *Storage, op func() (T, error)) (T, error) {
	if s.readOnly {
		return op()
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.setState(stateUnstable); err != nil {
		var zero T
		return zero, err
	}

	res, err := op()
	if err != nil && !logicerr.Is(err) {
		return res, err
	}

	if sErr := s.setState(stateStable); sErr != nil && err == nil {
		err = sErr
	}
	return res, err
}

func (s *Storage) GenerateIDs(n int) ([]int64, error) {
	return safeCall(s, func() ([]int64, error) { return s.inner.GenerateIDs(n) })
}

func (s *Storage) Write(data []byte) (int64, error) {
	return safeCall(s, func() (int64, error) { return s.inner.Write(data) })
}

func (s *Storage) WriteBatch(ids []int64, data [][]byte) ([]int64, error) {
	return safeCall(s, func() ([]int64, error) { return s.inner.WriteBatch(ids, data) })
}

func (s *Storage) Get(id int64) ([]byte, error) {
	return safeCall(s, func() ([]byte, error) { return s.inner.Get(id) })
}

func (s *Storage) GetBatch(ids []int64) ([][]byte, error) {
	return safeCall(s, func() ([][]byte, error) { return s.inner.GetBatch(ids) })
}

func (s *Storage) Remove(id int64) (bool, error) {
	return safeCall(s, func() (bool, error) { return s.inner.Remove(id) })
}

func (s *Storage) RemoveBatch(ids []int64) (bool, error) {
	return safeCall(s, func() (bool, error) { return s.inner.RemoveBatch(ids) })
}

func (s *Storage) Rebuild() (common.RebuildInfo, error) {
	return safeCall(s, s.inner.Rebuild)
}

func (s *Storage) IterateIDs(f func(id int64) error) error {
	_, err := safeCall(s, func() (struct{}, error) { return struct{}{}, s.inner.IterateIDs(f) })
	return err
}

// MaxObjectSize is not guarded: it does not touch the disk.
func (s *Storage) MaxObjectSize() int64 {
	return s.inner.MaxObjectSize()
}

func (s *Storage) Info() (common.Info, error) {
	info, err := s.inner.Info()
	if err == nil && s.degraded {
		info.Mode = mode.Degraded
	}
	return info, err
}

// Mode returns mode.Degraded for unstable storage opened in read-only mode
// and the inner storage mode otherwise.
func (s *Storage) Mode() mode.Mode {
	if s.degraded {
		return mode.Degraded
	}
	return s.inner.Mode()
}

// Close closes the inner storage after the running guarded call finishes.
// The flag is left as is.
func (s *Storage) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.inner.Close()
}
