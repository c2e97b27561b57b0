// Package registry keeps a single storage handle per directory.
package registry

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/safestorage"
	"go.uber.org/zap"
)

// Registry maps storage directories to opened storages. It is safe for
// concurrent use. Zero value is not usable, use New.
type Registry struct {
	log  *zap.Logger
	opts []safestorage.Option

	mtx      sync.Mutex
	storages map[string]*safestorage.Storage
}

// New returns empty Registry opening storages with the given options.
func New(log *zap.Logger, opts ...safestorage.Option) *Registry {
	return &Registry{
		log:      log.With(zap.String("component", "storage registry")),
		opts:     append([]safestorage.Option{safestorage.WithLogger(log)}, opts...),
		storages: make(map[string]*safestorage.Storage),
	}
}

func canonical(dir string) (string, error) {
	p, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve storage path %q: %w", dir, err)
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	return p, nil
}

// Open returns storage located in dir opening it on first call.
func (r *Registry) Open(dir string) (*safestorage.Storage, error) {
	return r.get(dir, safestorage.OpenDirectory)
}

// Create returns storage located in dir creating it on first call. Already
// registered storage is returned as is.
func (r *Registry) Create(dir string) (*safestorage.Storage, error) {
	return r.get(dir, safestorage.NewDirectory)
}

func (r *Registry) get(dir string, open func(string, ...safestorage.Option) (*safestorage.Storage, error)) (*safestorage.Storage, error) {
	p, err := canonical(dir)
	if err != nil {
		return nil, err
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if s, ok := r.storages[p]; ok {
		return s, nil
	}

	s, err := open(p, r.opts...)
	if err != nil {
		return nil, err
	}

	r.storages[p] = s
	r.log.Debug("storage registered", zap.String("path", p))
	return s, nil
}

// Get returns already registered storage located in dir.
func (r *Registry) Get(dir string) (*safestorage.Storage, bool) {
	p, err := canonical(dir)
	if err != nil {
		return nil, false
	}

	r.mtx.Lock()
	s, ok := r.storages[p]
	r.mtx.Unlock()
	return s, ok
}

// Close closes all registered storages and empties the registry.
func (r *Registry) Close() error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	var errs []error
	for p, s := range r.storages {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p, err))
		}
		delete(r.storages, p)
	}

	return errors.Join(errs...)
}
