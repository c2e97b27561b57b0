package dirstorage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/container"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/index"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/supervisor"
	"github.com/nspcc-dev/dirstore/pkg/util"
	"github.com/nspcc-dev/dirstore/pkg/util/bytefile"
	"go.uber.org/zap"
)

const (
	// rebuildMarker exists while temporary copies are the only valid
	// source of records.
	rebuildMarker = "rebuild"

	tempSuffix = ".temp"
	partSuffix = ".part"

	// rebuildBatch limits the number of records moved at once.
	rebuildBatch = 256
)

// Rebuild compacts the storage: live records of all containers are moved
// into new densely packed containers and a new index is built from them.
// Containers that can't be read are skipped and listed in the result.
//
// Rebuild is restartable: if it is interrupted, the next Rebuild (or Open)
// continues from the copies made by the interrupted one.
func (s *Storage) Rebuild() (common.RebuildInfo, error) {
	start := time.Now()
	defer func() { s.metrics.AddOperationDuration(s.dir, "REBUILD", time.Since(start)) }()

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.checkState(true); err != nil {
		return common.RebuildInfo{}, err
	}

	return s.rebuild()
}

func (s *Storage) rebuildInterrupted() (bool, error) {
	_, err := os.Stat(s.path(rebuildMarker))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("check rebuild marker: %w", err)
}

type rebuildSource struct {
	name    string
	c       *container.Container
	records []container.RecordInfo
}

type recordLocation struct {
	source int
	offset int64
}

func (s *Storage) rebuild() (common.RebuildInfo, error) {
	var info common.RebuildInfo

	s.log.Info("rebuild started")

	if err := s.prepareRebuildSources(); err != nil {
		return info, fmt.Errorf("copy containers: %w", err)
	}

	temps, err := supervisor.ListFiles(s.dir, supervisor.DefaultPrefix, tempSuffix)
	if err != nil {
		return info, err
	}

	sv, err := supervisor.New(s.dir, s.supervisorOptions()...)
	if err != nil {
		return info, err
	}
	idx, err := index.New(s.path(index.FileName), s.indexOptions()...)
	if err != nil {
		return info, err
	}

	s.sv, s.idx = sv, idx
	if s.cache != nil {
		s.cache.Purge()
	}

	lost := func(name string, err error) {
		s.log.Error("container lost", zap.String("name", name), zap.Error(err))
		info.LostContainers = append(info.LostContainers, name)
	}

	sources := make([]rebuildSource, 0, len(temps))
	latest := make(map[int64]recordLocation)

	for i := range temps {
		name := strings.TrimSuffix(temps[i].Name, tempSuffix)

		c, err := container.Open(s.path(temps[i].Name), temps[i].Number, s.sourceOptions()...)
		if err != nil {
			lost(name, err)
			continue
		}

		recs, err := c.Records()
		if err != nil {
			lost(name, err)
			continue
		}

		for _, r := range recs {
			latest[r.ID] = recordLocation{source: len(sources), offset: r.Address.Offset}
		}
		sources = append(sources, rebuildSource{name: name, c: c, records: recs})
	}

	live := make(map[int64]struct{}, len(latest))
	for i := range sources {
		n, err := s.moveRecords(i, sources[i], latest, live)
		info.Records += n
		if err != nil {
			var wErr writeError
			if errors.As(err, &wErr) {
				return info, err
			}
			lost(sources[i].name, err)
		}
	}

	// IDs of failed writes may be both stored and released
	forgotten, err := s.gen.Forget(live)
	if err != nil {
		return info, err
	}
	if forgotten > 0 {
		s.log.Warn("live IDs removed from free list", zap.Int("count", forgotten))
	}

	for i := range temps {
		if err := util.RemoveIfExists(s.path(temps[i].Name)); err != nil {
			return info, fmt.Errorf("remove temporary container: %w", err)
		}
	}
	if err := util.RemoveIfExists(s.path(rebuildMarker)); err != nil {
		return info, fmt.Errorf("remove rebuild marker: %w", err)
	}

	info.Containers = s.sv.ContainersCount()

	s.metrics.IncRebuilds(s.dir)
	s.metrics.AddLostContainers(s.dir, len(info.LostContainers))
	s.metrics.SetContainersCount(s.dir, info.Containers)

	s.log.Info("rebuild finished",
		zap.Int("records", info.Records),
		zap.Int("containers", info.Containers),
		zap.Strings("lost containers", info.LostContainers))

	return info, nil
}

// writeError marks failures of the new containers or index, they abort the
// rebuild unlike read failures of the sources.
type writeError struct{ error }

func (e writeError) Unwrap() error { return e.error }

// moveRecords copies records of the source that are the latest versions
// of their IDs.
func (s *Storage) moveRecords(srcIdx int, src rebuildSource, latest map[int64]recordLocation, live map[int64]struct{}) (int, error) {
	var moved int

	limit := s.sv.MaxObjectSize(1)
	offsets := make([]int64, 0, rebuildBatch)
	for _, r := range src.records {
		if latest[r.ID] != (recordLocation{source: srcIdx, offset: r.Address.Offset}) {
			continue
		}
		offsets = append(offsets, r.Address.Offset)
	}

	for len(offsets) > 0 {
		n := min(len(offsets), rebuildBatch)

		recs, err := src.c.GetData(offsets[:n])
		if err != nil {
			return moved, err
		}

		ids := make([]int64, 0, n)
		data := make([][]byte, 0, n)
		for i := range recs {
			if recs[i] == nil {
				continue
			}
			if int64(len(recs[i].Data)) > limit {
				s.log.Error("record does not fit container size limit, dropped",
					zap.Int64("id", recs[i].ID),
					zap.Int("size", len(recs[i].Data)),
					zap.Int64("limit", limit))
				continue
			}
			ids = append(ids, recs[i].ID)
			data = append(data, recs[i].Data)
		}

		addrs, err := s.sv.Put(ids, data)
		if err != nil {
			return moved, writeError{err}
		}
		if err := s.idx.Put(ids, addrs); err != nil {
			return moved, writeError{err}
		}

		for _, id := range ids {
			live[id] = struct{}{}
		}
		moved += len(ids)
		offsets = offsets[n:]
	}

	return moved, nil
}

// prepareRebuildSources makes temporary copies of all containers unless
// they were made by an interrupted rebuild.
func (s *Storage) prepareRebuildSources() error {
	interrupted, err := s.rebuildInterrupted()
	if err != nil || interrupted {
		return err
	}

	// copies of an interrupted copying phase are not trusted
	if err := s.removeRebuildFiles(); err != nil {
		return err
	}

	files, err := supervisor.ListFiles(s.dir, supervisor.DefaultPrefix, "")
	if err != nil {
		return err
	}

	for i := range files {
		src := s.path(files[i].Name)
		part := src + tempSuffix + partSuffix

		if err := bytefile.Copy(part, src, s.perm, s.noSync); err != nil {
			return err
		}
		if err := os.Rename(part, src+tempSuffix); err != nil {
			return err
		}
	}

	f, err := bytefile.Create(s.path(rebuildMarker), s.perm, s.noSync)
	if err != nil {
		return fmt.Errorf("create rebuild marker: %w", err)
	}
	return f.Close()
}

// removeRebuildFiles removes temporary files and the marker left by a
// rebuild.
func (s *Storage) removeRebuildFiles() error {
	for _, suffix := range []string{tempSuffix, tempSuffix + partSuffix} {
		files, err := supervisor.ListFiles(s.dir, supervisor.DefaultPrefix, suffix)
		if err != nil {
			return err
		}
		for i := range files {
			if err := os.Remove(s.path(files[i].Name)); err != nil {
				return fmt.Errorf("remove temporary container: %w", err)
			}
		}
	}

	return util.RemoveIfExists(s.path(rebuildMarker))
}
