// Package supervisor spreads records over a growing sequence of bounded
// container files named <prefix>0, <prefix>1 and so on.
//
// Packing is greedy next-fit: records go to the last container while they
// fit, otherwise a new container is created. Filled containers are never
// revisited, space of removed records is reclaimed by the storage rebuild
// only.
package supervisor

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/container"
	"go.uber.org/zap"
)

// Supervisor manages the set of containers of a single directory.
type Supervisor struct {
	*cfg

	dir        string
	containers []*container.Container
}

// File is a container file found in a directory.
type File struct {
	Name   string
	Number int32
}

// ListFiles returns files of dir named <prefix><number><suffix> sorted by
// number. Numbers with leading zeros or signs are not recognized.
func ListFiles(dir, prefix, suffix string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var res []File
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}

		num, ok := strings.CutPrefix(e.Name(), prefix)
		if !ok {
			continue
		}
		if num, ok = strings.CutSuffix(num, suffix); !ok {
			continue
		}

		n, err := strconv.ParseInt(num, 10, 32)
		if err != nil || n < 0 || strconv.FormatInt(n, 10) != num {
			continue
		}

		res = append(res, File{Name: e.Name(), Number: int32(n)})
	}

	slices.SortFunc(res, func(a, b File) int { return int(a.Number) - int(b.Number) })

	return res, nil
}

func newSupervisor(dir string, opts []Option) (*Supervisor, error) {
	c := defaultCfg()
	for i := range opts {
		opts[i](c)
	}

	if c.maxSize < container.HeaderSize+container.RecordHeaderSize {
		return nil, fmt.Errorf("container size limit %d can't fit even an empty record", c.maxSize)
	}
	if c.prefix == "" {
		return nil, fmt.Errorf("empty container file prefix")
	}

	return &Supervisor{
		cfg: c,
		dir: dir,
	}, nil
}

// New returns empty Supervisor. Existing container files of the directory
// are removed, new ones are created on demand.
func New(dir string, opts ...Option) (*Supervisor, error) {
	s, err := newSupervisor(dir, opts)
	if err != nil {
		return nil, err
	}
	if s.readOnly {
		return nil, common.ErrReadOnly
	}

	files, err := ListFiles(dir, s.prefix, "")
	if err != nil {
		return nil, err
	}

	for i := range files {
		if err := os.Remove(filepath.Join(dir, files[i].Name)); err != nil {
			return nil, fmt.Errorf("remove stale container: %w", err)
		}
		s.log.Debug("stale container removed", zap.String("name", files[i].Name))
	}

	return s, nil
}

// Open opens all containers of the directory. Container numbers must form
// a contiguous range starting at zero, a gap or a container that can't be
// parsed results in common.ErrLostContainer.
func Open(dir string, opts ...Option) (*Supervisor, error) {
	s, err := newSupervisor(dir, opts)
	if err != nil {
		return nil, err
	}

	files, err := ListFiles(dir, s.prefix, "")
	if err != nil {
		return nil, err
	}

	s.containers = make([]*container.Container, 0, len(files))
	for i := range files {
		if files[i].Number != int32(i) {
			return nil, fmt.Errorf("%w: %s", common.ErrLostContainer, s.Name(int32(i)))
		}

		c, err := container.Open(filepath.Join(dir, files[i].Name), files[i].Number, s.containerOptions()...)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", common.ErrLostContainer, files[i].Name, err)
		}

		s.containers = append(s.containers, c)
	}

	s.log.Debug("containers opened",
		zap.String("path", dir),
		zap.Int("count", len(s.containers)))

	return s, nil
}

// Name returns file name of the container with the given number.
func (s *Supervisor) Name(n int32) string {
	return s.prefix + strconv.FormatInt(int64(n), 10)
}

// ContainersCount returns the number of containers.
func (s *Supervisor) ContainersCount() int {
	return len(s.containers)
}

// Containers returns information about all containers.
func (s *Supervisor) Containers() []common.ContainerInfo {
	res := make([]common.ContainerInfo, len(s.containers))
	for i, c := range s.containers {
		res[i] = common.ContainerInfo{
			Number:  c.Number(),
			Name:    s.Name(c.Number()),
			Records: c.RecordCount(),
			Size:    c.Size(),
		}
	}
	return res
}

// MaxObjectSize returns the payload size allowing perContainer records to
// share a single container. Non-positive perContainer is treated as 1.
func (s *Supervisor) MaxObjectSize(perContainer int) int64 {
	n := int64(max(perContainer, 1))
	res := (s.maxSize-container.HeaderSize)/n - container.RecordHeaderSize
	return min(max(res, 0), math.MaxInt32)
}

func (s *Supervisor) createContainer() (*container.Container, error) {
	n := int32(len(s.containers))

	c, err := container.Create(filepath.Join(s.dir, s.Name(n)), n, s.containerOptions()...)
	if err != nil {
		return nil, err
	}

	s.containers = append(s.containers, c)
	return c, nil
}

func (s *Supervisor) container(n int32) (*container.Container, error) {
	if n < 0 || int(n) >= len(s.containers) {
		return nil, fmt.Errorf("%w: no container %d among %d", common.ErrLostContainer, n, len(s.containers))
	}
	return s.containers[n], nil
}

// Put stores records and returns their addresses. Records that fit the
// current container are written to it with a single call.
//
// Records are written in order, on failure the addresses of the records
// already stored are returned along with the error.
func (s *Supervisor) Put(ids []int64, data [][]byte) ([]common.Address, error) {
	if len(ids) != len(data) {
		return nil, fmt.Errorf("%w: %d IDs and %d payloads", common.ErrMalformedInput, len(ids), len(data))
	}

	limit := s.MaxObjectSize(1)
	for i := range data {
		if int64(len(data[i])) > limit {
			return nil, fmt.Errorf("%w: payload of %d bytes, limit %d", common.ErrObjectTooLarge, len(data[i]), limit)
		}
	}

	if s.readOnly {
		return nil, common.ErrReadOnly
	}

	res := make([]common.Address, 0, len(ids))

	var (
		cur   *container.Container
		used  int64
		start int
	)
	if len(s.containers) > 0 {
		cur = s.containers[len(s.containers)-1]
		used = cur.Size()
	}

	flush := func(end int) error {
		if cur == nil || end == start {
			return nil
		}
		addrs, err := cur.WriteBytes(ids, data, start, end-start)
		if err != nil {
			return err
		}
		res = append(res, addrs...)
		start = end
		return nil
	}

	for i := range data {
		need := container.NeededSpace(len(data[i]))
		if cur == nil || used+need > s.maxSize {
			if err := flush(i); err != nil {
				return res, err
			}

			c, err := s.createContainer()
			if err != nil {
				return res, err
			}

			s.log.Debug("new container opened", zap.String("name", s.Name(c.Number())))

			cur, used, start = c, container.HeaderSize, i
		}
		used += need
	}

	if err := flush(len(data)); err != nil {
		return res, err
	}

	return res, nil
}

// groupByContainer returns indices of non-empty addresses grouped by the
// container number and the sorted list of numbers.
func groupByContainer(addrs []common.Address) (map[int32][]int, []int32) {
	groups := make(map[int32][]int)
	var nums []int32

	for i := range addrs {
		if addrs[i].IsEmpty() {
			continue
		}
		n := addrs[i].Container
		if _, ok := groups[n]; !ok {
			nums = append(nums, n)
		}
		groups[n] = append(groups[n], i)
	}

	slices.Sort(nums)
	return groups, nums
}

// Get reads records at the given addresses. Result has nil for empty
// addresses and addresses that do not point to active records.
func (s *Supervisor) Get(addrs []common.Address) ([]*common.Record, error) {
	res := make([]*common.Record, len(addrs))
	groups, nums := groupByContainer(addrs)

	for _, n := range nums {
		c, err := s.container(n)
		if err != nil {
			return nil, err
		}

		idx := groups[n]
		offsets := make([]int64, len(idx))
		for i := range idx {
			offsets[i] = addrs[idx[i]].Offset
		}

		recs, err := c.GetData(offsets)
		if err != nil {
			return nil, err
		}

		for i := range idx {
			res[idx[i]] = recs[i]
		}
	}

	return res, nil
}

// Remove marks records at the given addresses as removed and returns the
// number of records that were active.
func (s *Supervisor) Remove(addrs []common.Address) (int, error) {
	if s.readOnly {
		return 0, common.ErrReadOnly
	}

	groups, nums := groupByContainer(addrs)

	var removed int
	for _, n := range nums {
		c, err := s.container(n)
		if err != nil {
			return removed, err
		}

		idx := groups[n]
		offsets := make([]int64, len(idx))
		for i := range idx {
			offsets[i] = addrs[idx[i]].Offset
		}

		k, err := c.RemoveBytes(offsets)
		removed += k
		if err != nil {
			return removed, err
		}
	}

	return removed, nil
}
