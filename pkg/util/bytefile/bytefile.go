// Package bytefile provides positioned big-endian access to a single
// regular file.
//
// Every storage component opens its files per operation and releases
// them before returning, so File is usually obtained through View or
// Update which guarantee Close on every exit path.
package bytefile

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Sizes of the integer encodings in bytes.
const (
	SizeInt8  = 1
	SizeInt32 = 4
	SizeInt64 = 8
)

// File is an open regular file with positioned read and write helpers.
type File struct {
	f        *os.File
	path     string
	writable bool
	noSync   bool
}

// OpenRead opens existing file for reading only.
func OpenRead(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{f: f, path: path}, nil
}

// OpenReadWrite opens existing file for reading and writing. Unless noSync
// is set, written data is flushed to the disk on Close.
func OpenReadWrite(path string, noSync bool) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &File{f: f, path: path, writable: true, noSync: noSync}, nil
}

// Create creates new or truncates existing file and opens it for reading
// and writing.
func Create(path string, perm fs.FileMode, noSync bool) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, err
	}
	return &File{f: f, path: path, writable: true, noSync: noSync}, nil
}

// View opens the file for reading, passes it to fn and closes it.
func View(path string, fn func(*File) error) error {
	f, err := OpenRead(path)
	if err != nil {
		return err
	}
	return closeAfter(f, fn)
}

// Update opens the file for reading and writing, passes it to fn and
// closes it. Close error is returned only if fn succeeded.
func Update(path string, noSync bool, fn func(*File) error) error {
	f, err := OpenReadWrite(path, noSync)
	if err != nil {
		return err
	}
	return closeAfter(f, fn)
}

func closeAfter(f *File, fn func(*File) error) error {
	err := fn(f)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	return err
}

// Path returns path the file was opened with.
func (x *File) Path() string {
	return x.path
}

// Close flushes written data (if any and not disabled) and closes the file.
func (x *File) Close() error {
	var err error
	if x.writable && !x.noSync {
		if err = datasync(x.f); err != nil {
			err = fmt.Errorf("sync %q: %w", x.path, err)
		}
	}
	if cErr := x.f.Close(); err == nil && cErr != nil {
		err = fmt.Errorf("close %q: %w", x.path, cErr)
	}
	return err
}

// Size returns current file size in bytes.
func (x *File) Size() (int64, error) {
	st, err := x.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %q: %w", x.path, err)
	}
	return st.Size(), nil
}

// Truncate changes the size of the file.
func (x *File) Truncate(size int64) error {
	if err := x.f.Truncate(size); err != nil {
		return fmt.Errorf("truncate %q to %d: %w", x.path, size, err)
	}
	return nil
}

// ReadBytes reads exactly n bytes at the given offset. Reading past the end
// of the file results in error wrapping io.EOF or io.ErrUnexpectedEOF.
func (x *File) ReadBytes(off int64, n int) ([]byte, error) {
	if off < 0 || n < 0 {
		return nil, fmt.Errorf("read %q: invalid range [%d:+%d]", x.path, off, n)
	}
	b := make([]byte, n)
	if err := x.readFull(off, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (x *File) readFull(off int64, b []byte) error {
	n, err := x.f.ReadAt(b, off)
	if n == len(b) {
		return nil
	}
	if err == io.EOF && n > 0 {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("read %d bytes at %d from %q: %w", len(b), off, x.path, err)
}

// ReadInt8 reads single signed byte at the given offset.
func (x *File) ReadInt8(off int64) (int8, error) {
	var b [SizeInt8]byte
	if err := x.readFull(off, b[:]); err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

// ReadInt32 reads big-endian 32-bit integer at the given offset.
func (x *File) ReadInt32(off int64) (int32, error) {
	var b [SizeInt32]byte
	if err := x.readFull(off, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

// ReadInt64 reads big-endian 64-bit integer at the given offset.
func (x *File) ReadInt64(off int64) (int64, error) {
	var b [SizeInt64]byte
	if err := x.readFull(off, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

// WriteBytes writes b at the given offset, extending the file if needed.
func (x *File) WriteBytes(off int64, b []byte) error {
	if off < 0 {
		return fmt.Errorf("write %q: negative offset %d", x.path, off)
	}
	n, err := x.f.WriteAt(b, off)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return fmt.Errorf("write %d bytes at %d to %q: %w", len(b), off, x.path, err)
	}
	return nil
}

// WriteInt8 writes single signed byte at the given offset.
func (x *File) WriteInt8(off int64, v int8) error {
	return x.WriteBytes(off, []byte{byte(v)})
}

// WriteInt32 writes big-endian 32-bit integer at the given offset.
func (x *File) WriteInt32(off int64, v int32) error {
	var b [SizeInt32]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return x.WriteBytes(off, b[:])
}

// WriteInt64 writes big-endian 64-bit integer at the given offset.
func (x *File) WriteInt64(off int64, v int64) error {
	var b [SizeInt64]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return x.WriteBytes(off, b[:])
}

// Copy copies the content of the src file into the newly created dst file
// and flushes it unless noSync is set.
func Copy(dst, src string, perm fs.FileMode, noSync bool) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := Create(dst, perm, noSync)
	if err != nil {
		return err
	}

	_, err = io.Copy(out.f, in)
	if err != nil {
		err = fmt.Errorf("copy %q to %q: %w", src, dst, err)
	}
	if cErr := out.Close(); err == nil {
		err = cErr
	}
	return err
}
