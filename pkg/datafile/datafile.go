//go:build linux

package datafile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// File is a read-only, memory-mapped view over a record file. The mapping
// and the descriptor stay valid until Close; the descriptor doubles as the
// source of zero-copy transfers.
type File struct {
	f    *os.File
	data []byte
}

// Load opens path and maps its whole content read-only.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat data file: %w", err)
	}
	if st.Size() == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap data file: %w", err)
	}

	return &File{f: f, data: data}, nil
}

// Size returns the mapped length in bytes.
func (d *File) Size() int64 { return int64(len(d.data)) }

// Fd returns the descriptor backing the mapping.
func (d *File) Fd() int { return int(d.f.Fd()) }

// Name returns the path the file was loaded from.
func (d *File) Name() string { return d.f.Name() }

// Records counts the complete records in the mapped content.
func (d *File) Records() int { return CountRecords(d.data) }

// Offset is OffsetRecords over the mapped content.
func (d *File) Offset(n int) (int64, error) {
	if d.data == nil {
		return 0, ErrClosed
	}
	return OffsetRecords(d.data, n)
}

// Close unmaps the buffer and closes the descriptor.
func (d *File) Close() error {
	if d.data == nil {
		return ErrClosed
	}
	err := unix.Munmap(d.data)
	d.data = nil
	return errors.Join(err, d.f.Close())
}
