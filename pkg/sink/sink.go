//go:build linux

package sink

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/sys/unix"
)

// Sink receives byte ranges of the input file each tick.
type Sink interface {
	// Transfer copies src[0:n) into the sink and returns the bytes written.
	// A short count comes with a non-nil error.
	Transfer(src int, n int64) (int64, error)
	Name() string
	Close() error
}

// rawSink moves data with sendfile(2) so bytes go kernel to kernel without
// passing through user space.
type rawSink struct {
	name string
	rc   syscall.RawConn
	c    io.Closer
}

type rawConner interface {
	syscall.Conn
	io.Closer
}

func newRawSink(name string, c rawConner) (*rawSink, error) {
	rc, err := c.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("%s: raw conn: %w", name, err)
	}
	return &rawSink{name: name, rc: rc, c: c}, nil
}

func (s *rawSink) Name() string { return s.name }

func (s *rawSink) Close() error { return s.c.Close() }

func (s *rawSink) Transfer(src int, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}

	var (
		off     int64
		written int64
		serr    error
	)
	err := s.rc.Write(func(fd uintptr) bool {
		for written < n {
			chunk := n - written
			if chunk > maxSendfileChunk {
				chunk = maxSendfileChunk
			}
			m, e := unix.Sendfile(int(fd), src, &off, int(chunk))
			if m > 0 {
				written += int64(m)
			}
			switch {
			case errors.Is(e, unix.EINTR):
				continue
			case errors.Is(e, unix.EAGAIN):
				// wait for the socket to drain
				return false
			case e != nil:
				serr = e
				return true
			case m == 0:
				// source exhausted before n bytes
				return true
			}
		}
		return true
	})
	if err == nil {
		err = serr
	}
	if err != nil {
		return written, fmt.Errorf("%s: sendfile: %w", s.name, err)
	}
	if written < n {
		return written, fmt.Errorf("%s: %w: %d of %d bytes", s.name, ErrShortTransfer, written, n)
	}
	return written, nil
}

// sendfile(2) moves at most 0x7ffff000 bytes per call.
const maxSendfileChunk = 0x7ffff000

// CloseAll closes every sink and joins the errors.
func CloseAll(sinks []Sink) error {
	var err error
	for _, s := range sinks {
		if s == nil {
			continue
		}
		err = errors.Join(err, s.Close())
	}
	return err
}
