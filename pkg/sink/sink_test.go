//go:build linux

package sink

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceFile(t *testing.T, content []byte) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.log")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestFileSink_TransferPrefix(t *testing.T) {
	src := sourceFile(t, []byte("one\ntwo\nthree\n"))
	out := filepath.Join(t.TempDir(), "out.log")

	s, err := OpenFile(out)
	require.NoError(t, err)
	assert.Equal(t, out, s.Name())

	n, err := s.Transfer(int(src.Fd()), 8)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	// every transfer restarts at the beginning of the source
	n, err = s.Transfer(int(src.Fd()), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	n, err = s.Transfer(int(src.Fd()), 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Close())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\none\n", string(b))
}

func TestFileSink_Truncates(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.log")
	require.NoError(t, os.WriteFile(out, []byte("stale content"), 0o644))

	s, err := OpenFile(out)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestFileSink_ShortSource(t *testing.T) {
	src := sourceFile(t, []byte("abc\n"))
	s, err := OpenFile(filepath.Join(t.TempDir(), "out.log"))
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Transfer(int(src.Fd()), 100)
	assert.ErrorIs(t, err, ErrShortTransfer)
	assert.Equal(t, int64(4), n)
}

func TestFileSink_BadSource(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "out.log"))
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Transfer(-1, 10)
	require.Error(t, err)
	assert.Zero(t, n)
}

func TestOpenFile_Error(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "no", "such", "dir", "out.log"))
	assert.Error(t, err)
}

func TestParseAddr(t *testing.T) {
	cases := map[string]string{
		"":               "127.0.0.1:5170",
		"localhost":      "localhost:5170",
		"localhost:9000": "localhost:9000",
		":9000":          "127.0.0.1:9000",
		"10.0.0.1:":      "10.0.0.1:5170",
		"::1":            "[::1]:5170",
		"[::1]:24224":    "[::1]:24224",
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseAddr(in), "input %q", in)
	}
}

// collector accepts connections and stores everything each one sends.
type collector struct {
	ln   net.Listener
	wg   sync.WaitGroup
	mu   sync.Mutex
	data []*bytes.Buffer
}

func newCollector(t *testing.T) *collector {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	c := &collector{ln: ln}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			buf := &bytes.Buffer{}
			c.wg.Add(1)
			c.mu.Lock()
			c.data = append(c.data, buf)
			c.mu.Unlock()
			go func() {
				defer c.wg.Done()
				defer conn.Close()
				_, _ = io.Copy(buf, conn)
			}()
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return c
}

// wait blocks until every accepted connection reached EOF.
func (c *collector) wait(t *testing.T, conns int) []string {
	t.Helper()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.data) == conns
	}, 5*time.Second, 10*time.Millisecond)
	c.wg.Wait()
	out := make([]string, 0, conns)
	for _, b := range c.data {
		out = append(out, b.String())
	}
	return out
}

func TestDial_TransferToEveryConnection(t *testing.T) {
	c := newCollector(t)
	src := sourceFile(t, []byte("r1\nr2\nr3\n"))

	sinks, err := Dial(context.Background(), c.ln.Addr().String(), 3)
	require.NoError(t, err)
	require.Len(t, sinks, 3)

	for _, s := range sinks {
		n, err := s.Transfer(int(src.Fd()), 6)
		require.NoError(t, err)
		assert.Equal(t, int64(6), n)
	}
	require.NoError(t, CloseAll(sinks))

	for _, got := range c.wait(t, 3) {
		assert.Equal(t, "r1\nr2\n", got)
	}
}

func TestDial_LargeTransfer(t *testing.T) {
	c := newCollector(t)
	payload := bytes.Repeat([]byte("0123456789abcdef\n"), 1<<16) // ~1.1 MiB, larger than a socket buffer
	src := sourceFile(t, payload)

	sinks, err := Dial(context.Background(), c.ln.Addr().String(), 1)
	require.NoError(t, err)

	n, err := sinks[0].Transfer(int(src.Fd()), int64(len(payload)))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	require.NoError(t, CloseAll(sinks))

	got := c.wait(t, 1)
	assert.Equal(t, len(payload), len(got[0]))
}

func TestDial_Errors(t *testing.T) {
	_, err := Dial(context.Background(), "127.0.0.1:1", 0)
	assert.ErrorIs(t, err, ErrNoConnections)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Dial(context.Background(), addr, 2)
	assert.Error(t, err)
}
