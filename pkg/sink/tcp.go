//go:build linux

package sink

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// DefaultHost and DefaultPort are used when the target omits them.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = "5170"
)

// ParseAddr normalizes "host[:port]" into host:port using the defaults for
// missing parts.
func ParseAddr(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return net.JoinHostPort(DefaultHost, DefaultPort)
	}
	host, port, err := net.SplitHostPort(target)
	if err != nil {
		// no port, or a bare IPv6 address
		return net.JoinHostPort(strings.Trim(target, "[]"), DefaultPort)
	}
	if host == "" {
		host = DefaultHost
	}
	if port == "" {
		port = DefaultPort
	}
	return net.JoinHostPort(host, port)
}

// Dial opens n TCP connections to addr. The returned sinks are ordered by
// connection time. On any failure the connections opened so far are closed.
func Dial(ctx context.Context, addr string, n int) ([]Sink, error) {
	if n < 1 {
		return nil, ErrNoConnections
	}

	var d net.Dialer
	sinks := make([]Sink, 0, n)
	for i := 0; i < n; i++ {
		c, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			_ = CloseAll(sinks)
			return nil, fmt.Errorf("connection #%d to %s: %w", i, addr, err)
		}
		s, err := newRawSink(fmt.Sprintf("%s#%d", addr, i), c.(*net.TCPConn))
		if err != nil {
			_ = c.Close()
			_ = CloseAll(sinks)
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}
