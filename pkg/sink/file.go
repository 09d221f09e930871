//go:build linux

package sink

import (
	"fmt"
	"os"
)

// OpenFile creates or truncates path and returns it as a Sink.
func OpenFile(path string) (Sink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open output file %q: %w", path, err)
	}
	s, err := newRawSink(path, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}
