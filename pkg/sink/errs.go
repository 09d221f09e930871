package sink

import "errors"

var (
	// ErrShortTransfer indicates that fewer bytes than requested reached the sink.
	ErrShortTransfer = errors.New("sink: short transfer")

	// ErrNoConnections indicates a connection set of size zero.
	ErrNoConnections = errors.New("sink: no connections requested")
)
