package writer

import "errors"

var (
	ErrNoSinks      = errors.New("writer: no sinks")
	ErrBadConfig    = errors.New("writer: invalid config")
	ErrInitialStats = errors.New("writer: initial sample failed")
)
