package datafile

import "errors"

var (
	// ErrEmptyFile indicates that the record file has no bytes to map.
	ErrEmptyFile = errors.New("datafile: file size is zero")

	// ErrNotEnoughRecords indicates that the buffer holds fewer complete
	// (newline-terminated) records than requested.
	ErrNotEnoughRecords = errors.New("datafile: not enough records")

	// ErrNegativeCount indicates a negative record count request.
	ErrNegativeCount = errors.New("datafile: negative record count")

	// ErrClosed indicates use of a File after Close.
	ErrClosed = errors.New("datafile: file already closed")
)
