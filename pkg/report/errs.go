package report

import "errors"

var (
	// ErrUnknownFormat indicates an unsupported report format name.
	ErrUnknownFormat = errors.New("report: unknown format")

	// ErrNoSnapshots indicates a summary requested before any tick was recorded.
	ErrNoSnapshots = errors.New("report: no snapshots recorded")
)
