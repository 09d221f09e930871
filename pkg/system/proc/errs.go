package proc

import "errors"

var (
	// ErrNoStat indicates that /proc/<pid>/stat was empty or malformed.
	ErrNoStat = errors.New("proc: malformed or empty stat")

	// ErrShortStat indicates that /proc/<pid>/stat had fewer fields than expected.
	ErrShortStat = errors.New("proc: short stat")

	// ErrProcessGone indicates that the monitored process no longer exists.
	ErrProcessGone = errors.New("proc: process exited")

	// ErrBadPID indicates a negative or zero process identifier.
	ErrBadPID = errors.New("proc: invalid pid")
)
