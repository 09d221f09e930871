package datafile

import (
	"bytes"
	"fmt"
)

// OffsetRecords returns the byte offset immediately after the n-th '\n' in
// buf, so that buf[:offset] holds exactly n complete records.
//
// A trailing record without a terminating newline is never counted. Asking
// for zero records always yields offset 0.
func OffsetRecords(buf []byte, n int) (int64, error) {
	if n < 0 {
		return 0, ErrNegativeCount
	}
	if n == 0 {
		return 0, nil
	}

	var (
		total int
		pos   int
	)
	for pos < len(buf) {
		i := bytes.IndexByte(buf[pos:], '\n')
		if i < 0 {
			break
		}
		pos += i + 1
		total++
		if total == n {
			return int64(pos), nil
		}
	}
	return 0, fmt.Errorf("%w: want %d, found %d", ErrNotEnoughRecords, n, total)
}

// CountRecords returns the number of complete records in buf.
func CountRecords(buf []byte) int {
	return bytes.Count(buf, []byte{'\n'})
}
