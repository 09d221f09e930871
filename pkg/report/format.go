package report

import (
	"fmt"
	"io"
	"strings"
)

// Format selects the report layout.
type Format int

const (
	Text     Format = iota // fixed-width columns
	Markdown               // Markdown table
	CSV                    // comma separated values
)

func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case Markdown:
		return "markdown"
	case CSV:
		return "csv"
	default:
		return "unknown"
	}
}

// ParseFormat maps a case-insensitive format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "markdown", "md":
		return Markdown, nil
	case "csv":
		return CSV, nil
	default:
		return Text, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func writeHeader(w io.Writer, f Format) error {
	var err error
	switch f {
	case Markdown:
		_, err = io.WriteString(w,
			"| records | write (b) | write | secs | %cpu | user (ms) | sys (ms) | Mem (bytes) | Mem |\n"+
				"|    ---: |      ---: |  ---: | ---: | ---: |      ---: |     ---: |        ---: |---: |\n")
	case CSV:
		_, err = io.WriteString(w, "records,write_bytes,write_human,secs,cpu,user_ms,sys_ms,mem_bytes,mem_human\n")
	default:
		_, err = io.WriteString(w,
			" records   write (b)     write   secs |  % cpu  user (ms)  sys (ms)  Mem (bytes)      Mem\n"+
				"--------  ----------  --------  ----- + ------  ---------  --------  -----------  -------\n")
	}
	return err
}

func writeRow(w io.Writer, f Format, r Row) error {
	var format string
	switch f {
	case Markdown:
		format = "| %d | %d | %s | %.2f | %.2f | %d | %d | %d | %s |\n"
	case CSV:
		format = "%d,%d,%s,%.2f,%.2f,%d,%d,%d,%s\n"
	default:
		format = "%8d  %10d  %8s  %5.2f | %6.2f  %9d  %8d %12d %8s\n"
	}
	_, err := fmt.Fprintf(w, format,
		r.Records,
		r.Bytes,
		r.Bytes.Humanized(),
		r.Duration,
		r.CPU,
		r.UserMs,
		r.SysMs,
		r.Mem,
		r.Mem.Humanized(),
	)
	return err
}
