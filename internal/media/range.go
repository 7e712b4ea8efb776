package media

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnsatisfiable means a Range header cannot be served against the object.
var ErrUnsatisfiable = errors.New("range not satisfiable")

// ParseRange parses a single-range "bytes=" header against an object of the
// given size and returns the inclusive byte bounds. An end past the object is
// clamped to the last byte.
func ParseRange(header string, size int64) (start, end int64, err error) {
	rng, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok || strings.Contains(rng, ",") {
		return 0, 0, ErrUnsatisfiable
	}
	first, last, ok := strings.Cut(strings.TrimSpace(rng), "-")
	if !ok {
		return 0, 0, ErrUnsatisfiable
	}
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)

	if first == "" {
		// suffix form: last N bytes
		n, err := parseOffset(last)
		if err != nil || n == 0 || size == 0 {
			return 0, 0, ErrUnsatisfiable
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, nil
	}

	start, err = parseOffset(first)
	if err != nil || start >= size {
		return 0, 0, ErrUnsatisfiable
	}
	if last == "" {
		return start, size - 1, nil
	}
	end, err = parseOffset(last)
	if err != nil || end < start {
		return 0, 0, ErrUnsatisfiable
	}
	if end >= size {
		end = size - 1
	}
	return start, end, nil
}

func parseOffset(s string) (int64, error) {
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, ErrUnsatisfiable
	}
	return strconv.ParseInt(s, 10, 64)
}
