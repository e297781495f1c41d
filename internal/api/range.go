package api

import (
	"errors"
	"strconv"
	"strings"
)

// errInvalidRange marks a Range header the file cannot satisfy (416).
var errInvalidRange = errors.New("invalid range")

// byteRange is a validated, inclusive byte span within a file.
type byteRange struct {
	start  int64
	end    int64
	length int64
}

// parseRange interprets a single-range `bytes=` header against a file of the
// given size. Suffix form `bytes=-N` takes the final min(N, size) bytes; an
// absent or overlong end clamps to size-1. Multi-range requests and spans
// outside the file are rejected.
func parseRange(header string, size int64) (byteRange, error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return byteRange{}, errInvalidRange
	}
	startPart, endPart, ok := strings.Cut(spec, "-")
	if !ok {
		return byteRange{}, errInvalidRange
	}

	var start, end int64
	switch {
	case startPart == "":
		// Suffix range: last N bytes.
		suffix, err := strconv.ParseInt(endPart, 10, 64)
		if err != nil || suffix <= 0 {
			return byteRange{}, errInvalidRange
		}
		if suffix > size {
			suffix = size
		}
		start = size - suffix
		end = size - 1
	default:
		var err error
		start, err = strconv.ParseInt(startPart, 10, 64)
		if err != nil || start < 0 || start >= size {
			return byteRange{}, errInvalidRange
		}
		end = size - 1
		if endPart != "" {
			end, err = strconv.ParseInt(endPart, 10, 64)
			if err != nil || end < start {
				return byteRange{}, errInvalidRange
			}
			if end >= size {
				end = size - 1
			}
		}
	}
	return byteRange{start: start, end: end, length: end - start + 1}, nil
}
