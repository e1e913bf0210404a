package pixel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadLogline is returned for a malformed pipe wrapper.
var ErrBadLogline = errors.New("pixel: invalid logline")

// SplitLogline splits the feed wire form "<customer>|<unix_seconds>|<body>".
// The body may itself contain '|'.
func SplitLogline(line string) (customer string, unixSec uint64, body string, err error) {
	c := strings.Index(line, "|")
	if c < 0 {
		return "", 0, "", fmt.Errorf("%w: %q", ErrBadLogline, line)
	}
	t := strings.Index(line[c+1:], "|")
	if t < 0 {
		return "", 0, "", fmt.Errorf("%w: %q", ErrBadLogline, line)
	}
	t += c + 1
	unixSec, perr := strconv.ParseUint(line[c+1:t], 10, 64)
	if perr != nil {
		return "", 0, "", fmt.Errorf("%w: bad timestamp in %q", ErrBadLogline, line)
	}
	return line[:c], unixSec, line[t+1:], nil
}
