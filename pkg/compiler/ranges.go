package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRange decomposes a range literal of the form NAME(MIN-MAX), where
// NAME is optional and MIN and MAX are signed integers with MIN <= MAX.
// Failures are returned as *RangeError.
func ParseRange(text string) (min, max int64, err error) {
	fail := func(format string, args ...any) (int64, int64, error) {
		return 0, 0, &RangeError{Text: text, Reason: fmt.Sprintf(format, args...)}
	}

	open := strings.IndexByte(text, '(')
	if open < 0 || !strings.HasSuffix(text, ")") || open == len(text)-1 {
		return fail("expected (MIN-MAX)")
	}
	body := text[open+1 : len(text)-1]
	if body == "" {
		return fail("empty bounds")
	}
	// A leading '-' is the sign of MIN, not the separator.
	sep := strings.IndexByte(body[1:], '-')
	if sep < 0 {
		return fail("missing '-' between bounds")
	}
	sep++
	lo, hi := body[:sep], body[sep+1:]

	min, err = strconv.ParseInt(lo, 10, 64)
	if err != nil {
		return fail("invalid lower bound %q", lo)
	}
	max, err = strconv.ParseInt(hi, 10, 64)
	if err != nil {
		return fail("invalid upper bound %q", hi)
	}
	if min > max {
		return fail("lower bound %d exceeds upper bound %d", min, max)
	}
	return min, max, nil
}
