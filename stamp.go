package main

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// stampDigits is the fixed width of a millisecond epoch stamp.
const stampDigits = 13

// ErrBadStamp is returned when a string is not a 13-digit stamp.
var ErrBadStamp = errors.New("not a 13-digit millisecond stamp")

// Stamp is a point in time in milliseconds since the Unix epoch.
type Stamp int64

// ParseStamp parses exactly 13 ASCII digits.
func ParseStamp(s string) (Stamp, error) {
	if len(s) != stampDigits {
		return 0, errors.Wrapf(ErrBadStamp, "%q", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, errors.Wrapf(ErrBadStamp, "%q", s)
		}
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %q", s)
	}
	return Stamp(ms), nil
}

// Time converts the stamp to a calendar time in loc.
func (s Stamp) Time(loc *time.Location) time.Time {
	ms := int64(s)
	return time.Unix(ms/1000, millisToNanos(ms%1000)).In(loc)
}

// Since returns s-anchor in milliseconds. Spans beyond about 292 years do
// not fit in a time.Duration.
func (s Stamp) Since(anchor Stamp) int64 {
	return int64(s) - int64(anchor)
}

// StampOf truncates t to millisecond precision.
func StampOf(t time.Time) Stamp {
	return Stamp(t.UnixMilli())
}

func millisToNanos(millis int64) int64 {
	return millis * int64(time.Millisecond/time.Nanosecond)
}
