package utils

import (
	"time"
)

// TimeFromMillis converts an epoch timestamp in milliseconds, as used by the
// upstream feeds, into a time.Time. Zero input yields the zero time.
func TimeFromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond)).UTC()
}

// MillisFromTime converts a time.Time into an epoch timestamp in milliseconds.
// The zero time yields zero.
func MillisFromTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano() / int64(time.Millisecond)
}

// FloorToSecond rounds a time down to the previous whole second
func FloorToSecond(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.Truncate(time.Second)
}
