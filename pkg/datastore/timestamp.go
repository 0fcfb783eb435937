package datastore

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a position on the media timeline in milliseconds. Negative
// values are legal and serialize as signed decimals.
type Timestamp int64

// String is the canonical text form: decimal milliseconds.
func (t Timestamp) String() string {
	return strconv.FormatInt(int64(t), 10)
}

// Duration converts the timestamp to a time.Duration.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t) * time.Millisecond
}

// Clock renders the timestamp as HH:MM:SS:mmm for display, with a leading
// "-" before media start.
func (t Timestamp) Clock() string {
	ms := int64(t)
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%s%02d:%02d:%02d:%03d", sign, h, m, s, ms)
}

// ParseTimestamp accepts signed decimal milliseconds ("1000", "-5") or the
// clock form "HH:MM:SS:mmm" used by older annotation files.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}

	if !strings.Contains(s, ":") {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		return Timestamp(ms), nil
	}

	neg := strings.HasPrefix(s, "-")
	parts := strings.Split(strings.TrimPrefix(s, "-"), ":")
	if len(parts) != 4 {
		return 0, fmt.Errorf("invalid timestamp %q: expected HH:MM:SS:mmm", s)
	}
	limits := []int64{-1, 60, 60, 1000}
	scale := []int64{3_600_000, 60_000, 1000, 1}
	var total int64
	for i, p := range parts {
		u, err := strconv.ParseUint(p, 10, 63)
		n := int64(u)
		if err != nil || (limits[i] > 0 && n >= limits[i]) {
			return 0, fmt.Errorf("invalid timestamp %q: bad component %q", s, p)
		}
		total += n * scale[i]
	}
	if neg {
		total = -total
	}
	return Timestamp(total), nil
}
