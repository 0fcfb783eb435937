package timespec

import (
	"fmt"
	"time"

	"github.com/dyluth/coda/pkg/datastore"
)

// Parse parses a media time specification into a timestamp.
// Supports three formats:
//   - milliseconds: "1500"
//   - clock form: "00:01:30:250"
//   - Go duration format: "90s", "1m30.25s", "2h"
//
// All forms are offsets from the start of the media, never from now.
func Parse(spec string) (datastore.Timestamp, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}

	if ts, err := datastore.ParseTimestamp(spec); err == nil {
		if ts < 0 {
			return 0, fmt.Errorf("negative time specification: %s", spec)
		}
		return ts, nil
	}

	if d, err := time.ParseDuration(spec); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("negative time specification: %s", spec)
		}
		return datastore.Timestamp(d.Milliseconds()), nil
	}

	return 0, fmt.Errorf("invalid time specification: %s (use milliseconds like '1500', HH:MM:SS:mmm, or a duration like '1m30s')", spec)
}

// Window is a closed media time range. A nil bound is open.
type Window struct {
	From *datastore.Timestamp
	To   *datastore.Timestamp
}

// ParseRange parses the --from and --to flags into a window.
// Empty strings leave that end open. Validates that from <= to.
func ParseRange(from, to string) (Window, error) {
	var w Window

	if from != "" {
		ts, err := Parse(from)
		if err != nil {
			return Window{}, fmt.Errorf("invalid --from: %w", err)
		}
		w.From = &ts
	}

	if to != "" {
		ts, err := Parse(to)
		if err != nil {
			return Window{}, fmt.Errorf("invalid --to: %w", err)
		}
		w.To = &ts
	}

	if w.From != nil && w.To != nil && *w.From > *w.To {
		return Window{}, fmt.Errorf("--from must not be after --to")
	}

	return w, nil
}
