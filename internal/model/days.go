package model

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDays is returned by ParseDays for anything other than "max" or
// a positive integer.
var ErrInvalidDays = errors.New("days must be \"max\" or a positive integer")

// Days is a requested lookback window: either unbounded ("max") or the last
// N days relative to the time of the call.
type Days struct {
	Max bool
	N   int
}

// MaxDays is the unbounded window.
var MaxDays = Days{Max: true}

// ParseDays parses the "days" request parameter.
func ParseDays(s string) (Days, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "max") {
		return MaxDays, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return Days{}, ErrInvalidDays
	}
	return Days{N: n}, nil
}

func (d Days) String() string {
	if d.Max {
		return "max"
	}
	return strconv.Itoa(d.N)
}

// Plus widens a bounded window by extra days. Used to fetch enough history
// for an indicator's warm-up. "max" stays "max".
func (d Days) Plus(extra int) Days {
	if d.Max {
		return d
	}
	return Days{N: d.N + extra}
}

// Cutoff returns the earliest timestamp (ms) retained for this window,
// evaluated at now. bounded is false for "max".
func (d Days) Cutoff(now time.Time) (cutoffMs int64, bounded bool) {
	if d.Max {
		return 0, false
	}
	return now.UTC().Add(-time.Duration(d.N) * 24 * time.Hour).UnixMilli(), true
}

// Trim applies the window to any Data payload.
func (d Days) Trim(data Data, now time.Time) Data {
	cutoff, bounded := d.Cutoff(now)
	if !bounded || data == nil {
		return data
	}
	return data.Window(cutoff)
}
