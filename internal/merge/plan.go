package merge

import (
	"time"

	"trendsv1/internal/model"
)

// FetchStart returns the first day to request from the provider. With no
// stored history it is defaultDays before now; otherwise it backs up
// overlapDays from the newest stored point so recent corrections are picked up.
func FetchStart(existing model.Series, overlapDays, defaultDays int, now time.Time) time.Time {
	if existing.Empty() {
		return now.UTC().AddDate(0, 0, -defaultDays)
	}
	return existing.Points[existing.Len()-1].Time().AddDate(0, 0, -overlapDays)
}

// NeedsOlderData reports whether stored history starts after the beginning
// of the requested window, and if so the date to fetch from.
//
// An unbounded window always needs older data: the series alone cannot
// show that it starts where the provider's history starts. Callers that
// track full coverage elsewhere skip the call.
func NeedsOlderData(existing model.Series, days model.Days, now time.Time) (bool, time.Time) {
	if days.Max {
		return true, time.Time{}
	}
	required := now.UTC().AddDate(0, 0, -days.N)
	if existing.Empty() {
		return true, required
	}
	if existing.Points[0].Time().After(required) {
		return true, required
	}
	return false, time.Time{}
}

// FetchDays converts a planned start date into the day count requested from
// a provider that only understands "last N days".
func FetchDays(start, now time.Time) model.Days {
	n := int(now.Sub(start).Hours()/24) + 1
	if n < 1 {
		n = 1
	}
	return model.Days{N: n}
}
