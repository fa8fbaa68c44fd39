// Package merge combines a persisted canonical series with a freshly
// normalized window and plans how much history to fetch next.
package merge

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"trendsv1/internal/model"
	"trendsv1/internal/normalize"
)

// DefaultOverlapDays is the trailing window of stored history that is
// expected to be revised by the next fetch.
const DefaultOverlapDays = 3

// Merge returns existing with the date range covered by fresh replaced by
// fresh. Points of existing strictly outside [fresh.First, fresh.Last] are
// kept unchanged. Timestamp collisions resolve last-write-wins, i.e. fresh
// wins; the normalizer resolves same-day duplicates the other way round.
// Days missing between the two are gap-filled the way the normalizer does,
// so the result stays one point per day.
//
// overlapDays only sizes the revision zone reported in logs; it never drops
// stored points that fresh does not cover.
func Merge(existing, fresh model.Series, overlapDays int) model.Series {
	if existing.Empty() {
		return fresh.Clone()
	}
	if fresh.Empty() {
		return existing.Clone()
	}
	if existing.Kind != fresh.Kind {
		slog.Warn("merge: structure changed, replacing stored history",
			"stored", existing.Kind.String(), "fresh", fresh.Kind.String())
		return fresh.Clone()
	}

	lo, hi := fresh.First(), fresh.Last()
	for _, p := range fresh.Points {
		lo = min(lo, p.TS)
		hi = max(hi, p.TS)
	}

	combined := make([]model.TimePoint, 0, existing.Len()+fresh.Len())
	replaced := 0
	for _, p := range existing.Points {
		if p.TS < lo || p.TS > hi {
			combined = append(combined, p)
		} else {
			replaced++
		}
	}
	combined = append(combined, fresh.Points...)

	// Stable so that, among equal timestamps, fresh points stay after stored
	// ones and dedupLastWins keeps them.
	sort.SliceStable(combined, func(i, j int) bool { return combined[i].TS < combined[j].TS })
	deduped := dedupLastWins(combined)
	out := model.Series{Kind: existing.Kind, Points: normalize.FillGaps(existing.Kind, deduped)}

	revisionFrom := existing.Last() - int64(overlapDays)*model.DayMs
	slog.Debug("merge: combined series",
		"stored", existing.Len(),
		"fresh", fresh.Len(),
		"replaced", replaced,
		"gap_filled", out.Len()-len(deduped),
		"revision_zone_start", time.UnixMilli(revisionFrom).UTC().Format(time.DateOnly),
		"result", out.Len())

	if ok, _, msg := ValidateDataStructure(out); !ok {
		slog.Warn("merge: result failed validation", "reason", msg)
	}
	return out
}

// dedupLastWins collapses runs of equal timestamps in an ascending slice to
// their last element.
func dedupLastWins(pts []model.TimePoint) []model.TimePoint {
	out := make([]model.TimePoint, 0, len(pts))
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1].TS == p.TS {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// ValidateDataStructure is a post-merge sanity check. It never blocks
// persistence: callers log the message and carry on.
func ValidateDataStructure(s model.Series) (valid bool, kind model.Structure, msg string) {
	if s.Empty() {
		return false, model.StructureUnknown, "empty data"
	}
	if s.Kind == model.StructureUnknown {
		return false, model.StructureUnknown, "unknown record structure"
	}
	for i := 1; i < len(s.Points); i++ {
		if s.Points[i].TS <= s.Points[i-1].TS {
			return false, s.Kind, fmt.Sprintf("non-ascending or duplicate timestamp at index %d", i)
		}
	}
	for i := 1; i < len(s.Points); i++ {
		if s.Points[i].TS-s.Points[i-1].TS != model.DayMs {
			return false, s.Kind, fmt.Sprintf("calendar gap before index %d", i)
		}
	}
	if s.Kind == model.StructureOHLCV {
		for i, p := range s.Points {
			if !p.Bar.Valid() {
				return false, s.Kind, fmt.Sprintf("inconsistent OHLCV bar at index %d", i)
			}
		}
	}
	return true, s.Kind, ""
}
