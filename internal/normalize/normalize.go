// Package normalize turns raw provider payloads into canonical daily series:
// UTC-midnight buckets, one point per day, ascending, with calendar gaps
// filled by linear interpolation.
package normalize

import (
	"log/slog"
	"math"
	"sort"

	"trendsv1/internal/model"
)

// Timestamps in [secondsLo, secondsHi) are taken to be Unix seconds
// (2001-09-09 .. 2286-11-20). Anything else is milliseconds.
const (
	secondsLo = 1_000_000_000
	secondsHi = 10_000_000_000
)

// ToMillis converts a provider timestamp given in seconds or milliseconds
// to milliseconds.
func ToMillis(ts float64) int64 {
	a := math.Abs(ts)
	if a >= secondsLo && a < secondsHi {
		return int64(ts * 1000)
	}
	return int64(ts)
}

// Normalize converts raw records into a canonical Series. It never fails:
// malformed records are skipped and logged, and input without a single valid
// record yields an empty Series.
//
// Same-day duplicates resolve first-wins, in input order. This is the
// opposite of merge.Merge, where the fresher record wins.
func Normalize(raw model.RawSeries) model.Series {
	kind := detectStructure(raw)
	if kind == model.StructureUnknown {
		if len(raw) > 0 {
			slog.Warn("normalize: no structurally valid record", "records", len(raw))
		}
		return model.Series{}
	}

	width := kind.Width()
	seen := make(map[int64]struct{}, len(raw))
	points := make([]model.TimePoint, 0, len(raw))
	var skippedWidth, skippedInvalid, skippedDup int

	for _, rec := range raw {
		if len(rec) != width {
			skippedWidth++
			continue
		}
		if !finite(rec) {
			skippedInvalid++
			continue
		}
		bucket := model.DayStart(ToMillis(rec[0]))
		if _, dup := seen[bucket]; dup {
			skippedDup++
			continue
		}

		var p model.TimePoint
		if kind == model.StructureOHLCV {
			bar := model.OHLCV{Open: rec[1], High: rec[2], Low: rec[3], Close: rec[4], Volume: rec[5]}
			if !bar.Valid() {
				skippedInvalid++
				continue
			}
			p = model.Bar(bucket, bar)
		} else {
			p = model.Simple(bucket, rec[1])
		}
		seen[bucket] = struct{}{}
		points = append(points, p)
	}

	if skippedWidth > 0 || skippedInvalid > 0 {
		slog.Warn("normalize: dropped records",
			"structure", kind.String(),
			"width_mismatch", skippedWidth,
			"invalid", skippedInvalid)
	}
	if skippedDup > 0 {
		slog.Debug("normalize: dropped same-day duplicates", "count", skippedDup)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].TS < points[j].TS })

	return model.Series{Kind: kind, Points: FillGaps(kind, points)}
}

// FillGaps inserts one synthesized point for every missing day between
// adjacent points. Simple values are interpolated linearly; OHLCV gaps get a
// flat zero-volume bar at the interpolated close. Points must be ascending
// and midnight-aligned.
func FillGaps(kind model.Structure, points []model.TimePoint) []model.TimePoint {
	if len(points) < 2 {
		return points
	}
	out := make([]model.TimePoint, 0, len(points))
	out = append(out, points[0])
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		steps := (cur.TS - prev.TS) / model.DayMs
		for k := int64(1); k < steps; k++ {
			frac := float64(k) / float64(steps)
			v := prev.Value + (cur.Value-prev.Value)*frac
			ts := prev.TS + k*model.DayMs
			if kind == model.StructureOHLCV {
				out = append(out, model.Bar(ts, model.Flat(v)))
			} else {
				out = append(out, model.Simple(ts, v))
			}
		}
		out = append(out, cur)
	}
	return out
}

// detectStructure returns the structure of the first record that has a
// supported width and only finite cells.
func detectStructure(raw model.RawSeries) model.Structure {
	for _, rec := range raw {
		kind := model.StructureForWidth(len(rec))
		if kind != model.StructureUnknown && finite(rec) {
			return kind
		}
	}
	return model.StructureUnknown
}

func finite(rec model.RawRecord) bool {
	for _, v := range rec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
