// Package indexer rescales series to a common baseline so assets quoted in
// different units can be compared on one chart.
package indexer

import (
	"log/slog"

	"trendsv1/internal/extract"
	"trendsv1/internal/model"
)

// DefaultBaseline is the value every indexed series starts at.
const DefaultBaseline = 100.0

// IndexToBaseline rescales data so that its first value equals baseline:
// out[i] = baseline * value[i] / value[0].
//
// OHLCV input is reduced to its close first. A BandSeries is scaled as a
// whole by the middle band's first value, so band width stays a percentage
// of the baseline. Each line of a MultiLineSeries is scaled independently.
// A TrendSeries keeps its trend column. When the reference value is zero the
// input is returned unchanged.
func IndexToBaseline(data model.Data, baseline float64) model.Data {
	switch d := data.(type) {
	case model.Series:
		return indexSeries(d, baseline)
	case model.BandSeries:
		if d.Middle.Empty() {
			return d
		}
		ref := d.Middle.Points[0].Value
		if ref == 0 {
			slog.Warn("indexer: middle band starts at zero, returning unindexed")
			return d
		}
		return model.BandSeries{
			Upper:  scale(d.Upper, baseline/ref),
			Middle: scale(d.Middle, baseline/ref),
			Lower:  scale(d.Lower, baseline/ref),
		}
	case model.MultiLineSeries:
		out := model.MultiLineSeries{Lines: make([]model.Line, len(d.Lines))}
		for i, l := range d.Lines {
			l.Series = indexSeries(l.Series, baseline)
			out.Lines[i] = l
		}
		return out
	case model.TrendSeries:
		if d.Len() == 0 {
			return d
		}
		ref := d.Points[0].Value
		if ref == 0 {
			slog.Warn("indexer: first level is zero, returning unindexed")
			return d
		}
		out := model.TrendSeries{Points: make([]model.TrendPoint, len(d.Points))}
		for i, p := range d.Points {
			p.Value *= baseline / ref
			out.Points[i] = p
		}
		return out
	default:
		return data
	}
}

func indexSeries(s model.Series, baseline float64) model.Series {
	if s.Empty() {
		return s
	}
	ref := s.Points[0].Value
	if ref == 0 {
		slog.Warn("indexer: first value is zero, returning unindexed", "points", s.Len())
		return s
	}
	return scale(extract.Extract(s, extract.Close), baseline/ref)
}

func scale(s model.Series, factor float64) model.Series {
	out := model.Series{Kind: model.StructureSimple, Points: make([]model.TimePoint, len(s.Points))}
	for i, p := range s.Points {
		out.Points[i] = model.Simple(p.TS, p.Value*factor)
	}
	return out
}

// ReindexFromTimestamp drops every point before t0 (ms) and indexes the
// remainder from its new first point.
func ReindexFromTimestamp(data model.Data, t0 int64, baseline float64) model.Data {
	if data == nil {
		return nil
	}
	return IndexToBaseline(data.Window(t0), baseline)
}

// PercentageChange returns 100 * (value[i] - value[0]) / value[0]. Like
// IndexToBaseline it returns the input unchanged when value[0] is zero.
func PercentageChange(s model.Series) model.Series {
	if s.Empty() {
		return s
	}
	ref := s.Points[0].Value
	if ref == 0 {
		slog.Warn("indexer: first value is zero, cannot compute percentage change")
		return s
	}
	closes := extract.Extract(s, extract.Close)
	out := model.Series{Kind: model.StructureSimple, Points: make([]model.TimePoint, len(closes.Points))}
	for i, p := range closes.Points {
		out.Points[i] = model.Simple(p.TS, 100*(p.Value-ref)/ref)
	}
	return out
}
