package model

import "encoding/json"

// Data is the payload an indicator dataset hands to the presentation layer.
// The set is closed: Series, BandSeries, MultiLineSeries and TrendSeries.
type Data interface {
	// Len is the number of points in the primary line.
	Len() int
	// Window drops points older than cutoff from every line.
	Window(cutoff int64) Data

	isData()
}

func (Series) isData() {}

// Window implements Data.
func (s Series) Window(cutoff int64) Data { return s.Since(cutoff) }

// BandSeries holds three parallel simple series with identical timestamps.
type BandSeries struct {
	Upper  Series `json:"upper"`
	Middle Series `json:"middle"`
	Lower  Series `json:"lower"`
}

func (BandSeries) isData() {}
func (b BandSeries) Len() int { return b.Middle.Len() }

func (b BandSeries) Window(cutoff int64) Data {
	return BandSeries{
		Upper:  b.Upper.Since(cutoff),
		Middle: b.Middle.Since(cutoff),
		Lower:  b.Lower.Since(cutoff),
	}
}

// Line is one named member of a MultiLineSeries. Offset is the index into
// the source price series of the line's first point.
type Line struct {
	Name   string
	Offset int
	Series Series
}

// MultiLineSeries is a set of named lines derived from one source series,
// each starting at its own offset but aligned to the source timestamps.
type MultiLineSeries struct {
	Lines []Line
}

func (MultiLineSeries) isData() {}

// Len returns the length of the first (primary) line.
func (m MultiLineSeries) Len() int {
	if len(m.Lines) == 0 {
		return 0
	}
	return m.Lines[0].Series.Len()
}

// Line looks up a line by name.
func (m MultiLineSeries) Line(name string) (Series, bool) {
	for _, l := range m.Lines {
		if l.Name == name {
			return l.Series, true
		}
	}
	return Series{}, false
}

// Window trims every line by the same cutoff. Offsets are advanced by the
// number of dropped points so they stay relative to the source series.
func (m MultiLineSeries) Window(cutoff int64) Data {
	out := MultiLineSeries{Lines: make([]Line, len(m.Lines))}
	for i, l := range m.Lines {
		trimmed := l.Series.Since(cutoff)
		out.Lines[i] = Line{
			Name:   l.Name,
			Offset: l.Offset + (l.Series.Len() - trimmed.Len()),
			Series: trimmed,
		}
	}
	return out
}

// MarshalJSON encodes as {"<name>": [[ts, v], ...], ...}.
func (m MultiLineSeries) MarshalJSON() ([]byte, error) {
	obj := make(map[string]Series, len(m.Lines))
	for _, l := range m.Lines {
		obj[l.Name] = l.Series
	}
	return json.Marshal(obj)
}
