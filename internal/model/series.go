package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Structure identifies the record layout of a Series.
type Structure int

const (
	StructureUnknown Structure = iota
	StructureSimple            // [timestamp, value]
	StructureOHLCV             // [timestamp, open, high, low, close, volume]
)

func (s Structure) String() string {
	switch s {
	case StructureSimple:
		return "simple"
	case StructureOHLCV:
		return "OHLCV"
	default:
		return "unknown"
	}
}

// Width is the tuple width of one wire record, timestamp included.
func (s Structure) Width() int {
	switch s {
	case StructureSimple:
		return 2
	case StructureOHLCV:
		return 6
	default:
		return 0
	}
}

// StructureForWidth maps a wire record width back to a Structure.
func StructureForWidth(w int) Structure {
	switch w {
	case 2:
		return StructureSimple
	case 6:
		return StructureOHLCV
	default:
		return StructureUnknown
	}
}

// Series is an ordered sequence of points sharing one Structure.
//
// A canonical Series (the output of the normalizer) has strictly increasing,
// unique, midnight-aligned timestamps and exactly one point per day.
// Transforms never mutate a Series; they return a new one.
type Series struct {
	Kind   Structure
	Points []TimePoint
}

// NewSimple builds a simple Series from parallel timestamp/value slices.
func NewSimple(ts []int64, values []float64) Series {
	n := min(len(ts), len(values))
	pts := make([]TimePoint, n)
	for i := 0; i < n; i++ {
		pts[i] = Simple(ts[i], values[i])
	}
	return Series{Kind: StructureSimple, Points: pts}
}

func (s Series) Len() int    { return len(s.Points) }
func (s Series) Empty() bool { return len(s.Points) == 0 }

// First returns the earliest timestamp, or 0 for an empty series.
func (s Series) First() int64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[0].TS
}

// Last returns the latest timestamp, or 0 for an empty series.
func (s Series) Last() int64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].TS
}

// Values returns the Value column (close for OHLCV).
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Timestamps returns the timestamp column.
func (s Series) Timestamps() []int64 {
	out := make([]int64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.TS
	}
	return out
}

// Clone returns a deep copy.
func (s Series) Clone() Series {
	pts := make([]TimePoint, len(s.Points))
	copy(pts, s.Points)
	return Series{Kind: s.Kind, Points: pts}
}

// Since keeps points with TS >= cutoff. The input must be ascending.
func (s Series) Since(cutoff int64) Series {
	i := 0
	for i < len(s.Points) && s.Points[i].TS < cutoff {
		i++
	}
	pts := make([]TimePoint, len(s.Points)-i)
	copy(pts, s.Points[i:])
	return Series{Kind: s.Kind, Points: pts}
}

// MarshalJSON encodes the series in the wire layout the charting frontend
// consumes: an array of [ts, value] or [ts, o, h, l, c, v] arrays.
func (s Series) MarshalJSON() ([]byte, error) {
	rows := make([][]float64, len(s.Points))
	for i, p := range s.Points {
		if s.Kind == StructureOHLCV {
			rows[i] = []float64{float64(p.TS), p.Bar.Open, p.Bar.High, p.Bar.Low, p.Bar.Close, p.Bar.Volume}
		} else {
			rows[i] = []float64{float64(p.TS), jsonSafe(p.Value)}
		}
	}
	return json.Marshal(rows)
}

// UnmarshalJSON decodes the wire layout produced by MarshalJSON. The
// structure is taken from the first row; rows of another width are rejected.
func (s *Series) UnmarshalJSON(b []byte) error {
	var rows [][]float64
	if err := json.Unmarshal(b, &rows); err != nil {
		return err
	}
	*s = Series{}
	if len(rows) == 0 {
		return nil
	}
	s.Kind = StructureForWidth(len(rows[0]))
	if s.Kind == StructureUnknown {
		return fmt.Errorf("series: unsupported record width %d", len(rows[0]))
	}
	s.Points = make([]TimePoint, 0, len(rows))
	for i, r := range rows {
		if len(r) != s.Kind.Width() {
			return fmt.Errorf("series: record %d has width %d, want %d", i, len(r), s.Kind.Width())
		}
		ts := int64(r[0])
		if s.Kind == StructureOHLCV {
			s.Points = append(s.Points, Bar(ts, OHLCV{Open: r[1], High: r[2], Low: r[3], Close: r[4], Volume: r[5]}))
		} else {
			s.Points = append(s.Points, Simple(ts, r[1]))
		}
	}
	return nil
}

// jsonSafe maps values encoding/json refuses (±Inf, NaN) onto finite ones.
func jsonSafe(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}
