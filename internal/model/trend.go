package model

import "encoding/json"

// Trend directions carried by a TrendSeries.
const (
	Bullish = 1
	Bearish = -1
)

// TrendPoint is one trailing-stop level and the trend it implies.
type TrendPoint struct {
	TS    int64
	Value float64
	Trend int // Bullish (level below price) or Bearish (level above price)
}

// TrendSeries is a level line annotated with trend direction per point.
type TrendSeries struct {
	Points []TrendPoint
}

func (TrendSeries) isData() {}

func (t TrendSeries) Len() int { return len(t.Points) }

// Window keeps points with TS >= cutoff.
func (t TrendSeries) Window(cutoff int64) Data {
	i := 0
	for i < len(t.Points) && t.Points[i].TS < cutoff {
		i++
	}
	pts := make([]TrendPoint, len(t.Points)-i)
	copy(pts, t.Points[i:])
	return TrendSeries{Points: pts}
}

// MarshalJSON encodes as [[ts, level, trend], ...].
func (t TrendSeries) MarshalJSON() ([]byte, error) {
	rows := make([][3]float64, len(t.Points))
	for i, p := range t.Points {
		rows[i] = [3]float64{float64(p.TS), jsonSafe(p.Value), float64(p.Trend)}
	}
	return json.Marshal(rows)
}
