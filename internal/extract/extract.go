// Package extract projects a single OHLCV column into a simple series.
package extract

import (
	"log/slog"

	"trendsv1/internal/model"
)

// Field names one column of an OHLCV bar.
type Field string

const (
	Open   Field = "open"
	High   Field = "high"
	Low    Field = "low"
	Close  Field = "close"
	Volume Field = "volume"
)

func (f Field) pick(b model.OHLCV) float64 {
	switch f {
	case Open:
		return b.Open
	case High:
		return b.High
	case Low:
		return b.Low
	case Volume:
		return b.Volume
	default:
		return b.Close
	}
}

// Extract returns field of every bar of s as a simple series with the same
// timestamps. A simple series passes through unchanged when field is close;
// any other field of a simple series has nothing to project and yields an
// empty series.
func Extract(s model.Series, field Field) model.Series {
	switch s.Kind {
	case model.StructureSimple:
		if field == Close {
			return s
		}
		slog.Warn("extract: simple series has no such component", "field", string(field))
		return model.Series{Kind: model.StructureSimple}
	case model.StructureOHLCV:
	default:
		return model.Series{Kind: model.StructureSimple}
	}

	out := model.Series{Kind: model.StructureSimple, Points: make([]model.TimePoint, len(s.Points))}
	for i, p := range s.Points {
		out.Points[i] = model.Simple(p.TS, field.pick(p.Bar))
	}
	return out
}
