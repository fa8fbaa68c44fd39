// Package indicator computes technical indicators over canonical daily series.
//
// Each indicator exists in streaming form (Update/Value/Ready, O(1) or
// O(window) per point) and as a batch function over a model.Series. Batch
// output index i corresponds to input index i + Warmup, so every output
// point carries the timestamp of the input point that completed it.
//
// Nothing here returns an error. Too little data, the wrong structure or a
// degenerate denominator yields an empty series or a documented fallback.
package indicator

import (
	"log/slog"

	"trendsv1/internal/model"
)

// Indicator is the streaming interface shared by all point-wise indicators.
type Indicator interface {
	// Name returns the indicator name (e.g. "RSI", "EMA").
	Name() string

	// Update feeds the next point.
	Update(p model.TimePoint)

	// Value returns the current value. Returns 0 until Ready.
	Value() float64

	// Ready returns true once the warm-up has been consumed.
	Ready() bool
}

// run feeds every point of s into ind and emits a simple point at each
// input timestamp at which ind is ready.
func run(ind Indicator, s model.Series) model.Series {
	out := model.Series{Kind: model.StructureSimple, Points: make([]model.TimePoint, 0, s.Len())}
	for _, p := range s.Points {
		ind.Update(p)
		if ind.Ready() {
			out.Points = append(out.Points, model.Simple(p.TS, ind.Value()))
		}
	}
	return out
}

// requireOHLCV logs and reports false when an OHLCV-only indicator is given
// a simple series.
func requireOHLCV(name string, s model.Series) bool {
	if s.Kind == model.StructureOHLCV || s.Empty() {
		return true
	}
	slog.Warn("indicator: OHLCV input required", "indicator", name, "structure", s.Kind.String())
	return false
}
