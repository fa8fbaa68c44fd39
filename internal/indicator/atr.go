package indicator

import (
	"math"

	"trendsv1/internal/model"
)

// trueRange is max(H-L, |H-prevClose|, |L-prevClose|), or H-L for the first bar.
func trueRange(b model.OHLCV, prevClose float64, hasPrev bool) float64 {
	tr := b.High - b.Low
	if !hasPrev {
		return tr
	}
	return math.Max(tr, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
}

// ATR calculates Average True Range with Wilder's smoothing.
type ATR struct {
	smma      *SMMA
	prevClose float64
	hasPrev   bool
	lastTR    float64
}

// NewATR creates an ATR indicator with the given period (typically 14).
func NewATR(period int) *ATR {
	return &ATR{smma: NewSMMA(period)}
}

func (a *ATR) Name() string { return "ATR" }

func (a *ATR) Update(p model.TimePoint) {
	a.lastTR = trueRange(p.Bar, a.prevClose, a.hasPrev)
	a.prevClose = p.Bar.Close
	a.hasPrev = true
	a.smma.Add(a.lastTR)
}

func (a *ATR) Value() float64 { return a.smma.Value() }
func (a *ATR) Ready() bool    { return a.smma.Ready() }

// TrueRange returns the true range of the last bar fed.
func (a *ATR) TrueRange() float64 { return a.lastTR }

// ATRSeries computes ATR over an OHLCV series. Warm-up = period - 1.
func ATRSeries(s model.Series, period int) model.Series {
	if period <= 0 || !requireOHLCV("ATR", s) {
		return model.Series{Kind: model.StructureSimple}
	}
	return run(NewATR(period), s)
}

// TrueRangeSeries returns the per-bar true range. No warm-up.
func TrueRangeSeries(s model.Series) model.Series {
	out := model.Series{Kind: model.StructureSimple}
	if !requireOHLCV("TR", s) {
		return out
	}
	out.Points = make([]model.TimePoint, s.Len())
	for i, p := range s.Points {
		prev := 0.0
		if i > 0 {
			prev = s.Points[i-1].Bar.Close
		}
		out.Points[i] = model.Simple(p.TS, trueRange(p.Bar, prev, i > 0))
	}
	return out
}
