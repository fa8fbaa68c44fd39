package indicator

import (
	"trendsv1/internal/model"
	"trendsv1/internal/ringbuf"
)

// DefaultIVRWindow is one year of trading days.
const DefaultIVRWindow = 252

// IVRank ranks the current implied volatility within the range of the
// previous window values (the current value is not part of its own window).
// A flat window ranks at the 50 midpoint. Output is clamped to [0, 100].
type IVRank struct {
	win     *ringbuf.Window
	current float64
	ready   bool
}

// NewIVRank creates an IV Rank indicator over the given lookback window.
func NewIVRank(window int) *IVRank {
	return &IVRank{win: ringbuf.New(window)}
}

func (r *IVRank) Name() string { return "IVR" }

func (r *IVRank) Update(p model.TimePoint) {
	iv := p.Value
	if r.win.Full() {
		lo, hi := r.win.MinMax()
		r.current = 50
		if hi > lo {
			r.current = 100 * (iv - lo) / (hi - lo)
		}
		r.current = min(100, max(0, r.current))
		r.ready = true
	}
	r.win.Push(iv)
}

func (r *IVRank) Value() float64 { return r.current }
func (r *IVRank) Ready() bool    { return r.ready }

// IVRankSeries computes rolling IV Rank. Warm-up = window.
func IVRankSeries(s model.Series, window int) model.Series {
	if window <= 0 {
		return model.Series{Kind: model.StructureSimple}
	}
	return run(NewIVRank(window), s)
}
