package indicator

import (
	"math"

	"trendsv1/internal/model"
)

// Default acceleration factors for Parabolic SAR.
const (
	DefaultSARStart = 0.02
	DefaultSARStep  = 0.02
	DefaultSARMax   = 0.20
)

// ParabolicSAR is Wilder's stop-and-reverse.
//
// The opening trend is taken from the first two closes: up when close[1] >
// close[0], down otherwise. SAR then moves by af*(EP-SAR) each bar, never
// beyond the prior two lows (uptrend) or highs (downtrend). Price crossing
// SAR flips the trend, SAR jumps to the old extreme point and af resets.
type ParabolicSAR struct {
	start, step, maxAF float64

	n           int
	prev, prev2 model.OHLCV
	sar, ep, af float64
	trend       int
	seed        float64
	seedTrend   int
}

// NewParabolicSAR creates a Parabolic SAR with the given acceleration
// factors.
func NewParabolicSAR(start, step, maxAF float64) *ParabolicSAR {
	return &ParabolicSAR{start: start, step: step, maxAF: maxAF}
}

func (p *ParabolicSAR) Name() string { return "PSAR" }

func (p *ParabolicSAR) Update(tp model.TimePoint) {
	b := tp.Bar
	p.n++
	switch p.n {
	case 1:
		p.prev = b
		return
	case 2:
		if b.Close > p.prev.Close {
			p.trend, p.sar, p.ep = model.Bullish, p.prev.Low, b.High
		} else {
			p.trend, p.sar, p.ep = model.Bearish, p.prev.High, b.Low
		}
		p.af = p.start
		p.seed, p.seedTrend = p.sar, p.trend
	}

	sar := p.sar + p.af*(p.ep-p.sar)
	if p.trend == model.Bullish {
		sar = math.Min(sar, p.prev.Low)
		if p.n >= 3 {
			sar = math.Min(sar, p.prev2.Low)
		}
		if b.Low < sar {
			p.trend, sar, p.ep, p.af = model.Bearish, p.ep, b.Low, p.start
		} else if b.High > p.ep {
			p.ep = b.High
			p.af = math.Min(p.af+p.step, p.maxAF)
		}
	} else {
		sar = math.Max(sar, p.prev.High)
		if p.n >= 3 {
			sar = math.Max(sar, p.prev2.High)
		}
		if b.High > sar {
			p.trend, sar, p.ep, p.af = model.Bullish, p.ep, b.High, p.start
		} else if b.Low < p.ep {
			p.ep = b.Low
			p.af = math.Min(p.af+p.step, p.maxAF)
		}
	}
	p.sar = sar
	p.prev2, p.prev = p.prev, b
}

func (p *ParabolicSAR) Value() float64 { return p.sar }
func (p *ParabolicSAR) Ready() bool    { return p.n >= 2 }

// Trend returns model.Bullish or model.Bearish once Ready.
func (p *ParabolicSAR) Trend() int { return p.trend }

// AF returns the current acceleration factor.
func (p *ParabolicSAR) AF() float64 { return p.af }

// SARSeries computes Parabolic SAR over an OHLCV series. Every input bar
// gets a point; the first carries the seed level from the opening trend.
// Fewer than two bars yield an empty series.
func SARSeries(s model.Series, start, step, maxAF float64) model.TrendSeries {
	if s.Len() < 2 || !requireOHLCV("PSAR", s) {
		return model.TrendSeries{}
	}
	p := NewParabolicSAR(start, step, maxAF)
	out := model.TrendSeries{Points: make([]model.TrendPoint, 0, s.Len())}
	for i, tp := range s.Points {
		p.Update(tp)
		if i == 1 {
			out.Points = append(out.Points, model.TrendPoint{TS: s.Points[0].TS, Value: p.seed, Trend: p.seedTrend})
		}
		if p.Ready() {
			out.Points = append(out.Points, model.TrendPoint{TS: tp.TS, Value: p.sar, Trend: p.trend})
		}
	}
	return out
}
