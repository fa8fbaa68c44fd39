package indicator

import (
	"trendsv1/internal/model"
	"trendsv1/internal/ringbuf"
)

// SMA calculates Simple Moving Average over a rolling window.
type SMA struct {
	period  int
	win     *ringbuf.Window
	current float64
}

// NewSMA creates a new SMA indicator with the given period.
func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		win:    ringbuf.New(period),
	}
}

func (s *SMA) Name() string { return "SMA" }

func (s *SMA) Update(p model.TimePoint) {
	s.win.Push(p.Value)
	if s.win.Full() {
		s.current = s.win.Mean()
	}
}

func (s *SMA) Value() float64 { return s.current }
func (s *SMA) Ready() bool    { return s.period > 0 && s.win.Full() }

// Reset clears the SMA state for reuse.
func (s *SMA) Reset() {
	s.win.Reset()
	s.current = 0
}

// SMASeries computes SMA over s. Warm-up = period - 1.
func SMASeries(s model.Series, period int) model.Series {
	if period <= 0 {
		return model.Series{Kind: model.StructureSimple}
	}
	return run(NewSMA(period), s)
}

// Bollinger tracks a middle SMA and bands k population standard deviations
// above and below it.
type Bollinger struct {
	period int
	k      float64
	win    *ringbuf.Window

	middle, stdev float64
}

// NewBollinger creates Bollinger Bands with the given period and width k.
func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{period: period, k: k, win: ringbuf.New(period)}
}

func (b *Bollinger) Name() string { return "BB" }

func (b *Bollinger) Update(p model.TimePoint) {
	b.win.Push(p.Value)
	if b.win.Full() {
		b.middle = b.win.Mean()
		b.stdev = b.win.PopStdDev()
	}
}

// Value returns the middle band.
func (b *Bollinger) Value() float64  { return b.middle }
func (b *Bollinger) Ready() bool     { return b.period > 0 && b.win.Full() }
func (b *Bollinger) Upper() float64  { return b.middle + b.k*b.stdev }
func (b *Bollinger) Lower() float64  { return b.middle - b.k*b.stdev }
func (b *Bollinger) StdDev() float64 { return b.stdev }

// BollingerSeries computes Bollinger Bands over s. Warm-up = period - 1.
// All three bands share the same timestamps.
func BollingerSeries(s model.Series, period int, k float64) model.BandSeries {
	out := model.BandSeries{
		Upper:  model.Series{Kind: model.StructureSimple},
		Middle: model.Series{Kind: model.StructureSimple},
		Lower:  model.Series{Kind: model.StructureSimple},
	}
	if period <= 0 {
		return out
	}
	bb := NewBollinger(period, k)
	for _, p := range s.Points {
		bb.Update(p)
		if !bb.Ready() {
			continue
		}
		out.Upper.Points = append(out.Upper.Points, model.Simple(p.TS, bb.Upper()))
		out.Middle.Points = append(out.Middle.Points, model.Simple(p.TS, bb.Value()))
		out.Lower.Points = append(out.Lower.Points, model.Simple(p.TS, bb.Lower()))
	}
	return out
}
