package indicator

import (
	"math"

	"trendsv1/internal/model"
)

// ADX calculates the Average Directional Index.
//
// TR, +DM and -DM are Wilder-smoothed over period; DX is derived from the
// smoothed directional indicators and smoothed a second time into ADX. The
// first bar contributes TR = H-L and no directional movement, so the first
// ADX value lands at index 2*period-2.
type ADX struct {
	period int

	tr, plusDM, minusDM *SMMA
	dx                  *SMMA

	prev    model.OHLCV
	hasPrev bool

	plusDI, minusDI, lastDX float64
}

// NewADX creates an ADX indicator with the given period (typically 14).
func NewADX(period int) *ADX {
	return &ADX{
		period:  period,
		tr:      NewSMMA(period),
		plusDM:  NewSMMA(period),
		minusDM: NewSMMA(period),
		dx:      NewSMMA(period),
	}
}

func (a *ADX) Name() string { return "ADX" }

func (a *ADX) Update(p model.TimePoint) {
	b := p.Bar
	var plus, minus float64
	if a.hasPrev {
		up := b.High - a.prev.High
		down := a.prev.Low - b.Low
		if up > down && up > 0 {
			plus = up
		}
		if down > up && down > 0 {
			minus = down
		}
	}
	a.tr.Add(trueRange(b, a.prev.Close, a.hasPrev))
	a.plusDM.Add(plus)
	a.minusDM.Add(minus)
	a.prev = b
	a.hasPrev = true

	if !a.tr.Ready() {
		return
	}

	a.plusDI, a.minusDI = 0, 0
	if str := a.tr.Value(); str != 0 {
		a.plusDI = 100 * a.plusDM.Value() / str
		a.minusDI = 100 * a.minusDM.Value() / str
	}
	a.lastDX = 0
	if sum := a.plusDI + a.minusDI; sum != 0 {
		a.lastDX = 100 * math.Abs(a.plusDI-a.minusDI) / sum
	}
	a.dx.Add(a.lastDX)
}

func (a *ADX) Value() float64 { return a.dx.Value() }
func (a *ADX) Ready() bool    { return a.dx.Ready() }

// PlusDI returns the latest +DI.
func (a *ADX) PlusDI() float64 { return a.plusDI }

// MinusDI returns the latest -DI.
func (a *ADX) MinusDI() float64 { return a.minusDI }

// DX returns the latest directional index.
func (a *ADX) DX() float64 { return a.lastDX }

// ADXSeries computes ADX over an OHLCV series. Warm-up = 2*period - 2.
func ADXSeries(s model.Series, period int) model.Series {
	if period <= 0 || !requireOHLCV("ADX", s) {
		return model.Series{Kind: model.StructureSimple}
	}
	return run(NewADX(period), s)
}
