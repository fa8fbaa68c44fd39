package indicator

import "trendsv1/internal/model"

// EMA calculates Exponential Moving Average.
// Seeded with the SMA of the first period values; O(1) per update.
type EMA struct {
	period     int
	multiplier float64
	current    float64
	count      int
	sum        float64
}

// NewEMA creates a new EMA indicator with the given period.
func NewEMA(period int) *EMA {
	return &EMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *EMA) Name() string { return "EMA" }

func (e *EMA) Update(p model.TimePoint) { e.Add(p.Value) }

// Add feeds a raw value.
func (e *EMA) Add(price float64) {
	e.count++

	if e.count <= e.period {
		// Accumulate for initial SMA seed
		e.sum += price
		if e.count == e.period {
			e.current = e.sum / float64(e.period)
		}
		return
	}

	// EMA = (Price * multiplier) + (EMA_prev * (1 - multiplier))
	e.current = (price * e.multiplier) + (e.current * (1 - e.multiplier))
}

func (e *EMA) Value() float64 { return e.current }
func (e *EMA) Ready() bool    { return e.period > 0 && e.count >= e.period }

// Reset clears the EMA state for reuse.
func (e *EMA) Reset() {
	e.current = 0
	e.count = 0
	e.sum = 0
}

// EMASeries computes the EMA of s. Warm-up = period - 1.
func EMASeries(s model.Series, period int) model.Series {
	if period <= 0 {
		return model.Series{Kind: model.StructureSimple}
	}
	return run(NewEMA(period), s)
}

// MACD line names.
const (
	LineMACD      = "macd"
	LineSignal    = "signal"
	LineHistogram = "histogram"
)

// MACDSeries computes the MACD line, its signal line and the histogram.
//
// The fast and slow EMAs have different warm-ups, so the fast EMA is shifted
// by slow-fast to pair values computed at the same timestamp. The macd line
// starts at source index slow-1, signal and histogram at slow+signal-2.
func MACDSeries(s model.Series, fast, slow, signal int) model.MultiLineSeries {
	macdStart := slow - 1
	sigStart := macdStart + signal - 1
	out := model.MultiLineSeries{Lines: []model.Line{
		{Name: LineMACD, Offset: macdStart, Series: model.Series{Kind: model.StructureSimple}},
		{Name: LineSignal, Offset: sigStart, Series: model.Series{Kind: model.StructureSimple}},
		{Name: LineHistogram, Offset: sigStart, Series: model.Series{Kind: model.StructureSimple}},
	}}
	if fast <= 0 || slow <= fast || signal <= 0 || s.Len() < slow {
		return out
	}

	emaFast := EMASeries(s, fast)
	emaSlow := EMASeries(s, slow)
	align := slow - fast

	macd := model.Series{Kind: model.StructureSimple, Points: make([]model.TimePoint, emaSlow.Len())}
	for i, sp := range emaSlow.Points {
		macd.Points[i] = model.Simple(sp.TS, emaFast.Points[i+align].Value-sp.Value)
	}
	out.Lines[0].Series = macd

	sig := EMASeries(macd, signal)
	if sig.Empty() {
		return out
	}
	shift := macd.Len() - sig.Len()
	hist := model.Series{Kind: model.StructureSimple, Points: make([]model.TimePoint, sig.Len())}
	for i, sp := range sig.Points {
		hist.Points[i] = model.Simple(sp.TS, macd.Points[i+shift].Value-sp.Value)
	}
	out.Lines[1].Series = sig
	out.Lines[2].Series = hist
	return out
}
