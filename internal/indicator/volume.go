package indicator

import "trendsv1/internal/model"

// VWAP is the cumulative volume-weighted typical price over every bar fed
// since construction. It has no lookback and is not persisted, so the value
// for a given day depends on where the caller's window starts.
type VWAP struct {
	sumPV, sumV float64
	current     float64
	count       int
}

func NewVWAP() *VWAP { return &VWAP{} }

func (v *VWAP) Name() string { return "VWAP" }

func (v *VWAP) Update(p model.TimePoint) {
	tp := p.Bar.Typical()
	v.sumPV += tp * p.Bar.Volume
	v.sumV += p.Bar.Volume
	v.count++
	if v.sumV > 0 {
		v.current = v.sumPV / v.sumV
	} else {
		// no volume yet: fall back to the bar's typical price
		v.current = tp
	}
}

func (v *VWAP) Value() float64 { return v.current }
func (v *VWAP) Ready() bool    { return v.count > 0 }

// VWAPSeries computes VWAP over the whole supplied window. No warm-up.
func VWAPSeries(s model.Series) model.Series {
	if !requireOHLCV("VWAP", s) {
		return model.Series{Kind: model.StructureSimple}
	}
	return run(NewVWAP(), s)
}

// OBV calculates On-Balance Volume, seeded with the first bar's volume.
type OBV struct {
	prevClose float64
	current   float64
	count     int
}

func NewOBV() *OBV { return &OBV{} }

func (o *OBV) Name() string { return "OBV" }

func (o *OBV) Update(p model.TimePoint) {
	o.count++
	b := p.Bar
	switch {
	case o.count == 1:
		o.current = b.Volume
	case b.Close > o.prevClose:
		o.current += b.Volume
	case b.Close < o.prevClose:
		o.current -= b.Volume
	}
	o.prevClose = b.Close
}

func (o *OBV) Value() float64 { return o.current }
func (o *OBV) Ready() bool    { return o.count > 0 }

// OBVSeries computes OBV over an OHLCV series. No warm-up.
func OBVSeries(s model.Series) model.Series {
	if !requireOHLCV("OBV", s) {
		return model.Series{Kind: model.StructureSimple}
	}
	return run(NewOBV(), s)
}
