package indicator

import (
	"math"

	"trendsv1/internal/model"
)

// TradingDays is the annualization factor for daily volatility.
const TradingDays = 252

var gkLn2 = 2*math.Ln2 - 1

// GarmanKlass returns the annualized Garman-Klass volatility of one bar in
// percent, and false when the bar cannot produce one (non-positive prices,
// H < L, or a negative variance estimate).
func GarmanKlass(b model.OHLCV) (float64, bool) {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 || b.High < b.Low {
		return 0, false
	}
	hl := math.Log(b.High / b.Low)
	co := math.Log(b.Close / b.Open)
	variance := 0.5*hl*hl - gkLn2*co*co
	if variance < 0 || math.IsNaN(variance) {
		return 0, false
	}
	return math.Sqrt(variance*TradingDays) * 100, true
}

// GarmanKlassSeries computes per-bar realized volatility. One output per
// valid bar; invalid bars are skipped, so the output may have holes.
func GarmanKlassSeries(s model.Series) model.Series {
	out := model.Series{Kind: model.StructureSimple}
	if !requireOHLCV("GK", s) {
		return out
	}
	out.Points = make([]model.TimePoint, 0, s.Len())
	for _, p := range s.Points {
		if v, ok := GarmanKlass(p.Bar); ok {
			out.Points = append(out.Points, model.Simple(p.TS, v))
		}
	}
	return out
}
