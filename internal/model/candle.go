package model

import (
	"math"
	"time"
)

// DayMs is the width of one canonical bucket in milliseconds.
const DayMs int64 = 86_400_000

// OHLCV is one daily bar. Prices are plain float64 quotes as delivered by
// the provider; Volume is the traded quantity for the day.
type OHLCV struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Valid reports whether the bar is internally consistent:
// high is the top of the range, low is the bottom, volume is non-negative.
func (b OHLCV) Valid() bool {
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if b.High < b.Low || b.High < b.Open || b.High < b.Close {
		return false
	}
	if b.Low > b.Open || b.Low > b.Close {
		return false
	}
	return b.Volume >= 0
}

// Typical returns (H+L+C)/3.
func (b OHLCV) Typical() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// Flat builds a zero-volume bar where every price equals v. Used for
// synthesized gap-fill buckets.
func Flat(v float64) OHLCV {
	return OHLCV{Open: v, High: v, Low: v, Close: v}
}

// TimePoint is a single observation of a Series.
//
// For simple series only Value is meaningful. For OHLCV series Bar holds the
// full bar and Value mirrors Bar.Close, so code that only needs "the price"
// can treat both structures alike.
type TimePoint struct {
	TS    int64   // ms since epoch, UTC
	Value float64 // simple value, or close for OHLCV
	Bar   OHLCV
}

// Simple builds a simple point.
func Simple(ts int64, v float64) TimePoint {
	return TimePoint{TS: ts, Value: v}
}

// Bar builds an OHLCV point.
func Bar(ts int64, b OHLCV) TimePoint {
	return TimePoint{TS: ts, Value: b.Close, Bar: b}
}

// Time returns the point's timestamp as a UTC time.Time.
func (p TimePoint) Time() time.Time {
	return time.UnixMilli(p.TS).UTC()
}

// DayStart truncates a millisecond timestamp to 00:00:00 UTC of its day.
func DayStart(tsMs int64) int64 {
	d := tsMs / DayMs
	if tsMs%DayMs < 0 {
		d--
	}
	return d * DayMs
}
