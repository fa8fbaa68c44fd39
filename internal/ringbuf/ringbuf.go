// Package ringbuf provides a fixed-capacity sliding window over float64
// values. Pushing into a full window evicts the oldest value. It backs the
// rolling-window indicators (SMA, Bollinger Bands, IV Rank).
package ringbuf

import "math"

// Window is a circular buffer holding the most recent Cap() values.
// Not safe for concurrent use.
type Window struct {
	buf   []float64
	idx   int // next write position
	count int
	sum   float64
}

// New creates a window of the given capacity. Minimum capacity is 1.
func New(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]float64, capacity)}
}

// Push appends v, evicting the oldest value when full. It returns the
// evicted value and whether one was evicted.
func (w *Window) Push(v float64) (evicted float64, ok bool) {
	if w.count == len(w.buf) {
		evicted, ok = w.buf[w.idx], true
		w.sum -= evicted
	} else {
		w.count++
	}
	w.buf[w.idx] = v
	w.sum += v
	w.idx = (w.idx + 1) % len(w.buf)
	return evicted, ok
}

// Len returns the number of values currently held.
func (w *Window) Len() int { return w.count }

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.buf) }

// Full reports whether Len() == Cap().
func (w *Window) Full() bool { return w.count == len(w.buf) }

// Sum returns the running sum of held values.
func (w *Window) Sum() float64 { return w.sum }

// Mean returns the arithmetic mean of held values, 0 when empty.
func (w *Window) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	return w.sum / float64(w.count)
}

// PopStdDev returns the population standard deviation of held values.
// Computed in two passes over the buffer for numerical stability.
func (w *Window) PopStdDev() float64 {
	if w.count == 0 {
		return 0
	}
	mean := w.Mean()
	var ss float64
	w.Each(func(v float64) {
		d := v - mean
		ss += d * d
	})
	return math.Sqrt(ss / float64(w.count))
}

// MinMax returns the smallest and largest held values.
func (w *Window) MinMax() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	w.Each(func(v float64) {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	})
	return lo, hi
}

// Each calls fn for every held value, oldest first.
func (w *Window) Each(fn func(v float64)) {
	start := (w.idx - w.count + len(w.buf)) % len(w.buf)
	for i := 0; i < w.count; i++ {
		fn(w.buf[(start+i)%len(w.buf)])
	}
}

// Reset empties the window.
func (w *Window) Reset() {
	w.idx, w.count, w.sum = 0, 0, 0
	for i := range w.buf {
		w.buf[i] = 0
	}
}
