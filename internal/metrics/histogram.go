package metrics

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram keeps a bounded window of float samples and summarises them.
type Histogram struct {
	mu      sync.RWMutex
	samples []float64
	maxSize int
}

// Summary is a point-in-time view of a histogram.
type Summary struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
	P50   float64
	P90   float64
	P99   float64
}

// NewHistogram creates a histogram holding at most maxSize samples.
// Past that, the oldest fifth of the window is dropped.
func NewHistogram(maxSize int) *Histogram {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &Histogram{
		samples: make([]float64, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds a sample.
func (h *Histogram) Record(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples = append(h.samples, v)
	if len(h.samples) > h.maxSize {
		h.samples = append(h.samples[:0], h.samples[max(h.maxSize/5, 1):]...)
	}
}

// RecordDuration adds a duration sample in milliseconds.
func (h *Histogram) RecordDuration(d time.Duration) {
	h.Record(float64(d.Microseconds()) / 1000.0)
}

// Mean returns the average sample, or 0 when empty.
func (h *Histogram) Mean() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}
	return stat.Mean(h.samples, nil)
}

// Percentile returns the p-th percentile (0-100), linearly interpolated.
func (h *Histogram) Percentile(p float64) float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}
	return percentile(h.sorted(), p)
}

// Min returns the smallest sample, or 0 when empty.
func (h *Histogram) Min() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}
	return floats.Min(h.samples)
}

// Max returns the largest sample, or 0 when empty.
func (h *Histogram) Max() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}
	return floats.Max(h.samples)
}

// Count returns the number of samples in the window.
func (h *Histogram) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples)
}

// Summary returns count, mean, extremes and the common percentiles.
func (h *Histogram) Summary() Summary {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return Summary{}
	}
	sorted := h.sorted()
	return Summary{
		Count: len(sorted),
		Mean:  stat.Mean(sorted, nil),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		P50:   percentile(sorted, 50),
		P90:   percentile(sorted, 90),
		P99:   percentile(sorted, 99),
	}
}

// Reset clears all samples.
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = h.samples[:0]
}

// sorted returns a sorted copy. Callers hold the lock.
func (h *Histogram) sorted() []float64 {
	out := make([]float64, len(h.samples))
	copy(out, h.samples)
	sort.Float64s(out)
	return out
}

func percentile(sorted []float64, p float64) float64 {
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p/100, stat.LinInterp, sorted, nil)
}
