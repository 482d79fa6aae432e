// Package delta provides period-over-period change calculations for
// business metrics. All functions are pure and operate on sanitized
// inputs; SafeNumber is the single boundary through which raw upstream
// values must pass before any arithmetic.
package delta

import "math"

// Delta is the absolute and percentage change between two periods.
// It is computed on demand and never persisted.
type Delta struct {
	Absolute float64 `json:"absolute"`
	Percent  float64 `json:"percent"`
}

// MetricPair holds a metric's current and previous period values.
type MetricPair struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
}

// Sanitize returns the pair with both fields passed through SafeNumber.
func (p MetricPair) Sanitize() MetricPair {
	return MetricPair{
		Current:  SafeNumber(p.Current),
		Previous: SafeNumber(p.Previous),
	}
}

// Delta computes the change from Previous to Current.
func (p MetricPair) Delta() Delta {
	return Compute(p.Current, p.Previous)
}

// Compute returns the absolute and percentage change from previous to
// current. A zero previous value yields Percent == 0 rather than an
// error or infinity: a missing baseline is treated as "no signal",
// even when current is nonzero. Downstream consumers rely on this
// policy, so it must not be changed to a sentinel or a division error.
func Compute(current, previous float64) Delta {
	d := Delta{Absolute: current - previous}
	if previous == 0 {
		return d
	}
	d.Percent = (current - previous) / previous * 100
	return d
}

// SafeNumber normalizes NaN and infinities to zero. Upstream APIs may
// report no data for a period; those holes become zeros here instead of
// poisoning every calculation downstream.
func SafeNumber(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
