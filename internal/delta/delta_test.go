package delta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute_Basic(t *testing.T) {
	d := Compute(120, 100)
	assert.Equal(t, 20.0, d.Absolute)
	assert.InDelta(t, 20.0, d.Percent, 1e-9)

	d = Compute(80, 100)
	assert.Equal(t, -20.0, d.Absolute)
	assert.InDelta(t, -20.0, d.Percent, 1e-9)
}

func TestCompute_ZeroBaseline(t *testing.T) {
	// Missing baseline means no signal, not infinity.
	d := Compute(100, 0)
	assert.Equal(t, 100.0, d.Absolute)
	assert.Equal(t, 0.0, d.Percent)

	d = Compute(0, 0)
	assert.Equal(t, 0.0, d.Absolute)
	assert.Equal(t, 0.0, d.Percent)
}

func TestCompute_AbsoluteAntisymmetry(t *testing.T) {
	cases := [][2]float64{
		{100, 80}, {80, 100}, {0, 50}, {50, 0}, {-10, 25}, {1.5, 1.5},
	}
	for _, c := range cases {
		fwd := Compute(c[0], c[1])
		rev := Compute(c[1], c[0])
		assert.Equal(t, fwd.Absolute, -rev.Absolute,
			"absolute change must negate when periods swap: %v", c)
	}
}

func TestSafeNumber(t *testing.T) {
	assert.Equal(t, 0.0, SafeNumber(math.NaN()))
	assert.Equal(t, 0.0, SafeNumber(math.Inf(1)))
	assert.Equal(t, 0.0, SafeNumber(math.Inf(-1)))
	assert.Equal(t, 42.5, SafeNumber(42.5))
	assert.Equal(t, -3.0, SafeNumber(-3.0))
	assert.Equal(t, 0.0, SafeNumber(0.0))
}

func TestMetricPair_Sanitize(t *testing.T) {
	p := MetricPair{Current: math.NaN(), Previous: 100}.Sanitize()
	assert.Equal(t, 0.0, p.Current)
	assert.Equal(t, 100.0, p.Previous)

	d := p.Delta()
	assert.Equal(t, -100.0, d.Absolute)
	assert.InDelta(t, -100.0, d.Percent, 1e-9)
}
