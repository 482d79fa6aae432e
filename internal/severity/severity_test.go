package severity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForSignal_Magnitude(t *testing.T) {
	score, level := ForSignal(10, 1, 0)
	assert.InDelta(t, 15.0, score, 1e-9)
	assert.Equal(t, LevelStable, level)

	// Sign of the delta must not matter.
	negScore, _ := ForSignal(-10, 1, 0)
	assert.Equal(t, score, negScore)
}

func TestForSignal_PersistenceMultiplier(t *testing.T) {
	base, _ := ForSignal(20, 2, 0)
	assert.InDelta(t, 30.0, base, 1e-9)

	persistent, _ := ForSignal(20, 3, 0)
	assert.InDelta(t, 45.0, persistent, 1e-9)

	// The multiplier kicks in at exactly 3 months, not above it.
	assert.InDelta(t, base*1.5, persistent, 1e-9)
}

func TestForSignal_CashImpactAdditive(t *testing.T) {
	withCash, _ := ForSignal(10, 1, 2)
	assert.InDelta(t, 15.0+20.0, withCash, 1e-9)

	// Zero cash impact gets no boost regardless of magnitude.
	noCash, _ := ForSignal(100, 1, 0)
	assert.InDelta(t, 150.0, noCash, 1e-9)
}

func TestForSignal_BoundaryExactness(t *testing.T) {
	// The cash term is exact in floating point, so a zero delta with
	// cashImpact 8 lands the score on 80 precisely. Strict > means
	// warning, not critical.
	score, level := ForSignal(0, 1, 8)
	assert.Equal(t, 80.0, score)
	assert.Equal(t, LevelWarning, level)

	score, level = ForSignal(0, 1, 8.001)
	assert.Greater(t, score, 80.0)
	assert.Equal(t, LevelCritical, level)

	score, level = ForSignal(0, 1, 5)
	assert.Equal(t, 50.0, score)
	assert.Equal(t, LevelWatch, level)

	score, level = ForSignal(0, 1, 2)
	assert.Equal(t, 20.0, score)
	assert.Equal(t, LevelStable, level)
}

func TestForSignal_Monotonicity(t *testing.T) {
	// For fixed persistence and cash impact the score never decreases
	// as |deltaPct| grows.
	prev := math.Inf(-1)
	for x := 0.0; x <= 200; x += 0.5 {
		score, _ := ForSignal(x, 2, 1)
		assert.GreaterOrEqual(t, score, prev, "score regressed at deltaPct=%v", x)
		prev = score
	}
}

func TestForInsight_Buckets(t *testing.T) {
	assert.Equal(t, TierHigh, ForInsight(-55))
	assert.Equal(t, TierHigh, ForInsight(50)) // inclusive boundary
	assert.Equal(t, TierMedium, ForInsight(-25))
	assert.Equal(t, TierMedium, ForInsight(20)) // inclusive boundary
	assert.Equal(t, TierLow, ForInsight(-19.99))
	assert.Equal(t, TierLow, ForInsight(0))
}
