// Package severity scores period-over-period metric changes.
//
// Two scoring functions live here on purpose. ForSignal drives the
// ranked signal feed with a continuous score and four levels. ForInsight
// drives the rule engine's three-tier labels. The scales are different
// and the cutoffs are different; do not unify them without product
// sign-off, as downstream consumers read each one independently.
package severity

import "math"

// Level is the four-level severity attached to signals.
type Level string

const (
	LevelCritical Level = "critical"
	LevelWarning  Level = "warning"
	LevelWatch    Level = "watch"
	LevelStable   Level = "stable"
)

// Tier is the three-tier severity attached to insights.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// ForSignal converts a delta magnitude, trend persistence, and cash
// impact into a score and level.
//
// Score: |deltaPct| * 1.5, multiplied by another 1.5 when the trend has
// held for 3+ months, plus cashImpact * 10. The cash term is additive,
// so zero cash impact adds nothing regardless of delta magnitude.
//
// Level boundaries are strict greater-than: a score of exactly 80 is
// warning, not critical. Inputs are expected pre-sanitized (finite);
// no validation happens here.
func ForSignal(deltaPct, persistenceMonths, cashImpact float64) (float64, Level) {
	score := math.Abs(deltaPct) * 1.5
	if persistenceMonths >= 3 {
		score *= 1.5
	}
	score += cashImpact * 10

	level := LevelStable
	switch {
	case score > 80:
		level = LevelCritical
	case score > 50:
		level = LevelWarning
	case score > 20:
		level = LevelWatch
	}
	return score, level
}

// ForInsight buckets a percentage change into the rule engine's tiers.
// Boundaries are inclusive: |pct| of exactly 50 is high, exactly 20 is
// medium. This differs from ForSignal's strict boundaries and is kept
// that way.
func ForInsight(pctChange float64) Tier {
	abs := math.Abs(pctChange)
	switch {
	case abs >= 50:
		return TierHigh
	case abs >= 20:
		return TierMedium
	default:
		return TierLow
	}
}
