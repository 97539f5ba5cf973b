package risk

import "MisinfoSentry/internal/domain"

// Weights configures the linear risk fusion. The historical default is
// source 0.3, panic 0.3, media 0.4.
type Weights struct {
	Source float64
	Panic  float64
	Media  float64
}

// DefaultWeights returns the canonical weight set.
func DefaultWeights() Weights {
	return Weights{Source: 0.3, Panic: 0.3, Media: 0.4}
}

// Thresholds maps a fused risk value to a verdict label.
type Thresholds struct {
	HighRisk float64 // above this: HIGH_RISK
	Caution  float64 // above this: UNVERIFIED
}

// DefaultThresholds returns the 0.7 / 0.4 verdict boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{HighRisk: 0.7, Caution: 0.4}
}

// Fuse combines the three sub-scores into one risk value. Credible sources
// reduce risk, panic and manipulated media raise it. The result is clamped
// to [0,1].
func Fuse(w Weights, credibility, panic, media float64) float64 {
	sourceRisk := 1.0 - credibility
	total := w.Source*sourceRisk + w.Panic*panic + w.Media*media
	return clamp01(total)
}

// Verdict resolves a fused risk value against the thresholds.
func (t Thresholds) Verdict(finalRisk float64) string {
	switch {
	case finalRisk > t.HighRisk:
		return domain.VerdictHighRisk
	case finalRisk > t.Caution:
		return domain.VerdictUnverified
	default:
		return domain.VerdictLikelyCredible
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
