package risk

// minAgeHours floors the elapsed time so freshly published items do not
// divide by near-zero.
const minAgeHours = 0.1

// Fallback is the per-source virality estimate used when a feed carries no
// usable publish timestamp. Divisor takes precedence when positive;
// otherwise Flat is substituted as-is.
type Fallback struct {
	Divisor float64
	Flat    float64
}

// EstimateVirality computes reach over elapsed hours. ageHours <= 0 means
// the age is unknown and the source-specific fallback applies.
func EstimateVirality(engagement int64, ageHours float64, fb Fallback) float64 {
	if ageHours > 0 {
		if ageHours < minAgeHours {
			ageHours = minAgeHours
		}
		return float64(engagement) / ageHours
	}
	if fb.Divisor > 0 {
		return float64(engagement) / fb.Divisor
	}
	return fb.Flat
}
