package risk

import (
	"context"
	"strings"

	"MisinfoSentry/internal/domain"
)

// PanicScore rates the alarmist signal of a headline by counting trigger
// keywords: one hit starts at 0.6 and every hit adds 0.1, capped at 1.0.
func PanicScore(text string, keywords []string) float64 {
	lowered := strings.ToLower(text)
	hits := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	score := 0.5 + float64(hits)*0.1
	return clamp01(score)
}

// KeywordClassifier is the offline substitute for the classification
// gateway: a pure keyword heuristic with no remote calls. It lets the
// pipeline run unattended when no gateway credential is configured.
type KeywordClassifier struct {
	keywords []string
}

// NewKeywordClassifier builds a classifier over the given trigger words.
func NewKeywordClassifier(keywords []string) *KeywordClassifier {
	return &KeywordClassifier{keywords: keywords}
}

// Classify maps the keyword panic score onto the category label set.
func (c *KeywordClassifier) Classify(_ context.Context, title string) (domain.Classification, error) {
	score := PanicScore(title, c.keywords)
	category := domain.CategoryLikelyReal
	if score > 0 {
		category = domain.CategoryUnverified
	}
	return domain.Classification{
		Category: category,
		Risk:     score,
		Reason:   "keyword heuristic",
	}, nil
}
