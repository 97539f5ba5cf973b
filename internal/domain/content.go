package domain

import "time"

// Platform identifies the kind of feed an event was harvested from.
type Platform string

const (
	PlatformTrendingSearch Platform = "Google Trends"
	PlatformTechForum      Platform = "Hacker News"
	PlatformNewsFeed       Platform = "Google News"
	PlatformVideoPlatform  Platform = "YouTube"
)

// CandidateEvent is a raw item emitted by a source adapter during one poll.
// It is immutable and discarded after processing; only accepted events end
// up in the content log.
type CandidateEvent struct {
	Platform   Platform
	Title      string
	URL        string // canonical link, the dedup identity
	ImageURL   string // optional media reference
	Engagement int64  // views / score / approximate traffic
	Tag        string
	AgeHours   float64 // hours since publication; <= 0 means unknown
}

// HasAge reports whether the adapter could derive an age from its raw data.
func (e CandidateEvent) HasAge() bool {
	return e.AgeHours > 0
}

// Category is the classifier's label set.
type Category string

const (
	CategoryDeepfake      Category = "DEEPFAKE"
	CategoryScam          Category = "SCAM"
	CategoryPoliticalBias Category = "POLITICAL_BIAS"
	CategoryMisleading    Category = "MISLEADING"
	CategoryClickbait     Category = "CLICKBAIT"
	CategorySatire        Category = "SATIRE"
	CategoryLikelyReal    Category = "LIKELY_REAL"
	CategoryError         Category = "ERROR"
	CategoryUnverified    Category = "UNVERIFIED"
	CategoryIrrelevant    Category = "IRRELEVANT" // sentinel: drop, never persist
)

// Classification is the classification gateway's answer for one headline.
type Classification struct {
	Category Category
	Risk     float64 // [0,1]
	Reason   string
}

// Verdict labels produced by threshold fusion.
const (
	VerdictHighRisk       = "HIGH_RISK"
	VerdictUnverified     = "UNVERIFIED"
	VerdictLikelyCredible = "LIKELY_CREDIBLE"
)

// ContentLogEntry is the persisted unit of record, one row per accepted
// event. URL is globally unique across the log; rows are never mutated.
type ContentLogEntry struct {
	Platform     Platform
	Title        string
	URL          string
	ImageURL     string
	Views        int64
	Tags         string
	PanicScore   float64 // classification risk sub-score
	Verdict      string
	ViralityRate float64
	Timestamp    time.Time
}

// LogStats summarizes the content log for the reporting layer.
type LogStats struct {
	Scanned        int64
	ConfirmedFakes int64
	HighVelocity   int64 // virality_rate > 50 or views > 50000
	MaxReach       int64
}
