package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"MisinfoSentry/internal/domain"
	"MisinfoSentry/internal/ports"
	"MisinfoSentry/internal/risk"
)

type stubSource struct {
	events []domain.CandidateEvent
	err    error
}

func (s *stubSource) FetchBatch(_ context.Context, _ string) ([]domain.CandidateEvent, error) {
	return s.events, s.err
}

type memRepo struct {
	rows []domain.ContentLogEntry
	byID map[string]struct{}
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[string]struct{}{}}
}

func (r *memRepo) Seen(_ context.Context, url string) (bool, error) {
	_, ok := r.byID[url]
	return ok, nil
}

func (r *memRepo) Save(_ context.Context, entry domain.ContentLogEntry) (bool, error) {
	if _, ok := r.byID[entry.URL]; ok {
		return false, nil
	}
	r.byID[entry.URL] = struct{}{}
	r.rows = append(r.rows, entry)
	return true, nil
}

func (r *memRepo) Recent(_ context.Context, limit int) ([]domain.ContentLogEntry, error) {
	if limit > len(r.rows) {
		limit = len(r.rows)
	}
	out := make([]domain.ContentLogEntry, 0, limit)
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.rows[i])
	}
	return out, nil
}

func (r *memRepo) Stats(_ context.Context) (domain.LogStats, error) {
	return domain.LogStats{Scanned: int64(len(r.rows))}, nil
}

type scriptedClassifier struct {
	calls   int
	answers map[string]domain.Classification
	errs    map[string]error
}

func (c *scriptedClassifier) Classify(_ context.Context, title string) (domain.Classification, error) {
	c.calls++
	if err, ok := c.errs[title]; ok {
		return domain.Classification{}, err
	}
	if cls, ok := c.answers[title]; ok {
		return cls, nil
	}
	return domain.Classification{Category: domain.CategoryLikelyReal, Risk: 0.1}, nil
}

type stubCredibility struct {
	scores map[string]float64
}

func (s *stubCredibility) Credibility(_ context.Context, sourceDomain string) (float64, error) {
	if score, ok := s.scores[sourceDomain]; ok {
		return score, nil
	}
	return 0.5, nil
}

type stubForensics struct {
	score float64
	calls int
}

func (s *stubForensics) ScanMedia(_ context.Context, _ string) (float64, error) {
	s.calls++
	return s.score, nil
}

func event(n int) domain.CandidateEvent {
	return domain.CandidateEvent{
		Platform:   domain.PlatformTechForum,
		Title:      fmt.Sprintf("headline %d", n),
		URL:        fmt.Sprintf("https://example.com/item/%d", n),
		Engagement: 12000,
		AgeHours:   2,
	}
}

func newTestPipeline(deps PipelineDeps) *Pipeline {
	p := NewPipeline(deps)
	p.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	p.pick = func(int) int { return 0 }
	return p
}

func TestRunPassPersistsOncePerIdentity(t *testing.T) {
	t.Parallel()

	dup := event(1)
	source := &stubSource{events: []domain.CandidateEvent{event(1), dup, event(2)}}
	repo := newMemRepo()
	classifier := &scriptedClassifier{}

	p := newTestPipeline(PipelineDeps{
		Source: source, Repository: repo, Classifier: classifier,
		Topics: []string{"election"},
	})
	if err := p.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	if len(repo.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(repo.rows))
	}
	if classifier.calls != 2 {
		t.Fatalf("classifier calls = %d, want 2 (duplicate must not spend a call)", classifier.calls)
	}

	// a second pass over the same batch is a complete no-op
	if err := p.RunPass(context.Background()); err != nil {
		t.Fatalf("second RunPass: %v", err)
	}
	if len(repo.rows) != 2 {
		t.Fatalf("rows after second pass = %d, want 2", len(repo.rows))
	}
	if classifier.calls != 2 {
		t.Fatalf("classifier calls after second pass = %d, want 2", classifier.calls)
	}
}

func TestRunPassDropsIrrelevant(t *testing.T) {
	t.Parallel()

	source := &stubSource{events: []domain.CandidateEvent{event(1)}}
	repo := newMemRepo()
	classifier := &scriptedClassifier{answers: map[string]domain.Classification{
		"headline 1": {Category: domain.CategoryIrrelevant, Risk: 0},
	}}

	p := newTestPipeline(PipelineDeps{Source: source, Repository: repo, Classifier: classifier})
	if err := p.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	if len(repo.rows) != 0 {
		t.Fatalf("rows = %d, want 0 for an off-topic event", len(repo.rows))
	}
}

func TestRunPassRateLimitTripsCooldown(t *testing.T) {
	t.Parallel()

	source := &stubSource{events: []domain.CandidateEvent{event(1), event(2), event(3)}}
	repo := newMemRepo()
	classifier := &scriptedClassifier{errs: map[string]error{
		"headline 1": ports.ErrRateLimited,
	}}
	forensics := &stubForensics{score: 0.95}

	p := newTestPipeline(PipelineDeps{
		Source: source, Repository: repo, Classifier: classifier,
		Forensics: forensics, CooldownFor: time.Minute,
	})
	if err := p.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	// the limited event is still recorded, degraded
	if len(repo.rows) != 1 {
		t.Fatalf("rows = %d, want only the degraded entry", len(repo.rows))
	}
	got := repo.rows[0]
	if got.Verdict != string(domain.CategoryError) || got.PanicScore != 0.5 {
		t.Fatalf("degraded entry = %q/%v, want ERROR/0.5", got.Verdict, got.PanicScore)
	}
	if classifier.calls != 1 {
		t.Fatalf("classifier calls = %d, want 1 (pass must stop on quota exhaustion)", classifier.calls)
	}

	// a pass inside the cooldown window spends no gateway calls at all
	if err := p.RunPass(context.Background()); err != nil {
		t.Fatalf("second RunPass: %v", err)
	}
	if classifier.calls != 1 {
		t.Fatalf("classifier calls during cooldown = %d, want 1", classifier.calls)
	}
}

func TestRunPassDegradedClassificationStillPersisted(t *testing.T) {
	t.Parallel()

	source := &stubSource{events: []domain.CandidateEvent{event(1), event(2)}}
	repo := newMemRepo()
	classifier := &scriptedClassifier{errs: map[string]error{
		"headline 1": fmt.Errorf("gateway returned malformed json"),
	}}

	p := newTestPipeline(PipelineDeps{Source: source, Repository: repo, Classifier: classifier})
	if err := p.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	if len(repo.rows) != 2 {
		t.Fatalf("rows = %d, want 2 (a transient gateway failure must not drop the event)", len(repo.rows))
	}
	if repo.rows[0].Verdict != string(domain.CategoryError) || repo.rows[0].PanicScore != 0 {
		t.Fatalf("degraded entry = %q/%v, want ERROR/0", repo.rows[0].Verdict, repo.rows[0].PanicScore)
	}
	if repo.rows[1].Verdict != string(domain.CategoryLikelyReal) {
		t.Fatalf("second entry verdict = %q, want LIKELY_REAL", repo.rows[1].Verdict)
	}
}

func TestRunPassFusedVerdictMode(t *testing.T) {
	t.Parallel()

	ev := event(1)
	ev.ImageURL = "https://example.com/still.jpg"
	source := &stubSource{events: []domain.CandidateEvent{ev}}
	repo := newMemRepo()
	classifier := &scriptedClassifier{answers: map[string]domain.Classification{
		"headline 1": {Category: domain.CategoryMisleading, Risk: 0.8},
	}}
	forensics := &stubForensics{score: 0.95}
	credibility := &stubCredibility{scores: map[string]float64{"example.com": 0.1}}

	p := newTestPipeline(PipelineDeps{
		Source: source, Repository: repo, Classifier: classifier,
		Forensics: forensics, Credibility: credibility,
		FusedVerdicts: true,
		Weights:       risk.DefaultWeights(),
		Thresholds:    risk.DefaultThresholds(),
	})
	if err := p.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	if len(repo.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(repo.rows))
	}
	// 0.3*(1-0.1) + 0.3*0.8 + 0.4*0.95 = 0.89
	if repo.rows[0].Verdict != domain.VerdictHighRisk {
		t.Fatalf("verdict = %q, want %q", repo.rows[0].Verdict, domain.VerdictHighRisk)
	}
	if forensics.calls != 1 {
		t.Fatalf("forensics calls = %d, want 1", forensics.calls)
	}
}

func TestRunPassCategoryVerdictByDefault(t *testing.T) {
	t.Parallel()

	source := &stubSource{events: []domain.CandidateEvent{event(1)}}
	repo := newMemRepo()
	classifier := &scriptedClassifier{answers: map[string]domain.Classification{
		"headline 1": {Category: domain.CategoryScam, Risk: 0.9},
	}}

	p := newTestPipeline(PipelineDeps{Source: source, Repository: repo, Classifier: classifier})
	if err := p.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	if repo.rows[0].Verdict != string(domain.CategoryScam) {
		t.Fatalf("verdict = %q, want the classifier category", repo.rows[0].Verdict)
	}
}

func TestRunPassSkipsMalformedEvents(t *testing.T) {
	t.Parallel()

	source := &stubSource{events: []domain.CandidateEvent{
		{Platform: domain.PlatformNewsFeed, Title: "no link"},
		{Platform: domain.PlatformNewsFeed, URL: "https://example.com/untitled"},
		event(1),
	}}
	repo := newMemRepo()
	classifier := &scriptedClassifier{}

	p := newTestPipeline(PipelineDeps{Source: source, Repository: repo, Classifier: classifier})
	if err := p.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	if len(repo.rows) != 1 || classifier.calls != 1 {
		t.Fatalf("rows = %d calls = %d, want 1/1", len(repo.rows), classifier.calls)
	}
}

func TestCooldownExtendsOnlyForward(t *testing.T) {
	t.Parallel()

	var c Cooldown
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	c.Trip(base, time.Minute)
	c.Trip(base, 10*time.Second) // shorter trip must not shrink the window

	if got := c.Remaining(base); got != time.Minute {
		t.Fatalf("Remaining = %v, want 1m", got)
	}
	if c.Active(base.Add(time.Minute)) {
		t.Fatal("cooldown still active at its own deadline")
	}
}

func TestHostOf(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://www.bbc.com/news/article-1": "bbc.com",
		"https://youtu.be/dQw4w9WgXcQ":       "youtu.be",
		"not a url at all":                   "not a url at all",
	}
	for raw, want := range cases {
		if got := hostOf(raw); got != want {
			t.Errorf("hostOf(%q) = %q, want %q", raw, got, want)
		}
	}
}
