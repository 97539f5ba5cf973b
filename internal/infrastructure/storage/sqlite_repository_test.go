package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"MisinfoSentry/internal/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSQLiteRepository(db)
	if err := repo.InitSchema(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return repo
}

func sampleEntry(url string) domain.ContentLogEntry {
	return domain.ContentLogEntry{
		Platform:     domain.PlatformTechForum,
		Title:        "Massive data leak exposed",
		URL:          url,
		Views:        12000,
		Tags:         "tech",
		PanicScore:   0.6,
		Verdict:      "MISLEADING",
		ViralityRate: 1200,
		Timestamp:    time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSaveIsIdempotentPerIdentity(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	inserted, err := repo.Save(ctx, sampleEntry("https://example.com/a"))
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	if !inserted {
		t.Fatal("first save must insert")
	}

	// Same identity again: a no-op, not an error.
	inserted, err = repo.Save(ctx, sampleEntry("https://example.com/a"))
	if err != nil {
		t.Fatalf("duplicate save: %v", err)
	}
	if inserted {
		t.Fatal("duplicate identity must not insert a second row")
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Scanned != 1 {
		t.Fatalf("want exactly one row, got %d", stats.Scanned)
	}
}

func TestSeen(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	seen, err := repo.Seen(ctx, "https://example.com/new")
	if err != nil {
		t.Fatalf("seen: %v", err)
	}
	if seen {
		t.Fatal("unknown identity must not be seen")
	}

	if _, err := repo.Save(ctx, sampleEntry("https://example.com/new")); err != nil {
		t.Fatalf("save: %v", err)
	}

	seen, err = repo.Seen(ctx, "https://example.com/new")
	if err != nil {
		t.Fatalf("seen after save: %v", err)
	}
	if !seen {
		t.Fatal("persisted identity must be seen")
	}
}

func TestCredibilityDefaultsToNeutral(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	score, err := repo.Credibility(ctx, "unknown-blog.example")
	if err != nil {
		t.Fatalf("credibility: %v", err)
	}
	if score != 0.5 {
		t.Fatalf("unknown domain must default to 0.5, got %v", score)
	}

	if err := repo.UpsertSource(ctx, "bbc.com", 0.95); err != nil {
		t.Fatalf("upsert source: %v", err)
	}
	if err := repo.UpsertSource(ctx, "bbc.com", 0.9); err != nil {
		t.Fatalf("upsert source again: %v", err)
	}

	score, err = repo.Credibility(ctx, "bbc.com")
	if err != nil {
		t.Fatalf("credibility: %v", err)
	}
	if score != 0.9 {
		t.Fatalf("upsert must refresh the score, got %v", score)
	}
}

func TestRecentOrdersByRecency(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	for _, url := range []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"} {
		if _, err := repo.Save(ctx, sampleEntry(url)); err != nil {
			t.Fatalf("save %s: %v", url, err)
		}
	}

	entries, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}
	if entries[0].URL != "https://a.example/3" {
		t.Fatalf("newest entry must come first, got %s", entries[0].URL)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	fake := sampleEntry("https://a.example/fake")
	fake.Verdict = "DEEPFAKE"
	fake.Views = 900000
	fake.ViralityRate = 40000

	calm := sampleEntry("https://a.example/calm")
	calm.Verdict = "LIKELY_REAL"
	calm.Views = 100
	calm.ViralityRate = 2

	for _, e := range []domain.ContentLogEntry{fake, calm} {
		if _, err := repo.Save(ctx, e); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Scanned != 2 {
		t.Fatalf("scanned: want 2, got %d", stats.Scanned)
	}
	if stats.ConfirmedFakes != 1 {
		t.Fatalf("confirmed fakes: want 1, got %d", stats.ConfirmedFakes)
	}
	if stats.HighVelocity != 1 {
		t.Fatalf("high velocity: want 1, got %d", stats.HighVelocity)
	}
	if stats.MaxReach != 900000 {
		t.Fatalf("max reach: want 900000, got %d", stats.MaxReach)
	}
}
