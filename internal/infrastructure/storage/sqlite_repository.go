package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"MisinfoSentry/internal/domain"
	"MisinfoSentry/internal/ports"
)

// SQLiteRepository persists the content log and the source trust table.
// The url unique index is the dedup enforcement point: duplicate inserts
// are silently absorbed.
type SQLiteRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.ContentRepository = (*SQLiteRepository)(nil)
var _ ports.CredibilityProvider = (*SQLiteRepository)(nil)

// NewSQLiteRepository wires a sql.DB opened with the sqlite driver.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// InitSchema creates the log and source tables when absent.
func (r *SQLiteRepository) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS content_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			platform TEXT,
			title TEXT,
			url TEXT UNIQUE,
			image_url TEXT,
			views INTEGER,
			tags TEXT,
			panic_score REAL,
			verdict TEXT,
			virality_rate REAL,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sources (
			source_id INTEGER PRIMARY KEY AUTOINCREMENT,
			domain TEXT UNIQUE,
			credibility_score REAL
		)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Seen reports whether an entry with this identity url already exists.
func (r *SQLiteRepository) Seen(ctx context.Context, url string) (bool, error) {
	query, args, err := r.sb.
		Select("1").
		From("content_log").
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build seen query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query seen: %w", err)
	}
	return true, nil
}

// Save appends one entry. A conflicting identity url is a success-no-op
// and reports inserted=false.
func (r *SQLiteRepository) Save(ctx context.Context, entry domain.ContentLogEntry) (bool, error) {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	query, args, err := r.sb.
		Insert("content_log").
		Columns("platform", "title", "url", "image_url", "views", "tags",
			"panic_score", "verdict", "virality_rate", "timestamp").
		Values(string(entry.Platform), entry.Title, entry.URL, entry.ImageURL,
			entry.Views, entry.Tags, entry.PanicScore, entry.Verdict,
			entry.ViralityRate, ts).
		Suffix("ON CONFLICT(url) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Credibility resolves a domain's trust score, 0.5 when unknown.
func (r *SQLiteRepository) Credibility(ctx context.Context, sourceDomain string) (float64, error) {
	query, args, err := r.sb.
		Select("credibility_score").
		From("sources").
		Where(sq.Eq{"domain": sourceDomain}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build credibility query: %w", err)
	}

	var score float64
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0.5, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query credibility: %w", err)
	}
	return score, nil
}

// UpsertSource records or refreshes a domain trust score. Population is
// out-of-band from the pipeline's perspective.
func (r *SQLiteRepository) UpsertSource(ctx context.Context, sourceDomain string, score float64) error {
	query, args, err := r.sb.
		Insert("sources").
		Columns("domain", "credibility_score").
		Values(sourceDomain, score).
		Suffix("ON CONFLICT(domain) DO UPDATE SET credibility_score = excluded.credibility_score").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert source: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert source: %w", err)
	}
	return nil
}

// Recent returns the newest entries first. Older rows predating the
// virality column read back as zero.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]domain.ContentLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query, args, err := r.sb.
		Select("platform", "title", "url", "COALESCE(image_url, '')",
			"views", "tags", "panic_score", "verdict",
			"COALESCE(virality_rate, 0)", "timestamp").
		From("content_log").
		OrderBy("id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var entries []domain.ContentLogEntry
	for rows.Next() {
		var e domain.ContentLogEntry
		var platform string
		if err := rows.Scan(&platform, &e.Title, &e.URL, &e.ImageURL,
			&e.Views, &e.Tags, &e.PanicScore, &e.Verdict,
			&e.ViralityRate, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Platform = domain.Platform(platform)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return entries, nil
}

// Stats aggregates the reporting-layer summary figures.
func (r *SQLiteRepository) Stats(ctx context.Context) (domain.LogStats, error) {
	var stats domain.LogStats

	row := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN verdict LIKE '%FAKE%' OR verdict = 'SCAM' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN COALESCE(virality_rate, 0) > 50 OR views > 50000 THEN 1 ELSE 0 END), 0),
			COALESCE(MAX(views), 0)
		FROM content_log`)

	if err := row.Scan(&stats.Scanned, &stats.ConfirmedFakes, &stats.HighVelocity, &stats.MaxReach); err != nil {
		return domain.LogStats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}
