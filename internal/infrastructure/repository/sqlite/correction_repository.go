// Package sqlite keeps correction records in a single-file database for
// deployments without Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kirillkom/invoice-assistant/internal/core/corrections"
	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

const migration = `
CREATE TABLE IF NOT EXISTS corrections (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	field_type       TEXT    NOT NULL,
	original_key     TEXT    NOT NULL,
	original_text    TEXT    NOT NULL,
	corrected_text   TEXT    NOT NULL,
	company_context  TEXT    NOT NULL DEFAULT '',
	occurrence_count INTEGER NOT NULL DEFAULT 1,
	confidence_score REAL    NOT NULL,
	updated_at       TEXT    NOT NULL,
	UNIQUE (field_type, original_key)
);
`

type CorrectionRepository struct {
	db *sql.DB
}

// Open opens the database at dsn in WAL mode and applies the schema.
func Open(ctx context.Context, dsn string) (*CorrectionRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite exec %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, migration); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &CorrectionRepository{db: db}, nil
}

func (r *CorrectionRepository) Close() error {
	return r.db.Close()
}

func (r *CorrectionRepository) ListCorrections(ctx context.Context) ([]domain.CorrectionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT original_text, corrected_text, field_type, company_context, occurrence_count, confidence_score, updated_at
FROM corrections
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list corrections: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CorrectionRecord, 0)
	for rows.Next() {
		rec, err := scanCorrection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate corrections: %w", err)
	}
	return out, nil
}

func (r *CorrectionRepository) UpsertCorrection(ctx context.Context, rec domain.CorrectionRecord) (domain.CorrectionRecord, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO corrections (
	field_type, original_key, original_text, corrected_text, company_context, occurrence_count, confidence_score, updated_at
) VALUES (?, ?, ?, ?, ?, 1, ?, ?)
ON CONFLICT (field_type, original_key) DO UPDATE SET
	occurrence_count = occurrence_count + 1,
	confidence_score = MIN(1.0, ? + occurrence_count * ?),
	corrected_text = excluded.corrected_text,
	updated_at = excluded.updated_at
RETURNING original_text, corrected_text, field_type, company_context, occurrence_count, confidence_score, updated_at`,
		rec.FieldType.String(),
		strings.ToLower(strings.TrimSpace(rec.OriginalText)),
		rec.OriginalText,
		rec.CorrectedText,
		rec.CompanyContext,
		corrections.Confidence(1),
		rec.LastUpdated.UTC().Format(time.RFC3339Nano),
		corrections.InitialConfidence,
		corrections.ConfidenceStep,
	)
	stored, err := scanCorrection(row)
	if err != nil {
		return domain.CorrectionRecord{}, fmt.Errorf("upsert correction: %w", err)
	}
	return stored, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCorrection(row rowScanner) (domain.CorrectionRecord, error) {
	var rec domain.CorrectionRecord
	var field, updated string
	err := row.Scan(
		&rec.OriginalText, &rec.CorrectedText, &field, &rec.CompanyContext,
		&rec.OccurrenceCount, &rec.ConfidenceScore, &updated,
	)
	if err != nil {
		return domain.CorrectionRecord{}, fmt.Errorf("scan correction: %w", err)
	}
	ft, err := domain.ParseFieldType(field)
	if err != nil {
		return domain.CorrectionRecord{}, err
	}
	rec.FieldType = ft
	if rec.LastUpdated, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return domain.CorrectionRecord{}, fmt.Errorf("parse updated_at %q: %w", updated, err)
	}
	return rec, nil
}
