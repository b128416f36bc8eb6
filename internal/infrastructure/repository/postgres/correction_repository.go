package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kirillkom/invoice-assistant/internal/core/corrections"
	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/resilience"
)

// CorrectionRepository stores correction records. The occurrence counter is
// incremented inside the upsert, so api and worker replicas share one count.
type CorrectionRepository struct {
	db       *sql.DB
	executor *resilience.Executor
}

func NewCorrectionRepository(db *sql.DB) *CorrectionRepository {
	return &CorrectionRepository{db: db}
}

// WithExecutor retries transient failures of the upsert through exec.
func (r *CorrectionRepository) WithExecutor(exec *resilience.Executor) *CorrectionRepository {
	r.executor = exec
	return r
}

func (r *CorrectionRepository) ListCorrections(ctx context.Context) ([]domain.CorrectionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT original_text, corrected_text, field_type, company_context, occurrence_count, confidence_score, updated_at
FROM corrections
ORDER BY id
`)
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
	return resilience.Call(ctx, r.executor, "postgres.corrections.upsert", func(ctx context.Context) (domain.CorrectionRecord, error) {
		return r.upsert(ctx, rec)
	}, classifyPostgresError)
}

func (r *CorrectionRepository) upsert(ctx context.Context, rec domain.CorrectionRecord) (domain.CorrectionRecord, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO corrections (
	field_type, original_key, original_text, corrected_text, company_context, occurrence_count, confidence_score, updated_at
) VALUES ($1,$2,$3,$4,$5,1,$6,$7)
ON CONFLICT (field_type, original_key) DO UPDATE SET
	occurrence_count = corrections.occurrence_count + 1,
	confidence_score = LEAST(1.0, $8::double precision + corrections.occurrence_count * $9::double precision),
	corrected_text = EXCLUDED.corrected_text,
	updated_at = EXCLUDED.updated_at
RETURNING original_text, corrected_text, field_type, company_context, occurrence_count, confidence_score, updated_at
`,
		rec.FieldType.String(),
		strings.ToLower(strings.TrimSpace(rec.OriginalText)),
		rec.OriginalText,
		rec.CorrectedText,
		rec.CompanyContext,
		corrections.Confidence(1),
		rec.LastUpdated,
		corrections.InitialConfidence,
		corrections.ConfidenceStep,
	)
	stored, err := scanCorrection(row)
	if err != nil {
		return domain.CorrectionRecord{}, fmt.Errorf("upsert correction: %w", err)
	}
	return stored, nil
}

func scanCorrection(row rowScanner) (domain.CorrectionRecord, error) {
	var rec domain.CorrectionRecord
	var field string
	err := row.Scan(
		&rec.OriginalText, &rec.CorrectedText, &field, &rec.CompanyContext,
		&rec.OccurrenceCount, &rec.ConfidenceScore, &rec.LastUpdated,
	)
	if err != nil {
		return domain.CorrectionRecord{}, fmt.Errorf("scan correction: %w", err)
	}
	ft, err := domain.ParseFieldType(field)
	if err != nil {
		return domain.CorrectionRecord{}, err
	}
	rec.FieldType = ft
	return rec, nil
}
