package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

const invoiceColumns = `id, filename, mime_type, storage_path, direction, status, error_message, raw_fields, fields, suggestions, created_at, updated_at`

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	raw, fields, suggestions, err := marshalExtraction(inv.Raw, inv.Fields, inv.Suggestions)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO invoices (`+invoiceColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		inv.ID, inv.Filename, inv.MimeType, inv.StoragePath, string(inv.Direction), string(inv.Status),
		inv.Error, raw, fields, suggestions, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+invoiceColumns+`
FROM invoices
WHERE id = $1
`, id)

	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrInvoiceNotFound, "get invoice", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	return &inv, nil
}

func (r *InvoiceRepository) List(ctx context.Context, limit int) ([]domain.Invoice, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+invoiceColumns+`
FROM invoices
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return out, nil
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	return requireAffected(res, "update invoice status", id)
}

func (r *InvoiceRepository) SaveExtraction(
	ctx context.Context,
	id string,
	raw, fields domain.ExtractionResult,
	suggestions domain.Suggestions,
) error {
	rawJSON, fieldsJSON, suggestionsJSON, err := marshalExtraction(raw, fields, suggestions)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET raw_fields = $2, fields = $3, suggestions = $4, updated_at = $5
WHERE id = $1
`, id, rawJSON, fieldsJSON, suggestionsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}
	return requireAffected(res, "save extraction", id)
}

// SaveReviewed stores reviewer-confirmed fields, clears suggestions and marks
// the invoice reviewed.
func (r *InvoiceRepository) SaveReviewed(ctx context.Context, id string, fields domain.ExtractionResult) error {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET fields = $2, suggestions = '{}'::jsonb, status = $3, updated_at = $4
WHERE id = $1
`, id, fieldsJSON, string(domain.StatusReviewed), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save reviewed fields: %w", err)
	}
	return requireAffected(res, "save reviewed fields", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (domain.Invoice, error) {
	var inv domain.Invoice
	var direction, status string
	var rawJSON, fieldsJSON, suggestionsJSON []byte

	err := row.Scan(
		&inv.ID, &inv.Filename, &inv.MimeType, &inv.StoragePath, &direction, &status, &inv.Error,
		&rawJSON, &fieldsJSON, &suggestionsJSON, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return domain.Invoice{}, err
	}
	inv.Direction = domain.ParseDirection(direction)
	inv.Status = domain.InvoiceStatus(status)

	if err := json.Unmarshal(rawJSON, &inv.Raw); err != nil {
		return domain.Invoice{}, fmt.Errorf("unmarshal raw fields: %w", err)
	}
	if err := json.Unmarshal(fieldsJSON, &inv.Fields); err != nil {
		return domain.Invoice{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	inv.Suggestions = domain.Suggestions{}
	if err := json.Unmarshal(suggestionsJSON, &inv.Suggestions); err != nil {
		return domain.Invoice{}, fmt.Errorf("unmarshal suggestions: %w", err)
	}
	return inv, nil
}

func marshalExtraction(raw, fields domain.ExtractionResult, suggestions domain.Suggestions) ([]byte, []byte, []byte, error) {
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal raw fields: %w", err)
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal fields: %w", err)
	}
	if suggestions == nil {
		suggestions = domain.Suggestions{}
	}
	suggestionsJSON, err := json.Marshal(suggestions)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal suggestions: %w", err)
	}
	return rawJSON, fieldsJSON, suggestionsJSON, nil
}

func requireAffected(res sql.Result, op, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrInvoiceNotFound, op, fmt.Errorf("id=%s", id))
	}
	return nil
}
