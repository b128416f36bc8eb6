package httpadapter

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

type ingestFake struct {
	err       error
	direction domain.Direction
}

func (f *ingestFake) Upload(_ context.Context, filename, mimeType string, direction domain.Direction, body io.Reader) (*domain.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", io.EOF)
	}
	f.direction = direction

	now := time.Now().UTC()
	return &domain.Invoice{
		ID:          "inv-1",
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: "inv-1_" + filename,
		Direction:   direction,
		Status:      domain.StatusUploaded,
		Raw:         domain.NewExtractionResult(),
		Fields:      domain.NewExtractionResult(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type invoicesFake struct {
	err       error
	lastLimit int
}

func (f *invoicesFake) GetByID(_ context.Context, id string) (*domain.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Invoice{ID: id, Filename: "a.txt", Status: domain.StatusReady, Fields: domain.NewExtractionResult()}, nil
}

func (f *invoicesFake) List(_ context.Context, limit int) ([]domain.Invoice, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Invoice{{ID: "inv-1", Fields: domain.NewExtractionResult()}}, nil
}

type analyzerFake struct {
	err error
}

func (f analyzerFake) Analyze(_ context.Context, text string) (domain.Analysis, error) {
	if f.err != nil {
		return domain.Analysis{}, f.err
	}
	raw := domain.NewExtractionResult()
	raw.SetText(domain.FieldInvoiceNumber, "RG-2024-0099", domain.SourceRaw)
	fields := raw
	fields.SetText(domain.FieldInvoiceNumber, "RG-2024-00099", domain.SourceCorrected)
	return domain.Analysis{Raw: raw, Fields: fields, Suggestions: domain.Suggestions{}}, nil
}

type correctionsFake struct {
	err       error
	submitted map[domain.FieldType]string
	recorded  []domain.CorrectionRecord
}

func (f *correctionsFake) SubmitCorrections(_ context.Context, id string, fields map[domain.FieldType]string) (*domain.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.submitted = fields
	return &domain.Invoice{ID: id, Status: domain.StatusReviewed, Fields: domain.NewExtractionResult()}, nil
}

func (f *correctionsFake) RecordCorrection(_ context.Context, original, corrected string, field domain.FieldType, company string) (domain.CorrectionRecord, bool, error) {
	if f.err != nil {
		return domain.CorrectionRecord{}, false, f.err
	}
	if original == corrected {
		return domain.CorrectionRecord{}, false, nil
	}
	rec := domain.CorrectionRecord{
		OriginalText:    original,
		CorrectedText:   corrected,
		FieldType:       field,
		CompanyContext:  company,
		OccurrenceCount: 1,
		ConfidenceScore: 0.7,
	}
	f.recorded = append(f.recorded, rec)
	return rec, true, nil
}

func (f *correctionsFake) Stats(context.Context) (domain.TrainingStats, error) {
	if f.err != nil {
		return domain.TrainingStats{}, f.err
	}
	return domain.TrainingStats{
		Records:          len(f.recorded),
		TotalOccurrences: len(f.recorded),
		ByField:          map[string]int{},
		Top:              f.recorded,
	}, nil
}

type exporterFake struct {
	err error
}

func (f exporterFake) ExportInvoices(_ context.Context, w io.Writer, _ int) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "PK\x03\x04xlsx")
	return err
}
