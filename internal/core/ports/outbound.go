package ports

import (
	"context"
	"io"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

// InvoiceRepository persists and reads invoice state.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	List(ctx context.Context, limit int) ([]domain.Invoice, error)
	UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus, errMessage string) error
	SaveExtraction(ctx context.Context, id string, raw, fields domain.ExtractionResult, suggestions domain.Suggestions) error
	SaveReviewed(ctx context.Context, id string, fields domain.ExtractionResult) error
}

// CorrectionRepository persists correction records. UpsertCorrection inserts
// rec with one occurrence, or increments the occurrence count of the stored
// record with the same key and overwrites its corrected text. It returns the
// stored record.
type CorrectionRepository interface {
	ListCorrections(ctx context.Context) ([]domain.CorrectionRecord, error)
	UpsertCorrection(ctx context.Context, rec domain.CorrectionRecord) (domain.CorrectionRecord, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishInvoiceIngested(ctx context.Context, invoiceID string) error
	SubscribeInvoiceIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, inv *domain.Invoice) (string, error)
}

// FieldExtractor derives invoice fields from document text.
type FieldExtractor interface {
	Extract(text string) domain.ExtractionResult
}

// SpreadsheetWriter renders invoices into a workbook.
type SpreadsheetWriter interface {
	WriteInvoices(w io.Writer, invoices []domain.Invoice) error
}

// ExtractionObserver receives per-field outcomes for monitoring.
type ExtractionObserver interface {
	RecordFieldExtraction(field string, found bool)
	RecordCorrectionDecision(field, decision string)
}
