package ports

import (
	"context"
	"io"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

// InvoiceIngestor is the inbound contract for invoice upload orchestration.
type InvoiceIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, direction domain.Direction, body io.Reader) (*domain.Invoice, error)
}

// InvoiceReader is the inbound read model for invoice state.
type InvoiceReader interface {
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	List(ctx context.Context, limit int) ([]domain.Invoice, error)
}

// InvoiceProcessor is the inbound contract for asynchronous field extraction.
type InvoiceProcessor interface {
	ProcessByID(ctx context.Context, invoiceID string) error
}

// InvoiceAnalyzer runs extraction and the correction memory over raw text
// without persisting anything.
type InvoiceAnalyzer interface {
	Analyze(ctx context.Context, text string) (domain.Analysis, error)
}

// CorrectionService records human corrections and reports what was learned.
type CorrectionService interface {
	SubmitCorrections(ctx context.Context, invoiceID string, fields map[domain.FieldType]string) (*domain.Invoice, error)
	RecordCorrection(ctx context.Context, original, corrected string, field domain.FieldType, companyContext string) (domain.CorrectionRecord, bool, error)
	Stats(ctx context.Context) (domain.TrainingStats, error)
}

// InvoiceExporter renders stored invoices as a spreadsheet.
type InvoiceExporter interface {
	ExportInvoices(ctx context.Context, w io.Writer, limit int) error
}
