package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/invoice-assistant/internal/core/ports"
)

const defaultExportLimit = 1000

type ExportUseCase struct {
	repo   ports.InvoiceRepository
	writer ports.SpreadsheetWriter
}

func NewExportUseCase(repo ports.InvoiceRepository, writer ports.SpreadsheetWriter) *ExportUseCase {
	return &ExportUseCase{repo: repo, writer: writer}
}

func (uc *ExportUseCase) ExportInvoices(ctx context.Context, w io.Writer, limit int) error {
	if limit <= 0 {
		limit = defaultExportLimit
	}
	invoices, err := uc.repo.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("list invoices: %w", err)
	}
	if err := uc.writer.WriteInvoices(w, invoices); err != nil {
		return fmt.Errorf("write spreadsheet: %w", err)
	}
	return nil
}
