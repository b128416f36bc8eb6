// Package extractor picks the text extractor matching an invoice's format.
package extractor

import (
	"context"
	"fmt"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
)

type Dispatcher struct {
	plain ports.TextExtractor
	pdf   ports.TextExtractor
}

func NewDispatcher(plain, pdf ports.TextExtractor) *Dispatcher {
	return &Dispatcher{plain: plain, pdf: pdf}
}

func (d *Dispatcher) Extract(ctx context.Context, inv *domain.Invoice) (string, error) {
	switch domain.FormatOf(inv.Filename, inv.MimeType) {
	case domain.FormatPDF:
		return d.pdf.Extract(ctx, inv)
	case domain.FormatText:
		return d.plain.Extract(ctx, inv)
	default:
		return "", domain.WrapError(domain.ErrUnsupportedFormat, "extract text",
			fmt.Errorf("%s (%s)", inv.Filename, inv.MimeType))
	}
}
