package pdftext

import (
	"testing"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

func TestTextFromBytesRejectsNonPDF(t *testing.T) {
	_, err := TextFromBytes([]byte("Rechnungsnummer: RG-1"))
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestTextFromBytesRejectsTruncatedPDF(t *testing.T) {
	_, err := TextFromBytes([]byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\n"))
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}
