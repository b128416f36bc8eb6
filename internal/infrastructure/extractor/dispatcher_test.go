package extractor

import (
	"context"
	"testing"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

type namedExtractor string

func (n namedExtractor) Extract(context.Context, *domain.Invoice) (string, error) {
	return string(n), nil
}

func TestDispatcherRoutesByMimeTypeAndExtension(t *testing.T) {
	d := NewDispatcher(namedExtractor("plain"), namedExtractor("pdf"))

	cases := []struct {
		filename string
		mime     string
		want     string
	}{
		{filename: "a.bin", mime: "application/pdf", want: "pdf"},
		{filename: "a.bin", mime: "text/plain; charset=utf-8", want: "plain"},
		{filename: "Rechnung.PDF", mime: "application/octet-stream", want: "pdf"},
		{filename: "rechnung.txt", mime: "", want: "plain"},
	}
	for _, tc := range cases {
		got, err := d.Extract(context.Background(), &domain.Invoice{Filename: tc.filename, MimeType: tc.mime})
		if err != nil {
			t.Fatalf("Extract(%s, %s) error = %v", tc.filename, tc.mime, err)
		}
		if got != tc.want {
			t.Fatalf("Extract(%s, %s) = %q, want %q", tc.filename, tc.mime, got, tc.want)
		}
	}
}

func TestDispatcherRejectsUnknownFormat(t *testing.T) {
	d := NewDispatcher(namedExtractor("plain"), namedExtractor("pdf"))

	_, err := d.Extract(context.Background(), &domain.Invoice{Filename: "scan.tiff", MimeType: "image/tiff"})
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}
