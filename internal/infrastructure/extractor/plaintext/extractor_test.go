package plaintext

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

type memStorage map[string]string

func (m memStorage) Save(context.Context, string, io.Reader) error { return nil }

func (m memStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(m[key])), nil
}

func TestExtractStripsBOMAndWhitespace(t *testing.T) {
	e := NewExtractor(memStorage{"k": "\xef\xbb\xbf  Rechnung\nRG-1  \n"})

	text, err := e.Extract(context.Background(), &domain.Invoice{StoragePath: "k"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Rechnung\nRG-1" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractRejectsBinary(t *testing.T) {
	e := NewExtractor(memStorage{"k": "bin\x00\x01\x02"})

	_, err := e.Extract(context.Background(), &domain.Invoice{StoragePath: "k", Filename: "a.bin"})
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestDecodeWindows1252(t *testing.T) {
	text, err := Decode([]byte("Gr\xf6\xdfe M 12,00 \x80"))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if text != "Größe M 12,00 €" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestDecodeUTF16WithBOM(t *testing.T) {
	raw := []byte{0xff, 0xfe}
	for _, r := range "Summe 5,00" {
		raw = append(raw, byte(r), 0)
	}

	text, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if text != "Summe 5,00" {
		t.Fatalf("unexpected text %q", text)
	}
}
