// Package plaintext reads invoices delivered as text files. UTF-8 and BOM
// marked UTF-16 are decoded as such; anything else that is not binary is
// read as Windows-1252, the usual encoding of German accounting exports.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, inv *domain.Invoice) (string, error) {
	reader, err := e.storage.Open(ctx, inv.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	text, err := Decode(raw)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnsupportedFormat, "extract plain text", fmt.Errorf("%s: %w", inv.Filename, err))
	}
	return text, nil
}

// Decode turns raw file bytes into trimmed UTF-8 text.
func Decode(raw []byte) (string, error) {
	var fallback transform.Transformer = unicode.UTF8.NewDecoder()
	if !utf8.Valid(raw) {
		fallback = charmap.Windows1252.NewDecoder()
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), raw)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	if bytes.IndexByte(out, 0) >= 0 {
		return "", fmt.Errorf("binary content")
	}
	return strings.TrimSpace(strings.TrimPrefix(string(out), "\uFEFF")), nil
}
