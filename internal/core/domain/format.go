package domain

import (
	"path/filepath"
	"strings"
)

// DocumentFormat is the kind of source document an invoice was uploaded as.
type DocumentFormat int

const (
	FormatUnknown DocumentFormat = iota
	FormatText
	FormatPDF
)

// FormatOf decides by mime type first and falls back to the file extension,
// so uploads sent as application/octet-stream still resolve.
func FormatOf(filename, mimeType string) DocumentFormat {
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	switch {
	case mime == "application/pdf":
		return FormatPDF
	case strings.HasPrefix(mime, "text/"):
		return FormatText
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".txt", ".text", ".csv", ".md", "":
		return FormatText
	}
	return FormatUnknown
}
