package domain

import (
	"strings"
	"time"
)

type InvoiceStatus string

const (
	StatusUploaded   InvoiceStatus = "uploaded"
	StatusProcessing InvoiceStatus = "processing"
	StatusReady      InvoiceStatus = "ready"
	StatusReviewed   InvoiceStatus = "reviewed"
	StatusFailed     InvoiceStatus = "failed"
)

// Direction distinguishes received invoices from issued ones.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

func ParseDirection(raw string) Direction {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(DirectionOutgoing), "ausgang", "ausgangsrechnung":
		return DirectionOutgoing
	default:
		return DirectionIncoming
	}
}

type Invoice struct {
	ID          string           `json:"id"`
	Filename    string           `json:"filename"`
	MimeType    string           `json:"mime_type"`
	StoragePath string           `json:"storage_path"`
	Direction   Direction        `json:"direction"`
	Status      InvoiceStatus    `json:"status"`
	Error       string           `json:"error,omitempty"`
	Raw         ExtractionResult `json:"raw"`
	Fields      ExtractionResult `json:"fields"`
	Suggestions Suggestions      `json:"suggestions,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Analysis is the outcome of one extract-and-apply run.
type Analysis struct {
	Raw         ExtractionResult `json:"raw"`
	Fields      ExtractionResult `json:"fields"`
	Suggestions Suggestions      `json:"suggestions"`
}
