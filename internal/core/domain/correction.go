package domain

import (
	"strings"
	"time"
)

// CorrectionRecord remembers one human correction of an extracted value.
type CorrectionRecord struct {
	OriginalText    string    `json:"original_text"`
	CorrectedText   string    `json:"corrected_text"`
	FieldType       FieldType `json:"field_type"`
	CompanyContext  string    `json:"company_context"`
	OccurrenceCount int       `json:"occurrence_count"`
	ConfidenceScore float64   `json:"confidence_score"`
	LastUpdated     time.Time `json:"last_updated"`
}

// Key returns the uniqueness key of the record.
func (r CorrectionRecord) Key() CorrectionKey {
	return NewCorrectionKey(r.FieldType, r.OriginalText)
}

// CorrectionKey is (field type, case-folded original text).
type CorrectionKey struct {
	Field    FieldType
	Original string
}

func NewCorrectionKey(field FieldType, original string) CorrectionKey {
	return CorrectionKey{Field: field, Original: strings.ToLower(strings.TrimSpace(original))}
}

// TrainingStats summarizes what the correction memory has learned so far.
type TrainingStats struct {
	Records          int                `json:"records"`
	TotalOccurrences int                `json:"total_occurrences"`
	ByField          map[string]int     `json:"by_field"`
	Top              []CorrectionRecord `json:"top"`
}
