// Package jsonfile keeps correction records in one JSON document of the form
// {"corrections": [...]}. Other top-level keys in the file are preserved, and
// so are list entries that cannot be read: a rewrite never drops them.
//
// Entries written by the earlier web tool ("number" field type,
// "correction_count", "timestamp") are read as well and rewritten in the
// current shape on the next upsert.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/corrections"
	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

const correctionsKey = "corrections"

type CorrectionRepository struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

func NewCorrectionRepository(path string, logger *slog.Logger) *CorrectionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CorrectionRepository{path: path, logger: logger}
}

func (r *CorrectionRepository) ListCorrections(_ context.Context) ([]domain.CorrectionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, records, _, err := r.load()
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *CorrectionRepository) UpsertCorrection(_ context.Context, rec domain.CorrectionRecord) (domain.CorrectionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, records, unreadable, err := r.load()
	if err != nil {
		return domain.CorrectionRecord{}, err
	}

	stored := rec
	stored.OccurrenceCount = 1
	stored.ConfidenceScore = corrections.Confidence(1)
	found := false
	key := rec.Key()
	for i := range records {
		if records[i].Key() != key {
			continue
		}
		records[i].OccurrenceCount++
		records[i].ConfidenceScore = corrections.Confidence(records[i].OccurrenceCount)
		records[i].CorrectedText = rec.CorrectedText
		records[i].LastUpdated = rec.LastUpdated
		stored = records[i]
		found = true
		break
	}
	if !found {
		records = append(records, stored)
	}

	if err := r.write(doc, records, unreadable); err != nil {
		return domain.CorrectionRecord{}, err
	}
	return stored, nil
}

// load reads the document. A missing file, unreadable JSON or a missing
// corrections key all yield an empty record list; only I/O errors fail.
// Entries that do not decode into a record are returned untouched in
// unreadable.
func (r *CorrectionRepository) load() (doc map[string]json.RawMessage, records []domain.CorrectionRecord, unreadable []json.RawMessage, err error) {
	doc = map[string]json.RawMessage{}
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, []domain.CorrectionRecord{}, nil, nil
		}
		return nil, nil, nil, fmt.Errorf("read corrections file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return doc, []domain.CorrectionRecord{}, nil, nil
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.Warn("correction_store_corrupt", "path", r.path, "error", err)
		return map[string]json.RawMessage{}, []domain.CorrectionRecord{}, nil, nil
	}
	raw, ok := doc[correctionsKey]
	if !ok {
		r.logger.Warn("correction_store_corrupt", "path", r.path, "error", "missing corrections key")
		return doc, []domain.CorrectionRecord{}, nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		r.logger.Warn("correction_store_corrupt", "path", r.path, "error", err)
		return doc, []domain.CorrectionRecord{}, nil, nil
	}
	records = make([]domain.CorrectionRecord, 0, len(items))
	for i, item := range items {
		rec, err := decodeRecord(item)
		if err != nil {
			r.logger.Warn("correction_record_skipped", "path", r.path, "index", i, "error", err)
			unreadable = append(unreadable, item)
			continue
		}
		records = append(records, rec)
	}
	return doc, records, unreadable, nil
}

// fileRecord accepts both the current entry shape and the earlier one.
type fileRecord struct {
	OriginalText    string  `json:"original_text"`
	CorrectedText   string  `json:"corrected_text"`
	FieldType       string  `json:"field_type"`
	CompanyContext  string  `json:"company_context"`
	OccurrenceCount int     `json:"occurrence_count"`
	CorrectionCount int     `json:"correction_count"`
	ConfidenceScore float64 `json:"confidence_score"`
	LastUpdated     string  `json:"last_updated"`
	Timestamp       string  `json:"timestamp"`
}

var legacyFieldNames = map[string]string{
	"number": "invoice_number",
}

// Layouts tried for timestamps; the earlier tool wrote Python's str(datetime).
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

func decodeRecord(item json.RawMessage) (domain.CorrectionRecord, error) {
	var fr fileRecord
	if err := json.Unmarshal(item, &fr); err != nil {
		return domain.CorrectionRecord{}, err
	}
	name := strings.ToLower(strings.TrimSpace(fr.FieldType))
	if mapped, ok := legacyFieldNames[name]; ok {
		name = mapped
	}
	field, err := domain.ParseFieldType(name)
	if err != nil {
		return domain.CorrectionRecord{}, err
	}

	count := fr.OccurrenceCount
	if count == 0 {
		count = fr.CorrectionCount
	}
	stamp := fr.LastUpdated
	if stamp == "" {
		stamp = fr.Timestamp
	}
	return domain.CorrectionRecord{
		OriginalText:    fr.OriginalText,
		CorrectedText:   fr.CorrectedText,
		FieldType:       field,
		CompanyContext:  fr.CompanyContext,
		OccurrenceCount: count,
		ConfidenceScore: fr.ConfidenceScore,
		LastUpdated:     parseTimestamp(stamp),
	}, nil
}

// parseTimestamp returns the zero time for anything it cannot read; the
// timestamp is informational only.
func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// write replaces the file through a temp file in the same directory so
// readers never observe a partial document.
func (r *CorrectionRepository) write(doc map[string]json.RawMessage, records []domain.CorrectionRecord, unreadable []json.RawMessage) error {
	items := make([]json.RawMessage, 0, len(records)+len(unreadable))
	for _, rec := range records {
		item, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal correction: %w", err)
		}
		items = append(items, item)
	}
	items = append(items, unreadable...)
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal corrections: %w", err)
	}
	doc[correctionsKey] = raw
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal corrections file: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create corrections dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".corrections-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace corrections file: %w", err)
	}
	return nil
}
