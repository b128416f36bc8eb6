// Package corrections remembers human corrections of extracted invoice fields
// and replays them onto later extractions.
package corrections

import (
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
)

// Memory learns corrections and applies them. Every operation goes through
// the Store, so a Memory is safe for concurrent use.
type Memory struct {
	store  *Store
	logger *slog.Logger
	now    func() time.Time
}

func NewMemory(store *Store, logger *slog.Logger) *Memory {
	if store == nil {
		store = NewStore(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{store: store, logger: logger, now: time.Now}
}

func (m *Memory) Store() *Store {
	return m.store
}

// Record remembers that original was corrected to corrected for field.
// Nothing happens, and false is returned, when either side is empty or both
// are equal after canonicalization.
func (m *Memory) Record(original, corrected string, field domain.FieldType, companyContext string) (domain.CorrectionRecord, bool) {
	cand, ok := Candidate(original, corrected, field, companyContext, m.now())
	if !ok {
		return domain.CorrectionRecord{}, false
	}

	rec := m.store.upsert(cand)
	m.logger.Debug("correction_recorded",
		"field", field.String(),
		"occurrences", rec.OccurrenceCount,
		"confidence", rec.ConfidenceScore,
		"company_context", rec.CompanyContext,
	)
	return rec, true
}

// Candidate returns the correction in canonical form as a first occurrence.
// ok is false when recording it would be a no-op.
func Candidate(original, corrected string, field domain.FieldType, companyContext string, now time.Time) (domain.CorrectionRecord, bool) {
	if !field.Valid() {
		return domain.CorrectionRecord{}, false
	}
	from := CanonicalText(field, original)
	to := CanonicalText(field, corrected)
	if from == "" || to == "" || from == to {
		return domain.CorrectionRecord{}, false
	}
	return domain.CorrectionRecord{
		OriginalText:    from,
		CorrectedText:   to,
		FieldType:       field,
		CompanyContext:  strings.TrimSpace(companyContext),
		OccurrenceCount: 1,
		ConfidenceScore: Confidence(1),
		LastUpdated:     now.UTC(),
	}, true
}

// Outcome explains what Apply did for one field.
type Outcome struct {
	Field    domain.FieldType
	Decision Decision
	Record   domain.CorrectionRecord
}

// Application is the full result of applying the memory to one extraction.
type Application struct {
	Result      domain.ExtractionResult
	Suggestions domain.Suggestions
	Outcomes    []Outcome
}

// Apply rewrites raw with remembered corrections. Matches at or above the
// auto-apply threshold replace the value; weaker matches become suggestions.
// The company field is never corrected.
func (m *Memory) Apply(raw domain.ExtractionResult) (domain.ExtractionResult, domain.Suggestions) {
	app := m.ApplyDetailed(raw)
	return app.Result, app.Suggestions
}

func (m *Memory) ApplyDetailed(raw domain.ExtractionResult) Application {
	app := Application{Result: raw, Suggestions: domain.Suggestions{}}
	records := m.store.Snapshot()
	if len(records) == 0 {
		return app
	}
	company := raw.Company()

	for _, value := range raw.Values() {
		field := value.Field
		if field == domain.FieldCompany {
			continue
		}

		if value.IsEmpty() {
			rec, ok := bestScopedRecord(records, field, company)
			if !ok || Decide(rec.ConfidenceScore) == DecisionIgnore {
				continue
			}
			app.Suggestions[field] = rec.CorrectedText
			app.Outcomes = append(app.Outcomes, Outcome{Field: field, Decision: DecisionSuggest, Record: rec})
			continue
		}

		rec, ok := bestMatch(records, field, CanonicalText(field, value.String()), company)
		if !ok {
			continue
		}
		decision := Decide(rec.ConfidenceScore)
		switch decision {
		case DecisionAutoApply:
			corrected, ok := correctedValue(field, rec.CorrectedText)
			if !ok {
				decision = DecisionSuggest
				app.Suggestions[field] = rec.CorrectedText
				break
			}
			app.Result.Set(corrected)
		case DecisionSuggest:
			app.Suggestions[field] = rec.CorrectedText
		default:
			continue
		}
		app.Outcomes = append(app.Outcomes, Outcome{Field: field, Decision: decision, Record: rec})
	}
	return app
}

// bestMatch picks the highest-confidence record of field whose original text
// equals text case-insensitively or is token-similar to it. Ties keep the
// earlier record.
func bestMatch(records []domain.CorrectionRecord, field domain.FieldType, text, company string) (domain.CorrectionRecord, bool) {
	var (
		best  domain.CorrectionRecord
		found bool
	)
	for _, rec := range records {
		if rec.FieldType != field || !companyInScope(rec.CompanyContext, company) {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(rec.OriginalText), text) &&
			Similarity(rec.OriginalText, text) <= SimilarityThreshold {
			continue
		}
		if !found || rec.ConfidenceScore > best.ConfidenceScore {
			best, found = rec, true
		}
	}
	return best, found
}

// bestScopedRecord picks a suggestion for an empty field. Only records scoped
// to the invoice's company qualify.
func bestScopedRecord(records []domain.CorrectionRecord, field domain.FieldType, company string) (domain.CorrectionRecord, bool) {
	var (
		best  domain.CorrectionRecord
		found bool
	)
	if strings.TrimSpace(company) == "" {
		return best, false
	}
	for _, rec := range records {
		if rec.FieldType != field || strings.TrimSpace(rec.CompanyContext) == "" {
			continue
		}
		if !companyInScope(rec.CompanyContext, company) {
			continue
		}
		if !found || rec.ConfidenceScore > best.ConfidenceScore {
			best, found = rec, true
		}
	}
	return best, found
}

// correctedValue converts a remembered corrected text into a field value.
// Numeric text that does not parse cannot be applied.
func correctedValue(field domain.FieldType, text string) (domain.FieldValue, bool) {
	v := domain.FieldValue{Field: field, Source: domain.SourceCorrected}
	if !field.Numeric() {
		v.Text = text
		return v, true
	}
	amount, err := normalize.Amount(text)
	if err != nil {
		return domain.FieldValue{}, false
	}
	v.Amount = amount
	return v, true
}
