package corrections

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

// Store is the in-memory set of correction records, unique per
// (field type, case-folded original text). It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records []domain.CorrectionRecord
	index   map[domain.CorrectionKey]int
}

func NewStore(records []domain.CorrectionRecord) *Store {
	s := &Store{}
	s.Replace(records)
	return s
}

// Replace swaps the whole record set, e.g. after reloading from persistence.
// Duplicate keys keep the record with the higher occurrence count.
func (s *Store) Replace(records []domain.CorrectionRecord) {
	next := make([]domain.CorrectionRecord, 0, len(records))
	index := make(map[domain.CorrectionKey]int, len(records))
	for _, rec := range records {
		if !rec.FieldType.Valid() || strings.TrimSpace(rec.OriginalText) == "" {
			continue
		}
		rec = sanitize(rec)
		key := rec.Key()
		if i, ok := index[key]; ok {
			if rec.OccurrenceCount > next[i].OccurrenceCount {
				next[i] = rec
			}
			continue
		}
		index[key] = len(next)
		next = append(next, rec)
	}

	s.mu.Lock()
	s.records = next
	s.index = index
	s.mu.Unlock()
}

// Snapshot returns a copy of all records in insertion order.
func (s *Store) Snapshot() []domain.CorrectionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Get(field domain.FieldType, original string) (domain.CorrectionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[domain.NewCorrectionKey(field, original)]
	if !ok {
		return domain.CorrectionRecord{}, false
	}
	return s.records[i], true
}

// Put stores rec, overwriting the record with the same key unless that one has
// seen more occurrences. It is used to adopt the row returned by a repository
// upsert.
func (s *Store) Put(rec domain.CorrectionRecord) {
	if !rec.FieldType.Valid() || strings.TrimSpace(rec.OriginalText) == "" {
		return
	}
	rec = sanitize(rec)
	key := rec.Key()

	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[key]; ok {
		if s.records[i].OccurrenceCount <= rec.OccurrenceCount {
			s.records[i] = rec
		}
		return
	}
	s.index[key] = len(s.records)
	s.records = append(s.records, rec)
}

// upsert is the read-modify-write step of Record, done under one lock so that
// concurrent corrections never lose an increment.
func (s *Store) upsert(cand domain.CorrectionRecord) domain.CorrectionRecord {
	key := cand.Key()

	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[key]; ok {
		rec := s.records[i]
		rec.OccurrenceCount++
		rec.ConfidenceScore = Confidence(rec.OccurrenceCount)
		rec.CorrectedText = cand.CorrectedText
		rec.LastUpdated = cand.LastUpdated
		s.records[i] = rec
		return rec
	}
	s.index[key] = len(s.records)
	s.records = append(s.records, cand)
	return cand
}

func sanitize(rec domain.CorrectionRecord) domain.CorrectionRecord {
	if rec.OccurrenceCount < 1 {
		rec.OccurrenceCount = 1
	}
	if rec.ConfidenceScore <= 0 || rec.ConfidenceScore > 1 {
		rec.ConfidenceScore = Confidence(rec.OccurrenceCount)
	}
	return rec
}

// Stats summarizes records; top bounds the number of most frequent records
// returned.
func Stats(records []domain.CorrectionRecord, top int) domain.TrainingStats {
	stats := domain.TrainingStats{
		Records: len(records),
		ByField: make(map[string]int),
	}
	for _, rec := range records {
		stats.TotalOccurrences += rec.OccurrenceCount
		stats.ByField[rec.FieldType.String()]++
	}

	ranked := slices.Clone(records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OccurrenceCount > ranked[j].OccurrenceCount
	})
	if top >= 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	if ranked == nil {
		ranked = []domain.CorrectionRecord{}
	}
	stats.Top = ranked
	return stats
}
