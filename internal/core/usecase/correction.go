package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/corrections"
	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
)

const statsTopN = 10

// CorrectionUseCase keeps the correction memory in sync with its repository,
// applies it to extractions and records reviewer feedback.
type CorrectionUseCase struct {
	memory       *corrections.Memory
	repo         ports.CorrectionRepository
	invoices     ports.InvoiceRepository
	observer     ports.ExtractionObserver
	logger       *slog.Logger
	refreshEvery time.Duration
	now          func() time.Time

	mu          sync.Mutex
	lastRefresh time.Time
}

// NewCorrectionUseCase wires the memory to repo. A nil repo keeps corrections
// in process memory only; a nil invoices repository disables SubmitCorrections.
func NewCorrectionUseCase(
	memory *corrections.Memory,
	repo ports.CorrectionRepository,
	invoices ports.InvoiceRepository,
	observer ports.ExtractionObserver,
	logger *slog.Logger,
	refreshEvery time.Duration,
) *CorrectionUseCase {
	if memory == nil {
		memory = corrections.NewMemory(nil, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CorrectionUseCase{
		memory:       memory,
		repo:         repo,
		invoices:     invoices,
		observer:     observer,
		logger:       logger,
		refreshEvery: refreshEvery,
		now:          time.Now,
	}
}

// Load replaces the in-memory records with the persisted ones.
func (uc *CorrectionUseCase) Load(ctx context.Context) error {
	if uc.repo == nil {
		return nil
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.loadLocked(ctx)
}

// Refresh reloads persisted records when the refresh interval has elapsed.
// The first call always loads; a non-positive interval loads only once.
func (uc *CorrectionUseCase) Refresh(ctx context.Context) error {
	if uc.repo == nil {
		return nil
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if !uc.lastRefresh.IsZero() {
		if uc.refreshEvery <= 0 || uc.now().Sub(uc.lastRefresh) < uc.refreshEvery {
			return nil
		}
	}
	return uc.loadLocked(ctx)
}

func (uc *CorrectionUseCase) loadLocked(ctx context.Context) error {
	records, err := uc.repo.ListCorrections(ctx)
	if err != nil {
		return fmt.Errorf("list corrections: %w", err)
	}
	uc.memory.Store().Replace(records)
	uc.lastRefresh = uc.now()
	uc.logger.Debug("corrections_loaded", "records", len(records))
	return nil
}

// Apply runs the memory over raw. A failed refresh is logged and the records
// already in memory are used.
func (uc *CorrectionUseCase) Apply(ctx context.Context, raw domain.ExtractionResult) (domain.ExtractionResult, domain.Suggestions) {
	if err := uc.Refresh(ctx); err != nil {
		uc.logger.Warn("corrections_refresh_failed", "error", err)
	}

	app := uc.memory.ApplyDetailed(raw)
	for _, o := range app.Outcomes {
		if uc.observer != nil {
			uc.observer.RecordCorrectionDecision(o.Field.String(), o.Decision.String())
		}
		uc.logger.Debug("correction_applied",
			"field", o.Field.String(),
			"decision", o.Decision.String(),
			"confidence", o.Record.ConfidenceScore,
		)
	}
	return app.Result, app.Suggestions
}

func (uc *CorrectionUseCase) RecordCorrection(
	ctx context.Context,
	original, corrected string,
	field domain.FieldType,
	companyContext string,
) (domain.CorrectionRecord, bool, error) {
	if !field.Valid() {
		return domain.CorrectionRecord{}, false, domain.WrapError(domain.ErrInvalidInput, "record correction", fmt.Errorf("unknown field %d", int(field)))
	}
	if uc.repo == nil {
		rec, ok := uc.memory.Record(original, corrected, field, companyContext)
		return rec, ok, nil
	}

	cand, ok := corrections.Candidate(original, corrected, field, companyContext, uc.now())
	if !ok {
		return domain.CorrectionRecord{}, false, nil
	}
	stored, err := uc.repo.UpsertCorrection(ctx, cand)
	if err != nil {
		return domain.CorrectionRecord{}, false, fmt.Errorf("persist correction: %w", err)
	}
	uc.memory.Store().Put(stored)

	uc.logger.Info("correction_recorded",
		"field", field.String(),
		"occurrences", stored.OccurrenceCount,
		"confidence", stored.ConfidenceScore,
	)
	return stored, true, nil
}

// SubmitCorrections stores the reviewed values of an invoice and learns every
// changed field. The reviewed company becomes the context of the learned
// records.
func (uc *CorrectionUseCase) SubmitCorrections(
	ctx context.Context,
	invoiceID string,
	fields map[domain.FieldType]string,
) (*domain.Invoice, error) {
	if uc.invoices == nil {
		return nil, errors.New("submit corrections: invoice repository is not configured")
	}
	if len(fields) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit corrections", errors.New("no fields given"))
	}

	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("fetch invoice by id: %w", err)
	}
	if inv.Status != domain.StatusReady && inv.Status != domain.StatusReviewed {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit corrections",
			fmt.Errorf("invoice %s is %s", invoiceID, inv.Status))
	}

	reviewed := inv.Fields
	for _, field := range domain.FieldTypes() {
		text, ok := fields[field]
		if !ok {
			continue
		}
		v, err := reviewedValue(field, text)
		if err != nil {
			return nil, err
		}
		reviewed.Set(v)
	}

	company := reviewed.Company()
	for _, field := range domain.FieldTypes() {
		text, ok := fields[field]
		if !ok {
			continue
		}
		presented := inv.Fields.Get(field).String()
		if blankOrZero(presented) || blankOrZero(text) {
			continue
		}
		if _, _, err := uc.RecordCorrection(ctx, presented, text, field, company); err != nil {
			return nil, err
		}
	}

	if err := uc.invoices.SaveReviewed(ctx, invoiceID, reviewed); err != nil {
		return nil, fmt.Errorf("save reviewed fields: %w", err)
	}
	inv.Fields = reviewed
	inv.Status = domain.StatusReviewed
	inv.UpdatedAt = uc.now().UTC()
	return inv, nil
}

func (uc *CorrectionUseCase) Stats(ctx context.Context) (domain.TrainingStats, error) {
	if err := uc.Refresh(ctx); err != nil {
		return domain.TrainingStats{}, err
	}
	return corrections.Stats(uc.memory.Store().Snapshot(), statsTopN), nil
}

// reviewedValue parses a reviewer-entered value. Amounts accept any locale
// the normalizer understands; dates are stored as ISO when they parse.
func reviewedValue(field domain.FieldType, text string) (domain.FieldValue, error) {
	text = strings.TrimSpace(text)
	v := domain.FieldValue{Field: field, Source: domain.SourceCorrected}
	switch {
	case text == "":
		return v, nil
	case field.Numeric():
		amount, err := normalize.Amount(text)
		if err != nil {
			return domain.FieldValue{}, domain.WrapError(domain.ErrInvalidInput, "parse "+field.String(), err)
		}
		v.Amount = amount
	case field.Date():
		v.Text = corrections.CanonicalText(field, text)
	default:
		v.Text = text
	}
	return v, nil
}

func blankOrZero(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	amount, err := normalize.Amount(s)
	return err == nil && amount.IsZero()
}
