package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/extraction"
)

func readyInvoice() *domain.Invoice {
	fields := domain.NewExtractionResult()
	fields.SetText(domain.FieldCompany, "Acme GmbH", domain.SourceRaw)
	fields.SetText(domain.FieldInvoiceNumber, "RG-1", domain.SourceRaw)
	fields.SetAmount(domain.FieldTotalAmount, decimal.NewFromInt(42), domain.SourceRaw)
	return &domain.Invoice{ID: "inv-1", Status: domain.StatusReady, Raw: fields, Fields: fields}
}

func TestRecordCorrectionAdoptsStoredRow(t *testing.T) {
	repo := newCorrectionRepoFake()
	uc := NewCorrectionUseCase(nil, repo, nil, nil, nil, 0)

	var rec domain.CorrectionRecord
	for i := 0; i < 3; i++ {
		var ok bool
		var err error
		rec, ok, err = uc.RecordCorrection(context.Background(), "RG-2024-0099", "RG-2024-00099", domain.FieldInvoiceNumber, "Tausendkraut GmbH")
		if err != nil || !ok {
			t.Fatalf("RecordCorrection() = %v, %v", ok, err)
		}
	}
	if rec.OccurrenceCount != 3 {
		t.Fatalf("expected 3 occurrences, got %d", rec.OccurrenceCount)
	}
	if rec.ConfidenceScore != 1.0 {
		t.Fatalf("expected saturated confidence, got %v", rec.ConfidenceScore)
	}

	stats, err := uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Records != 1 || stats.TotalOccurrences != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRecordCorrectionSkipsNoop(t *testing.T) {
	repo := newCorrectionRepoFake()
	uc := NewCorrectionUseCase(nil, repo, nil, nil, nil, 0)

	_, ok, err := uc.RecordCorrection(context.Background(), "42,00", "42.00", domain.FieldTotalAmount, "")
	if err != nil {
		t.Fatalf("RecordCorrection() error = %v", err)
	}
	if ok {
		t.Fatalf("expected no-op for equal amounts")
	}
	if repo.store.Len() != 0 {
		t.Fatalf("expected nothing persisted")
	}
}

func TestRecordCorrectionPropagatesRepositoryError(t *testing.T) {
	repo := newCorrectionRepoFake()
	repo.upsertErr = errors.New("db down")
	uc := NewCorrectionUseCase(nil, repo, nil, nil, nil, 0)

	_, _, err := uc.RecordCorrection(context.Background(), "a b", "c d", domain.FieldDescription, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := uc.memory.Store().Get(domain.FieldDescription, "a b"); ok {
		t.Fatalf("memory must not learn a correction that was not persisted")
	}
}

func TestApplyLoadsFromRepositoryAndRefreshesOnInterval(t *testing.T) {
	repo := newCorrectionRepoFake(domain.CorrectionRecord{
		OriginalText:    "RG-2024-0099",
		CorrectedText:   "RG-2024-00099",
		FieldType:       domain.FieldInvoiceNumber,
		CompanyContext:  "Tausendkraut",
		OccurrenceCount: 3,
		ConfidenceScore: 1.0,
	})
	observer := newObserverFake()
	uc := NewCorrectionUseCase(nil, repo, nil, observer, nil, time.Minute)
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return clock }

	raw := extraction.Extract(sampleInvoiceText)
	fields, suggestions := uc.Apply(context.Background(), raw)
	if got := fields.Get(domain.FieldInvoiceNumber); got.Text != "RG-2024-00099" || got.Source != domain.SourceCorrected {
		t.Fatalf("expected auto-applied invoice number, got %+v", got)
	}
	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %v", suggestions)
	}
	if observer.decisions["invoice_number"] != "auto_apply" {
		t.Fatalf("expected auto_apply decision, got %v", observer.decisions)
	}

	uc.Apply(context.Background(), raw)
	if repo.listCalls != 1 {
		t.Fatalf("expected a single load within the interval, got %d", repo.listCalls)
	}
	clock = clock.Add(2 * time.Minute)
	uc.Apply(context.Background(), raw)
	if repo.listCalls != 2 {
		t.Fatalf("expected reload after the interval, got %d", repo.listCalls)
	}
}

func TestApplyKeepsMemoryWhenRefreshFails(t *testing.T) {
	repo := newCorrectionRepoFake()
	repo.listErr = errors.New("db down")
	uc := NewCorrectionUseCase(nil, repo, nil, nil, nil, 0)
	uc.memory.Record("RG-1", "RG-01", domain.FieldInvoiceNumber, "")

	raw := domain.NewExtractionResult()
	raw.SetText(domain.FieldInvoiceNumber, "RG-1", domain.SourceRaw)
	fields, _ := uc.Apply(context.Background(), raw)
	if got := fields.Get(domain.FieldInvoiceNumber).Text; got != "RG-01" {
		t.Fatalf("expected in-memory correction to apply, got %q", got)
	}
}

func TestSubmitCorrectionsLearnsChangedFields(t *testing.T) {
	invoices := &invoiceRepoFake{inv: readyInvoice()}
	repo := newCorrectionRepoFake()
	uc := NewCorrectionUseCase(nil, repo, invoices, nil, nil, 0)

	inv, err := uc.SubmitCorrections(context.Background(), "inv-1", map[domain.FieldType]string{
		domain.FieldInvoiceNumber: "RG-01",
		domain.FieldTotalAmount:   "42,50",
		domain.FieldDescription:   "Kräutertee",
	})
	if err != nil {
		t.Fatalf("SubmitCorrections() error = %v", err)
	}
	if inv.Status != domain.StatusReviewed {
		t.Fatalf("expected reviewed status, got %s", inv.Status)
	}
	if invoices.reviewed == nil {
		t.Fatalf("expected SaveReviewed call")
	}
	if got := invoices.reviewed.Get(domain.FieldTotalAmount).Amount; !got.Equal(decimal.RequireFromString("42.5")) {
		t.Fatalf("expected reviewed total 42.50, got %s", got)
	}
	if got := invoices.reviewed.Get(domain.FieldDescription).Text; got != "Kräutertee" {
		t.Fatalf("expected reviewed description, got %q", got)
	}

	records := repo.store.Snapshot()
	if len(records) != 2 {
		t.Fatalf("expected 2 learned records (empty description skipped), got %+v", records)
	}
	number, ok := repo.store.Get(domain.FieldInvoiceNumber, "RG-1")
	if !ok || number.CorrectedText != "RG-01" || number.CompanyContext != "Acme GmbH" {
		t.Fatalf("unexpected invoice number record: %+v", number)
	}
	total, ok := repo.store.Get(domain.FieldTotalAmount, "42.00")
	if !ok || total.CorrectedText != "42.50" {
		t.Fatalf("unexpected total record: %+v", total)
	}
}

func TestSubmitCorrectionsUsesReviewedCompanyAsContext(t *testing.T) {
	invoices := &invoiceRepoFake{inv: readyInvoice()}
	repo := newCorrectionRepoFake()
	uc := NewCorrectionUseCase(nil, repo, invoices, nil, nil, 0)

	_, err := uc.SubmitCorrections(context.Background(), "inv-1", map[domain.FieldType]string{
		domain.FieldCompany:       "Acme Werkzeuge GmbH",
		domain.FieldInvoiceNumber: "RG-01",
	})
	if err != nil {
		t.Fatalf("SubmitCorrections() error = %v", err)
	}
	number, ok := repo.store.Get(domain.FieldInvoiceNumber, "RG-1")
	if !ok || number.CompanyContext != "Acme Werkzeuge GmbH" {
		t.Fatalf("expected reviewed company as context, got %+v", number)
	}
}

func TestSubmitCorrectionsRejectsUnprocessedInvoice(t *testing.T) {
	inv := readyInvoice()
	inv.Status = domain.StatusProcessing
	uc := NewCorrectionUseCase(nil, newCorrectionRepoFake(), &invoiceRepoFake{inv: inv}, nil, nil, 0)

	_, err := uc.SubmitCorrections(context.Background(), "inv-1", map[domain.FieldType]string{domain.FieldInvoiceNumber: "X-1"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSubmitCorrectionsRejectsBadAmount(t *testing.T) {
	uc := NewCorrectionUseCase(nil, newCorrectionRepoFake(), &invoiceRepoFake{inv: readyInvoice()}, nil, nil, 0)

	_, err := uc.SubmitCorrections(context.Background(), "inv-1", map[domain.FieldType]string{domain.FieldTotalAmount: "zweiundvierzig"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSubmitCorrectionsMissingInvoice(t *testing.T) {
	uc := NewCorrectionUseCase(nil, newCorrectionRepoFake(), &invoiceRepoFake{}, nil, nil, 0)

	_, err := uc.SubmitCorrections(context.Background(), "missing", map[domain.FieldType]string{domain.FieldInvoiceNumber: "X-1"})
	if !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
