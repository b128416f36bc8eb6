package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/kirillkom/invoice-assistant/internal/core/corrections"
	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

type statusCall struct {
	status domain.InvoiceStatus
	errMsg string
}

type invoiceRepoFake struct {
	inv           *domain.Invoice
	list          []domain.Invoice
	createErr     error
	getErr        error
	saveErr       error
	statusErr     error
	failStatusErr error

	created     *domain.Invoice
	statusCalls []statusCall
	savedID     string
	savedRaw    domain.ExtractionResult
	savedFields domain.ExtractionResult
	savedSugg   domain.Suggestions
	reviewed    *domain.ExtractionResult
	listLimit   int
}

func (f *invoiceRepoFake) Create(_ context.Context, inv *domain.Invoice) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyInv := *inv
	f.created = &copyInv
	return nil
}

func (f *invoiceRepoFake) GetByID(_ context.Context, id string) (*domain.Invoice, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.inv == nil {
		return nil, domain.WrapError(domain.ErrInvoiceNotFound, "get invoice", errors.New("id="+id))
	}
	copyInv := *f.inv
	return &copyInv, nil
}

func (f *invoiceRepoFake) List(_ context.Context, limit int) ([]domain.Invoice, error) {
	f.listLimit = limit
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.list, nil
}

func (f *invoiceRepoFake) UpdateStatus(_ context.Context, _ string, status domain.InvoiceStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if status == domain.StatusFailed && f.failStatusErr != nil {
		return f.failStatusErr
	}
	if f.statusErr != nil {
		return f.statusErr
	}
	return nil
}

func (f *invoiceRepoFake) SaveExtraction(_ context.Context, id string, raw, fields domain.ExtractionResult, suggestions domain.Suggestions) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedID = id
	f.savedRaw = raw
	f.savedFields = fields
	f.savedSugg = suggestions
	return nil
}

func (f *invoiceRepoFake) SaveReviewed(_ context.Context, _ string, fields domain.ExtractionResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.reviewed = &fields
	return nil
}

type storageFake struct {
	savedKey  string
	savedBody string
	err       error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type queueFake struct {
	invoiceID string
	err       error
}

func (f *queueFake) PublishInvoiceIngested(_ context.Context, invoiceID string) error {
	if f.err != nil {
		return f.err
	}
	f.invoiceID = invoiceID
	return nil
}

func (f *queueFake) SubscribeInvoiceIngested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

// correctionRepoFake mimics the SQL upsert: it owns the occurrence counter.
type correctionRepoFake struct {
	mu        sync.Mutex
	store     *corrections.Store
	listCalls int
	listErr   error
	upsertErr error
}

func newCorrectionRepoFake(records ...domain.CorrectionRecord) *correctionRepoFake {
	return &correctionRepoFake{store: corrections.NewStore(records)}
}

func (f *correctionRepoFake) ListCorrections(context.Context) ([]domain.CorrectionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.store.Snapshot(), nil
}

func (f *correctionRepoFake) UpsertCorrection(_ context.Context, rec domain.CorrectionRecord) (domain.CorrectionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return domain.CorrectionRecord{}, f.upsertErr
	}
	if existing, ok := f.store.Get(rec.FieldType, rec.OriginalText); ok {
		existing.OccurrenceCount++
		existing.ConfidenceScore = corrections.Confidence(existing.OccurrenceCount)
		existing.CorrectedText = rec.CorrectedText
		existing.LastUpdated = rec.LastUpdated
		f.store.Put(existing)
		return existing, nil
	}
	f.store.Put(rec)
	return rec, nil
}

type observerFake struct {
	fields    map[string]bool
	decisions map[string]string
}

func newObserverFake() *observerFake {
	return &observerFake{fields: map[string]bool{}, decisions: map[string]string{}}
}

func (f *observerFake) RecordFieldExtraction(field string, found bool) { f.fields[field] = found }

func (f *observerFake) RecordCorrectionDecision(field, decision string) { f.decisions[field] = decision }
