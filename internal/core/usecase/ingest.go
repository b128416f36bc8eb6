package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
)

type IngestInvoiceUseCase struct {
	repo    ports.InvoiceRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestInvoiceUseCase(
	repo ports.InvoiceRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestInvoiceUseCase {
	return &IngestInvoiceUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestInvoiceUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	direction domain.Direction,
	body io.Reader,
) (*domain.Invoice, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload invoice", fmt.Errorf("filename is required"))
	}
	if domain.FormatOf(filename, mimeType) == domain.FormatUnknown {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "upload invoice", fmt.Errorf("%s (%s)", filename, mimeType))
	}
	if direction == "" {
		direction = domain.DirectionIncoming
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	inv := &domain.Invoice{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Direction:   direction,
		Status:      domain.StatusUploaded,
		Raw:         domain.NewExtractionResult(),
		Fields:      domain.NewExtractionResult(),
		Suggestions: domain.Suggestions{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice metadata: %w", err)
	}

	if err := uc.queue.PublishInvoiceIngested(ctx, inv.ID); err != nil {
		// Without the event no worker ever picks the invoice up.
		if failErr := uc.repo.UpdateStatus(ctx, inv.ID, domain.StatusFailed, "publish ingestion event: "+err.Error()); failErr != nil {
			return nil, fmt.Errorf("publish ingestion event: %w; mark failed status: %v", err, failErr)
		}
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return inv, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "invoice.bin"
	}
	return base
}
