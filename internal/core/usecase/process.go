package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
)

type ProcessInvoiceUseCase struct {
	repo      ports.InvoiceRepository
	extractor ports.TextExtractor
	analyzer  ports.InvoiceAnalyzer
}

func NewProcessInvoiceUseCase(
	repo ports.InvoiceRepository,
	extractor ports.TextExtractor,
	analyzer ports.InvoiceAnalyzer,
) *ProcessInvoiceUseCase {
	return &ProcessInvoiceUseCase{
		repo:      repo,
		extractor: extractor,
		analyzer:  analyzer,
	}
}

func (uc *ProcessInvoiceUseCase) ProcessByID(ctx context.Context, invoiceID string) error {
	if err := uc.markStatus(ctx, invoiceID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	analysis, err := uc.processPipeline(ctx, invoiceID)
	if err != nil {
		if failErr := uc.markFailed(ctx, invoiceID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.persistExtraction(ctx, invoiceID, analysis); err != nil {
		if failErr := uc.markFailed(ctx, invoiceID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, invoiceID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	return nil
}

func (uc *ProcessInvoiceUseCase) processPipeline(ctx context.Context, invoiceID string) (domain.Analysis, error) {
	inv, err := uc.loadInvoice(ctx, invoiceID)
	if err != nil {
		return domain.Analysis{}, err
	}

	text, err := uc.extractText(ctx, inv)
	if err != nil {
		return domain.Analysis{}, err
	}

	analysis, err := uc.analyzer.Analyze(ctx, text)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("analyze text: %w", err)
	}
	return analysis, nil
}

func (uc *ProcessInvoiceUseCase) loadInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	inv, err := uc.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("fetch invoice by id: %w", err)
	}
	return inv, nil
}

func (uc *ProcessInvoiceUseCase) extractText(ctx context.Context, inv *domain.Invoice) (string, error) {
	text, err := uc.extractor.Extract(ctx, inv)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

func (uc *ProcessInvoiceUseCase) persistExtraction(ctx context.Context, invoiceID string, analysis domain.Analysis) error {
	if err := uc.repo.SaveExtraction(ctx, invoiceID, analysis.Raw, analysis.Fields, analysis.Suggestions); err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}
	return nil
}

func (uc *ProcessInvoiceUseCase) markStatus(ctx context.Context, invoiceID string, status domain.InvoiceStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, invoiceID, status, errMessage)
}

func (uc *ProcessInvoiceUseCase) markFailed(ctx context.Context, invoiceID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, invoiceID, domain.StatusFailed, processErr.Error())
}
