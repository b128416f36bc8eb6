package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
)

// AnalyzeUseCase runs the extraction cascade and then the correction memory.
type AnalyzeUseCase struct {
	fields      ports.FieldExtractor
	corrections *CorrectionUseCase
	observer    ports.ExtractionObserver
}

func NewAnalyzeUseCase(fields ports.FieldExtractor, corrections *CorrectionUseCase, observer ports.ExtractionObserver) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		fields:      fields,
		corrections: corrections,
		observer:    observer,
	}
}

func (uc *AnalyzeUseCase) Analyze(ctx context.Context, text string) (domain.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Analysis{}, domain.WrapError(domain.ErrInvalidInput, "analyze", errors.New("text is required"))
	}

	raw := uc.fields.Extract(text)
	uc.observeFields(raw)

	fields, suggestions := uc.corrections.Apply(ctx, raw)
	return domain.Analysis{
		Raw:         raw,
		Fields:      fields,
		Suggestions: suggestions,
	}, nil
}

func (uc *AnalyzeUseCase) observeFields(raw domain.ExtractionResult) {
	if uc.observer == nil {
		return
	}
	for _, v := range raw.Values() {
		uc.observer.RecordFieldExtraction(v.Field.String(), !v.IsEmpty())
	}
}
