package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/invoice-assistant/internal/config"
	"github.com/kirillkom/invoice-assistant/internal/core/corrections"
	"github.com/kirillkom/invoice-assistant/internal/core/extraction"
	"github.com/kirillkom/invoice-assistant/internal/core/usecase"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/export/xlsx"
)

// Local is the database-free wiring used by the CLI and the MCP server:
// the correction memory persists to a JSON file or SQLite, never Postgres.
type Local struct {
	AnalyzeUC    *usecase.AnalyzeUseCase
	CorrectionUC *usecase.CorrectionUseCase
	Spreadsheet  *xlsx.Writer

	closeFn func()
}

func NewLocal(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Local, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CorrectionsBackend == config.BackendPostgres {
		cfg.CorrectionsBackend = config.BackendFile
	}

	vocab, err := config.LoadVocabulary(cfg.ExtractionRulesFile)
	if err != nil {
		return nil, err
	}
	repo, closeRepo, err := openCorrectionRepository(ctx, cfg, nil, nil, logger)
	if err != nil {
		return nil, err
	}

	correctionUC := usecase.NewCorrectionUseCase(corrections.NewMemory(nil, logger), repo, nil, nil, logger, 0)
	if err := correctionUC.Load(ctx); err != nil {
		closeRepo()
		return nil, fmt.Errorf("load corrections: %w", err)
	}

	return &Local{
		AnalyzeUC:    usecase.NewAnalyzeUseCase(extraction.NewExtractor(vocab, logger), correctionUC, nil),
		CorrectionUC: correctionUC,
		Spreadsheet:  xlsx.NewWriter(logger),
		closeFn:      closeRepo,
	}, nil
}

func (l *Local) Close() {
	if l.closeFn != nil {
		l.closeFn()
	}
}
