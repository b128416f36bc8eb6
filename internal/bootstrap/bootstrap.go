package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/config"
	"github.com/kirillkom/invoice-assistant/internal/core/corrections"
	"github.com/kirillkom/invoice-assistant/internal/core/extraction"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
	"github.com/kirillkom/invoice-assistant/internal/core/usecase"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/extractor"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/repository/jsonfile"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/repository/sqlite"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/storage/localfs"
)

type Options struct {
	Logger *slog.Logger
	// Observer receives per-field extraction and correction outcomes.
	Observer ports.ExtractionObserver
	// QueueLagObserver receives the publish-to-delivery delay of queued invoices.
	QueueLagObserver func(time.Duration)
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue    ports.MessageQueue
	Invoices ports.InvoiceRepository

	IngestUC     *usecase.IngestInvoiceUseCase
	ProcessUC    *usecase.ProcessInvoiceUseCase
	AnalyzeUC    *usecase.AnalyzeUseCase
	CorrectionUC *usecase.CorrectionUseCase
	ExportUC     *usecase.ExportUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	closers := make([]func(), 0, 3)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	vocab, err := config.LoadVocabulary(cfg.ExtractionRulesFile)
	if err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	closers = append(closers, func() { _ = db.Close() })
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		closeAll()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	invoices := postgres.NewInvoiceRepository(db)

	storeExecutor := resilience.NewExecutor(resilience.CorrectionStoreConfig(), logger)
	correctionRepo, closeCorrections, err := openCorrectionRepository(ctx, cfg, db, storeExecutor, logger)
	if err != nil {
		closeAll()
		return nil, err
	}
	closers = append(closers, closeCorrections)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.PublishConfig(), logger),
		Logger:             logger,
		LagObserver:        opts.QueueLagObserver,
	})
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	closers = append(closers, queue.Close)

	correctionUC := usecase.NewCorrectionUseCase(
		corrections.NewMemory(nil, logger),
		correctionRepo,
		invoices,
		opts.Observer,
		logger,
		time.Duration(cfg.CorrectionsRefreshSeconds)*time.Second,
	)
	if err := correctionUC.Load(ctx); err != nil {
		closeAll()
		return nil, fmt.Errorf("load corrections: %w", err)
	}

	textExtractor := extractor.NewDispatcher(plaintext.NewExtractor(storage), pdftext.NewExtractor(storage))
	analyzeUC := usecase.NewAnalyzeUseCase(extraction.NewExtractor(vocab, logger), correctionUC, opts.Observer)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:    queue,
		Invoices: invoices,

		IngestUC:     usecase.NewIngestInvoiceUseCase(invoices, storage, queue),
		ProcessUC:    usecase.NewProcessInvoiceUseCase(invoices, textExtractor, analyzeUC),
		AnalyzeUC:    analyzeUC,
		CorrectionUC: correctionUC,
		ExportUC:     usecase.NewExportUseCase(invoices, xlsx.NewWriter(logger)),

		closeFn: closeAll,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// openCorrectionRepository picks the correction store named by
// CORRECTIONS_BACKEND. db may be nil for the sqlite and file backends.
func openCorrectionRepository(
	ctx context.Context,
	cfg config.Config,
	db *sql.DB,
	executor *resilience.Executor,
	logger *slog.Logger,
) (ports.CorrectionRepository, func(), error) {
	switch cfg.CorrectionsBackend {
	case config.BackendSQLite:
		repo, err := sqlite.Open(ctx, cfg.CorrectionsSQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite corrections: %w", err)
		}
		return repo, func() { _ = repo.Close() }, nil
	case config.BackendFile:
		return jsonfile.NewCorrectionRepository(cfg.CorrectionsFile, logger), func() {}, nil
	default:
		if db == nil {
			return nil, nil, fmt.Errorf("postgres corrections backend needs a database")
		}
		return postgres.NewCorrectionRepository(db).WithExecutor(executor), func() {}, nil
	}
}
