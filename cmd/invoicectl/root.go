package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirillkom/invoice-assistant/internal/bootstrap"
	"github.com/kirillkom/invoice-assistant/internal/config"
	"github.com/kirillkom/invoice-assistant/internal/observability/logging"
)

type globalOptions struct {
	store     string
	storePath string
	rules     string
	logLevel  string

	logger *slog.Logger
	local  *bootstrap.Local
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "invoicectl",
		Short:         "Invoice field extraction and correction memory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.open(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.local != nil {
				opts.local.Close()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.store, "store", config.BackendFile, "correction store: file or sqlite")
	flags.StringVar(&opts.storePath, "store-path", "", "correction store location (default depends on --store)")
	flags.StringVar(&opts.rules, "rules", "", "YAML file with extraction vocabulary overrides")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newExtractCmd(opts),
		newCorrectCmd(opts),
		newStatsCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

func (o *globalOptions) open(cmd *cobra.Command) error {
	cfg := config.Config{
		CorrectionsFile:       "./data/corrections.json",
		CorrectionsSQLitePath: "./data/corrections.db",
		ExtractionRulesFile:   o.rules,
	}
	switch o.store {
	case config.BackendFile:
		cfg.CorrectionsBackend = config.BackendFile
		if o.storePath != "" {
			cfg.CorrectionsFile = o.storePath
		}
	case config.BackendSQLite:
		cfg.CorrectionsBackend = config.BackendSQLite
		if o.storePath != "" {
			cfg.CorrectionsSQLitePath = o.storePath
		}
	default:
		return fmt.Errorf("unknown --store %q (want file or sqlite)", o.store)
	}

	o.logger = logging.NewCLILogger(cmd.ErrOrStderr(), o.logLevel)
	local, err := bootstrap.NewLocal(cmd.Context(), cfg, o.logger)
	if err != nil {
		return err
	}
	o.local = local
	return nil
}
