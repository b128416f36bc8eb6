package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/extractor"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/storage/localfs"
)

type fileAnalysis struct {
	File string `json:"file"`
	domain.Analysis
}

func newExtractCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>...",
		Short: "Extract invoice fields from PDF or text files and print them as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]fileAnalysis, 0, len(args))
			for _, path := range args {
				analysis, err := analyzeFile(cmd.Context(), opts, path)
				if err != nil {
					return err
				}
				results = append(results, fileAnalysis{File: path, Analysis: analysis})
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}
}

func newCorrectCmd(opts *globalOptions) *cobra.Command {
	var field, from, to, company string
	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Teach the correction memory that one extracted value should read differently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fieldType, err := domain.ParseFieldType(field)
			if err != nil {
				return err
			}
			rec, recorded, err := opts.local.CorrectionUC.RecordCorrection(cmd.Context(), from, to, fieldType, company)
			if err != nil {
				return err
			}
			if !recorded {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to learn: values are empty or equal")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "field type, e.g. invoice_number")
	cmd.Flags().StringVar(&from, "from", "", "value as extracted")
	cmd.Flags().StringVar(&to, "to", "", "corrected value")
	cmd.Flags().StringVar(&company, "company", "", "company the correction applies to")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the correction memory has learned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := opts.local.CorrectionUC.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var out string
	var direction string
	cmd := &cobra.Command{
		Use:   "export <file>...",
		Short: "Extract invoice files and write the results to an xlsx workbook",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			invoices := make([]domain.Invoice, 0, len(args))
			for _, path := range args {
				analysis, err := analyzeFile(cmd.Context(), opts, path)
				if err != nil {
					return err
				}
				invoices = append(invoices, domain.Invoice{
					Filename:    filepath.Base(path),
					Direction:   domain.ParseDirection(direction),
					Status:      domain.StatusReady,
					Raw:         analysis.Raw,
					Fields:      analysis.Fields,
					Suggestions: analysis.Suggestions,
					CreatedAt:   now,
					UpdatedAt:   now,
				})
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := opts.local.Spreadsheet.WriteInvoices(f, invoices); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d invoices to %s\n", len(invoices), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "invoices.xlsx", "output workbook")
	cmd.Flags().StringVar(&direction, "direction", string(domain.DirectionIncoming), "incoming or outgoing")
	return cmd
}

// analyzeFile reads path through the same extractors the worker uses, rooted
// at the file's directory.
func analyzeFile(ctx context.Context, opts *globalOptions, path string) (domain.Analysis, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.Analysis{}, err
	}
	if _, err := os.Stat(abs); err != nil {
		return domain.Analysis{}, err
	}
	storage, err := localfs.New(filepath.Dir(abs))
	if err != nil {
		return domain.Analysis{}, err
	}
	base := filepath.Base(abs)
	texts := extractor.NewDispatcher(plaintext.NewExtractor(storage), pdftext.NewExtractor(storage))
	text, err := texts.Extract(ctx, &domain.Invoice{Filename: base, StoragePath: base})
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("%s: %w", path, err)
	}
	opts.logger.Debug("file_text_extracted", "file", path, "chars", len(text))
	return opts.local.AnalyzeUC.Analyze(ctx, text)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
