package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

const sampleInvoice = "Tausendkraut GmbH\nMusterstraße 1\n12345 Musterstadt\n\n" +
	"Rechnungsnummer: RG-2024-0099\nDatum: 01.03.2024\n\n" +
	"Bio Guayusa Tee 250g 12,00 €\nGesamtbetrag 42,00 €\n"

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func writeSample(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "rechnung.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleInvoice), 0o644))
	return path
}

func decodeAnalyses(t *testing.T, raw string) []fileAnalysis {
	t.Helper()
	var got []fileAnalysis
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	return got
}

func TestExtractThenCorrectThenExtract(t *testing.T) {
	dir := t.TempDir()
	invoice := writeSample(t, dir)
	store := filepath.Join(dir, "corrections.json")

	first := decodeAnalyses(t, run(t, "extract", "--store-path", store, invoice))
	require.Len(t, first, 1)
	assert.Equal(t, "RG-2024-0099", first[0].Fields.Get(domain.FieldInvoiceNumber).Text)

	run(t, "correct", "--store-path", store,
		"--field", "invoice_number", "--from", "RG-2024-0099", "--to", "RG-2024-00099", "--company", "Tausendkraut")

	second := decodeAnalyses(t, run(t, "extract", "--store-path", store, invoice))
	require.Len(t, second, 1)
	got := second[0].Fields.Get(domain.FieldInvoiceNumber)
	assert.Equal(t, "RG-2024-00099", got.Text)
	assert.Equal(t, domain.SourceCorrected, got.Source)
	assert.Equal(t, "RG-2024-0099", second[0].Raw.Get(domain.FieldInvoiceNumber).Text)

	var stats domain.TrainingStats
	require.NoError(t, json.Unmarshal([]byte(run(t, "stats", "--store-path", store)), &stats))
	assert.Equal(t, 1, stats.Records)
	assert.Equal(t, 1, stats.ByField["invoice_number"])
}

func TestCorrectWithEqualValuesLearnsNothing(t *testing.T) {
	store := filepath.Join(t.TempDir(), "corrections.json")
	out := run(t, "correct", "--store-path", store, "--field", "description", "--from", "Tee", "--to", " Tee ")
	assert.Contains(t, out, "nothing to learn")
}

func TestCorrectRejectsUnknownField(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"correct", "--store-path", filepath.Join(t.TempDir(), "c.json"),
		"--field", "colour", "--from", "a", "--to", "b"})
	assert.Error(t, cmd.Execute())
}

func TestUnknownStoreIsRejected(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"stats", "--store", "postgres"})
	assert.Error(t, cmd.Execute())
}

func TestExportWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	invoice := writeSample(t, dir)
	out := filepath.Join(dir, "out.xlsx")

	msg := run(t, "export", "--store", "sqlite", "--store-path", filepath.Join(dir, "c.db"), "--out", out, invoice)
	assert.Contains(t, msg, "wrote 1 invoices")

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Rechnungen")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[1], "RG-2024-0099")
	assert.Contains(t, rows[1], "rechnung.txt")
}
