// Package xlsx renders invoices into an Excel workbook.
package xlsx

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

const (
	SheetInvoices = "Rechnungen"
	SheetSummary  = "Zusammenfassung"

	unknownVendor = "(unbekannt)"
	numFmtAmount  = 4 // #,##0.00
)

var invoiceHeaders = []any{
	"Rechnungsdatum", "Leistungsdatum", "Rechnungsnummer", "Lieferant", "Beschreibung",
	"Netto", "Steuersatz", "Gesamt", "Typ", "Datei", "Status",
}

type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// WriteInvoices writes one row per invoice using the reviewed field values,
// followed by a summary sheet with totals per vendor.
func (wr *Writer) WriteInvoices(w io.Writer, invoices []domain.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetInvoices); err != nil {
		return fmt.Errorf("xlsx rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("xlsx new sheet: %w", err)
	}
	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := writeInvoiceSheet(f, styles, invoices); err != nil {
		return err
	}
	if err := writeSummarySheet(f, styles, invoices); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	wr.logger.Info("export_xlsx_written", "rows", len(invoices))
	return nil
}

type styles struct {
	header int
	amount int
}

func newStyles(f *excelize.File) (styles, error) {
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return styles{}, fmt.Errorf("xlsx header style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: numFmtAmount})
	if err != nil {
		return styles{}, fmt.Errorf("xlsx amount style: %w", err)
	}
	return styles{header: header, amount: amount}, nil
}

func writeInvoiceSheet(f *excelize.File, st styles, invoices []domain.Invoice) error {
	if err := f.SetSheetRow(SheetInvoices, "A1", &invoiceHeaders); err != nil {
		return fmt.Errorf("xlsx header row: %w", err)
	}
	if err := f.SetCellStyle(SheetInvoices, "A1", "K1", st.header); err != nil {
		return fmt.Errorf("xlsx header style: %w", err)
	}

	for i, inv := range invoices {
		fields := inv.Fields
		row := []any{
			fields.Get(domain.FieldDate).Text,
			fields.Get(domain.FieldServiceDate).Text,
			fields.Get(domain.FieldInvoiceNumber).Text,
			fields.Company(),
			fields.Get(domain.FieldDescription).Text,
			amountCell(fields.Get(domain.FieldNetAmount)),
			amountCell(fields.Get(domain.FieldTaxRate)),
			amountCell(fields.Get(domain.FieldTotalAmount)),
			directionLabel(inv.Direction),
			inv.Filename,
			string(inv.Status),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetInvoices, cell, &row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}
	if len(invoices) > 0 {
		last := fmt.Sprintf("H%d", len(invoices)+1)
		if err := f.SetCellStyle(SheetInvoices, "F2", last, st.amount); err != nil {
			return fmt.Errorf("xlsx amount style: %w", err)
		}
	}

	widths := map[string]float64{"A": 14, "B": 14, "C": 20, "D": 28, "E": 40, "F": 12, "G": 10, "H": 12, "I": 10, "J": 32, "K": 10}
	for col, width := range widths {
		if err := f.SetColWidth(SheetInvoices, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

type vendorTotal struct {
	vendor string
	count  int
	total  decimal.Decimal
}

func writeSummarySheet(f *excelize.File, st styles, invoices []domain.Invoice) error {
	sum := decimal.Zero
	byVendor := make(map[string]*vendorTotal)
	for _, inv := range invoices {
		total := inv.Fields.Get(domain.FieldTotalAmount).Amount
		sum = sum.Add(total)

		vendor := strings.TrimSpace(inv.Fields.Company())
		if vendor == "" {
			vendor = unknownVendor
		}
		vt, ok := byVendor[vendor]
		if !ok {
			vt = &vendorTotal{vendor: vendor}
			byVendor[vendor] = vt
		}
		vt.count++
		vt.total = vt.total.Add(total)
	}

	vendors := make([]*vendorTotal, 0, len(byVendor))
	for _, vt := range byVendor {
		vendors = append(vendors, vt)
	}
	sort.Slice(vendors, func(i, j int) bool {
		if !vendors[i].total.Equal(vendors[j].total) {
			return vendors[i].total.GreaterThan(vendors[j].total)
		}
		return vendors[i].vendor < vendors[j].vendor
	})

	rows := [][]any{
		{"Anzahl Rechnungen", len(invoices)},
		{"Summe Gesamt", sum.InexactFloat64()},
		{},
		{"Lieferant", "Anzahl", "Gesamt"},
	}
	for _, vt := range vendors {
		rows = append(rows, []any{vt.vendor, vt.count, vt.total.InexactFloat64()})
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &rows[i]); err != nil {
			return fmt.Errorf("xlsx summary row %d: %w", i+1, err)
		}
	}

	if err := f.SetCellStyle(SheetSummary, "A4", "C4", st.header); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "B2", "B2", st.amount); err != nil {
		return err
	}
	if len(vendors) > 0 {
		if err := f.SetCellStyle(SheetSummary, "C5", fmt.Sprintf("C%d", len(rows)), st.amount); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetSummary, "A", "A", 32)
}

func amountCell(v domain.FieldValue) any {
	if v.IsEmpty() {
		return nil
	}
	return v.Amount.InexactFloat64()
}

func directionLabel(d domain.Direction) string {
	if d == domain.DirectionOutgoing {
		return "Ausgang"
	}
	return "Eingang"
}
