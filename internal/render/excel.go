package render

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"invoicing/internal/invoice"
	"invoicing/internal/report"
)

const (
	invoicesSheet = "Invoices"
	reportSheet   = "Report"

	// Built-in number formats: 2 is "0.00", 14 is a locale short date.
	numFmtMoney = 2
	numFmtDate  = 14
)

// Excel renders .xlsx workbooks through the excelize stream writer.
type Excel struct{}

type excelStyles struct {
	header int
	title  int
	money  int
	date   int
}

func newExcelStyles(f *excelize.File) (excelStyles, error) {
	var s excelStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#BDD7EE"}},
	}); err != nil {
		return s, err
	}
	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return s, err
	}
	if s.money, err = f.NewStyle(&excelize.Style{NumFmt: numFmtMoney}); err != nil {
		return s, err
	}
	if s.date, err = f.NewStyle(&excelize.Style{NumFmt: numFmtDate}); err != nil {
		return s, err
	}
	return s, nil
}

func (Excel) RenderInvoices(w io.Writer, invoices []invoice.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", invoicesSheet); err != nil {
		return err
	}
	styles, err := newExcelStyles(f)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}

	sw, err := f.NewStreamWriter(invoicesSheet)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, 2, 24); err != nil {
		return err
	}
	if err := sw.SetColWidth(3, len(report.InvoiceColumns), 14); err != nil {
		return err
	}

	header := make([]any, 0, len(report.InvoiceColumns))
	for _, col := range report.InvoiceColumns {
		header = append(header, excelize.Cell{StyleID: styles.header, Value: col})
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, inv := range invoices {
		row := []any{
			inv.InvoiceNumber,
			inv.CustomerName,
			inv.Status.String(),
			excelize.Cell{StyleID: styles.date, Value: inv.InvoiceDate},
			excelize.Cell{StyleID: styles.date, Value: inv.DueDate},
			excelize.Cell{StyleID: styles.money, Value: inv.Subtotal.Round(2).InexactFloat64()},
			inv.TaxRate.InexactFloat64(),
			excelize.Cell{StyleID: styles.money, Value: inv.TaxAmount.Round(2).InexactFloat64()},
			excelize.Cell{StyleID: styles.money, Value: inv.TotalAmount.Round(2).InexactFloat64()},
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

// RenderReport writes the title in row 1, the report date in row 2 and the
// Category/Value table from row 4.
func (Excel) RenderReport(w io.Writer, r report.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}
	styles, err := newExcelStyles(f)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}

	sw, err := f.NewStreamWriter(reportSheet)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, 1, 32); err != nil {
		return err
	}
	if err := sw.SetColWidth(2, 2, 16); err != nil {
		return err
	}

	if err := sw.SetRow("A1", []any{excelize.Cell{StyleID: styles.title, Value: r.Title}}); err != nil {
		return err
	}
	if err := sw.SetRow("A2", []any{reportDate + r.GeneratedAt.Format(report.DateLayout)}); err != nil {
		return err
	}
	if err := sw.SetRow("A4", []any{
		excelize.Cell{StyleID: styles.header, Value: headerCategory},
		excelize.Cell{StyleID: styles.header, Value: headerValue},
	}); err != nil {
		return err
	}

	for i, e := range r.Entries {
		var value any
		if r.Kind == report.KindCount {
			value = e.Value.IntPart()
		} else {
			value = excelize.Cell{StyleID: styles.money, Value: e.Value.Round(2).InexactFloat64()}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+5)
		if err := sw.SetRow(cell, []any{e.Label, value}); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
