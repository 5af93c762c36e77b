package render

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"invoicing/internal/invoice"
	"invoicing/internal/report"
)

const (
	pdfFont    = "Helvetica"
	lineHeight = 6.0
)

var itemColumns = []struct {
	title string
	width float64
	align string
}{
	{"Description", 80, "L"},
	{"Quantity", 30, "R"},
	{"Unit Price", 40, "R"},
	{"Amount", 40, "R"},
}

// PDF renders A4 documents: one page per invoice, or a single report page.
type PDF struct{}

func newDocument() (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func (PDF) RenderInvoices(w io.Writer, invoices []invoice.Invoice) error {
	pdf, tr := newDocument()

	if len(invoices) == 0 {
		pdf.AddPage()
		pdf.SetFont(pdfFont, "", 10)
		pdf.CellFormat(0, lineHeight, "No invoices", "", 1, "C", false, 0, "")
	}

	for i := range invoices {
		writeInvoicePage(pdf, tr, &invoices[i])
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("render invoice %s: %w", invoices[i].InvoiceNumber, err)
		}
	}

	return pdf.Output(w)
}

func writeInvoicePage(pdf *gofpdf.Fpdf, tr func(string) string, inv *invoice.Invoice) {
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 18)
	pdf.CellFormat(0, 10, tr("Invoice: "+inv.InvoiceNumber), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(pdfFont, "", 10)
	for _, line := range []string{
		"Invoice Date: " + inv.InvoiceDate.Format(report.DateLayout),
		"Due Date: " + inv.DueDate.Format(report.DateLayout),
		"Status: " + inv.Status.String(),
		"Customer Name: " + inv.CustomerName,
		"Email: " + inv.CustomerEmail,
		"Address: " + inv.CustomerAddress,
	} {
		pdf.CellFormat(0, lineHeight, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(pdfFont, "B", 10)
	pdf.SetFillColor(211, 211, 211)
	for _, col := range itemColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFont, "", 10)
	for _, it := range inv.Items {
		values := []string{
			tr(it.Description),
			fmt.Sprintf("%d", it.Quantity),
			money(it.UnitPrice),
			money(it.Amount),
		}
		for j, col := range itemColumns {
			pdf.CellFormat(col.width, 7, values[j], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	pdf.CellFormat(0, lineHeight, "Subtotal: "+money(inv.Subtotal), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, lineHeight,
		fmt.Sprintf("Tax (%s%%): %s", inv.TaxRate.StringFixed(1), money(inv.TaxAmount)),
		"", 1, "R", false, 0, "")
	pdf.SetFont(pdfFont, "B", 12)
	pdf.CellFormat(0, 8, "Total: "+money(inv.TotalAmount), "", 1, "R", false, 0, "")

	if inv.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont(pdfFont, "B", 10)
		pdf.CellFormat(0, lineHeight, "Notes:", "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 10)
		pdf.MultiCell(0, 5, tr(inv.Notes), "", "L", false)
	}
}

func (PDF) RenderReport(w io.Writer, r report.Report) error {
	pdf, tr := newDocument()
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 18)
	pdf.CellFormat(0, 10, tr(r.Title), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(pdfFont, "", 10)
	pdf.CellFormat(0, lineHeight, reportDate+r.GeneratedAt.Format(report.DateLayout), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	const labelWidth, valueWidth = 108.0, 72.0
	pdf.SetFont(pdfFont, "B", 12)
	pdf.SetFillColor(211, 211, 211)
	pdf.CellFormat(labelWidth, 8, headerCategory, "1", 0, "L", true, 0, "")
	pdf.CellFormat(valueWidth, 8, headerValue, "1", 1, "L", true, 0, "")

	pdf.SetFont(pdfFont, "", 10)
	for _, e := range r.Entries {
		value := r.FormatValue(e.Value)
		if r.Kind == report.KindMoney {
			value = money(e.Value)
		}
		pdf.CellFormat(labelWidth, 7, tr(e.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(valueWidth, 7, value, "1", 1, "R", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render report %q: %w", r.Title, err)
	}
	return pdf.Output(w)
}
