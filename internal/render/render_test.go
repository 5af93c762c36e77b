package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoicing/internal/invoice"
	"invoicing/internal/report"
)

func sampleInvoices() []invoice.Invoice {
	inv := invoice.Invoice{
		InvoiceNumber:   "INV-2025-03-001",
		CustomerName:    "Acme, Inc.",
		CustomerEmail:   "billing@acme.example",
		CustomerAddress: "1 Main St",
		Status:          invoice.StatusSent,
		InvoiceDate:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:         time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		TaxRate:         decimal.NewFromInt(10),
		Notes:           "Thank you for your business",
	}
	inv.SetItems([]invoice.Item{
		{Description: "Consulting", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		{Description: "Support", Quantity: 3, UnitPrice: decimal.NewFromInt(15)},
	})
	return []invoice.Invoice{inv}
}

func sampleReport() report.Report {
	return report.Report{
		Title:       "Accounts Receivable Aging Report",
		Kind:        report.KindMoney,
		GeneratedAt: time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC),
		Entries: []report.Entry{
			{Label: report.BucketCurrent, Value: decimal.NewFromInt(100)},
			{Label: report.Bucket1To30, Value: decimal.Zero},
		},
	}
}

func TestCSVInvoices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV{}.RenderInvoices(&buf, sampleInvoices()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Invoice Number,Customer Name,Status,Invoice Date,Due Date,Subtotal,Tax Rate,Tax Amount,Total Amount", lines[0])
	assert.Equal(t, `INV-2025-03-001,"Acme, Inc.",SENT,2025-03-01,2025-03-31,65.00,10,6.50,71.50`, lines[1])
}

func TestCSVReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV{}.RenderReport(&buf, sampleReport()))

	assert.Equal(t, strings.Join([]string{
		"Category,Value",
		"# Accounts Receivable Aging Report",
		"# Report Date: 2025-06-30",
		"Current,100.00",
		"1-30 days,0.00",
	}, "\n")+"\n", buf.String())
}

func TestExcelInvoices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Excel{}.RenderInvoices(&buf, sampleInvoices()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(invoicesSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Invoice Number", header)

	number, err := f.GetCellValue(invoicesSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-03-001", number)

	total, err := f.GetCellValue(invoicesSheet, "I2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "71.5", total)
}

func TestExcelReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Excel{}.RenderReport(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(reportSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Accounts Receivable Aging Report", title)

	date, err := f.GetCellValue(reportSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Report Date: 2025-06-30", date)

	label, err := f.GetCellValue(reportSheet, "A5")
	require.NoError(t, err)
	assert.Equal(t, "Current", label)
}

func TestPDFOutputs(t *testing.T) {
	var invoices bytes.Buffer
	require.NoError(t, PDF{}.RenderInvoices(&invoices, sampleInvoices()))
	assert.True(t, bytes.HasPrefix(invoices.Bytes(), []byte("%PDF-")))

	var rep bytes.Buffer
	require.NoError(t, PDF{}.RenderReport(&rep, sampleReport()))
	assert.True(t, bytes.HasPrefix(rep.Bytes(), []byte("%PDF-")))

	var empty bytes.Buffer
	require.NoError(t, PDF{}.RenderInvoices(&empty, nil))
	assert.True(t, bytes.HasPrefix(empty.Bytes(), []byte("%PDF-")))
}

func TestRenderersCoverEveryFormat(t *testing.T) {
	renderers := Renderers()
	for _, f := range report.Formats() {
		assert.Contains(t, renderers, f)
	}
}
