package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/invoice"
	"invoicing/internal/report"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_9", id)

	_, err = extractSpreadsheetID("https://example.com/not-a-sheet")
	assert.Error(t, err)
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", columnLetter(1))
	assert.Equal(t, "D", columnLetter(4))
	assert.Equal(t, "I", columnLetter(9))
	assert.Equal(t, "Z", columnLetter(26))
	assert.Equal(t, "AA", columnLetter(27))
}

func TestReportTable(t *testing.T) {
	r := report.Report{
		Title:       "Invoices by Status Report",
		Kind:        report.KindCount,
		GeneratedAt: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Entries:     []report.Entry{{Label: "PAID", Value: decimal.NewFromInt(3)}},
	}

	tbl := reportTable(r)
	assert.Equal(t, []string{"Category", "Value", "Report", "Report Date"}, tbl.headers)
	require.Len(t, tbl.rows, 1)
	assert.Equal(t, []interface{}{"PAID", int64(3), "Invoices by Status Report", "2025-06-30"}, tbl.rows[0])
}

func TestInvoiceTable(t *testing.T) {
	inv := invoice.Invoice{
		InvoiceNumber: "INV-2025-03-001",
		CustomerName:  "Acme",
		Status:        invoice.StatusPaid,
		InvoiceDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	inv.SetItems([]invoice.Item{{Description: "Work", Quantity: 1, UnitPrice: decimal.NewFromInt(50)}})

	tbl := invoiceTable([]invoice.Invoice{inv})
	assert.Equal(t, report.InvoiceColumns, tbl.headers)
	require.Len(t, tbl.rows, 1)
	assert.Equal(t, "INV-2025-03-001", tbl.rows[0][0])
	assert.Equal(t, "50.00", tbl.rows[0][8])
}
