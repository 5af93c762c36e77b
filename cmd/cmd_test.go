package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/invoice"
	"invoicing/internal/report"
)

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name   string
		flag   string
		output string
		want   report.Format
	}{
		{"explicit flag wins", "pdf", "out.csv", report.FormatPDF},
		{"xlsx extension", "", "out.xlsx", report.FormatExcel},
		{"pdf extension", "", "reports/out.pdf", report.FormatPDF},
		{"default csv", "", "", report.FormatCSV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveFormat(tt.flag, tt.output)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := resolveFormat("", "out.txt")
	assert.ErrorIs(t, err, report.ErrUnsupportedFormat)
}

func TestPrintReport(t *testing.T) {
	rep := report.Report{
		Title:       "Invoices by Status",
		Kind:        report.KindCount,
		GeneratedAt: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Entries: []report.Entry{
			{Label: "DRAFT", Value: decimal.NewFromInt(2)},
			{Label: "PAID", Value: decimal.NewFromInt(11)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, rep))

	out := buf.String()
	assert.Contains(t, out, "Invoices by Status")
	assert.Contains(t, out, "Report Date: 2025-03-15")
	assert.Contains(t, out, "DRAFT")
	assert.Contains(t, out, "11")
	assert.NotContains(t, out, "11.00")
}

func newExportFlags(t *testing.T, values map[string]string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "export"}
	for _, name := range []string{"customer", "status", "from", "to", "min-amount", "max-amount"} {
		c.Flags().String(name, "", "")
	}
	for k, v := range values {
		require.NoError(t, c.Flags().Set(k, v))
	}
	return c
}

func TestExportParams(t *testing.T) {
	c := newExportFlags(t, map[string]string{
		"customer":   "acme",
		"status":     "paid",
		"from":       "2025-01-01",
		"to":         "2025-03-31",
		"min-amount": "100",
	})

	params, err := exportParams(c)
	require.NoError(t, err)

	assert.Equal(t, "acme", params.CustomerName)
	require.NotNil(t, params.Status)
	assert.Equal(t, invoice.StatusPaid, *params.Status)
	require.NotNil(t, params.From)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *params.From)
	require.NotNil(t, params.To)
	assert.Equal(t, time.Date(2025, 3, 31, 23, 59, 59, 999999999, time.UTC), *params.To)
	require.NotNil(t, params.MinAmount)
	assert.True(t, params.MinAmount.Equal(decimal.NewFromInt(100)))
	assert.Nil(t, params.MaxAmount)
}

func TestExportParams_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"status":     {"status": "SETTLED"},
		"from date":  {"from": "01.01.2025"},
		"max amount": {"max-amount": "lots"},
	}
	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := exportParams(newExportFlags(t, values))
			assert.Error(t, err)
		})
	}
}

func TestInvoiceInputToInvoice(t *testing.T) {
	in := invoiceInput{
		CustomerName:  "Acme GmbH",
		CustomerEmail: "billing@acme.example",
		InvoiceDate:   "2025-03-01",
		DueDate:       "2025-03-31",
		TaxRate:       decimal.NewFromInt(10),
		Status:        "sent",
		Items: []itemData{
			{Description: "Widget", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		},
	}

	inv, err := in.toInvoice()
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusSent, inv.Status)
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].Amount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 31, inv.DueDate.Day())

	in.DueDate = "31/03/2025"
	_, err = in.toInvoice()
	assert.Error(t, err)
}
