package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/invoice"
)

// lineRenderer writes one line per invoice or entry and can fail midway.
type lineRenderer struct {
	failAfter int
}

func (r lineRenderer) RenderInvoices(w io.Writer, invoices []invoice.Invoice) error {
	for i, inv := range invoices {
		if r.failAfter > 0 && i == r.failAfter {
			return errors.New("encoder exploded")
		}
		fmt.Fprintln(w, inv.InvoiceNumber)
	}
	return nil
}

func (r lineRenderer) RenderReport(w io.Writer, rep Report) error {
	fmt.Fprintln(w, rep.Title)
	for _, e := range rep.Entries {
		fmt.Fprintf(w, "%s=%s\n", e.Label, rep.FormatValue(e.Value))
	}
	return nil
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func exportSource() *fakeSource {
	return &fakeSource{invoices: []invoice.Invoice{
		inv("1", "Acme", invoice.StatusPaid, 100, date(2025, 3, 1), date(2025, 3, 31)),
		inv("2", "Globex", invoice.StatusSent, 200, date(2025, 3, 2), date(2025, 4, 1)),
	}}
}

func TestExportInvoices(t *testing.T) {
	e := NewExporter(exportSource(), map[Format]Renderer{FormatCSV: lineRenderer{}})

	var buf bytes.Buffer
	require.NoError(t, e.ExportInvoices(context.Background(), []string{"2", "1"}, FormatCSV, &buf))
	assert.Equal(t, "INV-2\nINV-1\n", buf.String())
}

func TestExportInvoiceNotFound(t *testing.T) {
	e := NewExporter(exportSource(), map[Format]Renderer{FormatCSV: lineRenderer{}})

	err := e.ExportInvoice(context.Background(), "missing", FormatCSV, io.Discard)
	assert.ErrorIs(t, err, invoice.ErrNotFound)
}

func TestExportByCriteria(t *testing.T) {
	e := NewExporter(exportSource(), map[Format]Renderer{FormatPDF: lineRenderer{}})

	paid := invoice.StatusPaid
	var buf bytes.Buffer
	require.NoError(t, e.ExportByCriteria(context.Background(), invoice.SearchParams{Status: &paid}, FormatPDF, &buf))
	assert.Equal(t, "INV-1\n", buf.String())
}

func TestExportUnsupportedFormat(t *testing.T) {
	e := NewExporter(exportSource(), map[Format]Renderer{FormatCSV: lineRenderer{}})

	err := e.ExportInvoice(context.Background(), "1", FormatExcel, io.Discard)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExportRenderFailureWritesNothing(t *testing.T) {
	e := NewExporter(exportSource(), map[Format]Renderer{FormatCSV: lineRenderer{failAfter: 1}})

	var buf bytes.Buffer
	err := e.ExportInvoices(context.Background(), []string{"1", "2"}, FormatCSV, &buf)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReporting)
	assert.Zero(t, buf.Len())

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, FormatCSV, rerr.Format)
}

func TestExportSinkFailure(t *testing.T) {
	e := NewExporter(exportSource(), map[Format]Renderer{FormatCSV: lineRenderer{}})

	err := e.ExportReport(Report{Title: "t"}, FormatCSV, failingWriter{})
	assert.ErrorIs(t, err, ErrReporting)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	require.NoError(t, WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "ok")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))

	err = WriteFile(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("render failed")
	})
	require.Error(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, "Excel": FormatExcel, "xlsx": FormatExcel, "PDF": FormatPDF} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.True(t, strings.HasSuffix(FormatExcel.ContentType(), "spreadsheetml.sheet"))
	assert.Equal(t, "aging_report.xlsx", Filename("aging_report", FormatExcel))
	assert.Equal(t, "invoice_42.pdf", Filename("invoice_42", FormatPDF))
}

func TestInvoiceRecord(t *testing.T) {
	i := inv("7", "Acme", invoice.StatusSent, 100, date(2025, 3, 1), date(2025, 3, 31))
	rec := InvoiceRecord(&i)

	require.Len(t, rec, len(InvoiceColumns))
	assert.Equal(t, []string{"INV-7", "Acme", "SENT", "2025-03-01", "2025-03-31", "100.00", "0", "0.00", "100.00"}, rec)
}
