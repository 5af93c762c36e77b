package render

import (
	"encoding/csv"
	"fmt"
	"io"

	"invoicing/internal/invoice"
	"invoicing/internal/report"
)

// CSV renders comma-separated files.
type CSV struct{}

func (CSV) RenderInvoices(w io.Writer, invoices []invoice.Invoice) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(report.InvoiceColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range invoices {
		if err := cw.Write(report.InvoiceRecord(&invoices[i])); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderReport writes the Category/Value header, the title and report date as
// comment lines, then one row per entry.
func (CSV) RenderReport(w io.Writer, r report.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{headerCategory, headerValue}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	cw.Flush()

	if _, err := fmt.Fprintf(w, "# %s\n# %s%s\n", r.Title, reportDate, r.GeneratedAt.Format(report.DateLayout)); err != nil {
		return fmt.Errorf("write csv comments: %w", err)
	}

	for _, e := range r.Entries {
		if err := cw.Write([]string{e.Label, r.FormatValue(e.Value)}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
