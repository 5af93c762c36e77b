// Package report aggregates invoices into financial reports and hands reports and
// invoice listings to format renderers.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"invoicing/internal/invoice"
)

// Kind tells renderers how to present report values.
type Kind int

const (
	KindMoney Kind = iota
	KindCount
)

// Aging bucket labels, in report order.
const (
	BucketCurrent = "Current"
	Bucket1To30   = "1-30 days"
	Bucket31To60  = "31-60 days"
	Bucket61To90  = "61-90 days"
	BucketOver90  = "90+ days"
)

// AgingBuckets returns the bucket labels in report order.
func AgingBuckets() []string {
	return []string{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}
}

// Entry is one labelled row of a report.
type Entry struct {
	Label string
	Value decimal.Decimal
}

// Report is a titled, ordered category/value table.
type Report struct {
	Title       string
	Kind        Kind
	GeneratedAt time.Time
	Entries     []Entry
}

// AsMap returns the entries keyed by label.
func (r Report) AsMap() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(r.Entries))
	for _, e := range r.Entries {
		m[e.Label] = e.Value
	}
	return m
}

// Value returns the value for label, zero when absent.
func (r Report) Value(label string) decimal.Decimal {
	for _, e := range r.Entries {
		if e.Label == label {
			return e.Value
		}
	}
	return decimal.Zero
}

// FormatValue renders v for text outputs: money with two decimals, counts as integers.
func (r Report) FormatValue(v decimal.Decimal) string {
	if r.Kind == KindCount {
		return v.Truncate(0).String()
	}
	return v.StringFixed(2)
}

// DateLayout is the date format used throughout exported files.
const DateLayout = "2006-01-02"

// InvoiceColumns is the header of tabular invoice exports.
var InvoiceColumns = []string{
	"Invoice Number",
	"Customer Name",
	"Status",
	"Invoice Date",
	"Due Date",
	"Subtotal",
	"Tax Rate",
	"Tax Amount",
	"Total Amount",
}

// InvoiceRecord flattens an invoice into a row matching InvoiceColumns.
func InvoiceRecord(inv *invoice.Invoice) []string {
	return []string{
		inv.InvoiceNumber,
		inv.CustomerName,
		inv.Status.String(),
		formatDate(inv.InvoiceDate),
		formatDate(inv.DueDate),
		inv.Subtotal.StringFixed(2),
		inv.TaxRate.String(),
		inv.TaxAmount.StringFixed(2),
		inv.TotalAmount.StringFixed(2),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
