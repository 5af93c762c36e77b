package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/invoice"
)

var testNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

// fakeSource evaluates search params in memory.
type fakeSource struct {
	invoices []invoice.Invoice
	err      error
}

func (f *fakeSource) Get(_ context.Context, id string) (*invoice.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.invoices {
		if f.invoices[i].ID == id {
			return f.invoices[i].Clone(), nil
		}
	}
	return nil, invoice.ErrNotFound
}

func (f *fakeSource) Search(_ context.Context, params invoice.SearchParams) ([]invoice.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := params.Criteria()
	var out []invoice.Invoice
	for i := range f.invoices {
		if c.Matches(&f.invoices[i]) {
			out = append(out, f.invoices[i])
		}
	}
	return out, nil
}

func inv(id, customer string, status invoice.Status, total int64, invoiceDate, dueDate time.Time) invoice.Invoice {
	i := invoice.Invoice{
		ID:            id,
		InvoiceNumber: "INV-" + id,
		CustomerName:  customer,
		CustomerEmail: "billing@example.com",
		Status:        status,
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
	}
	i.SetItems([]invoice.Item{{Description: "Work", Quantity: 1, UnitPrice: decimal.NewFromInt(total)}})
	return i
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newEngine(src InvoiceSource) *Engine {
	return NewEngine(src, WithClock(func() time.Time { return testNow }))
}

func TestAging(t *testing.T) {
	src := &fakeSource{invoices: []invoice.Invoice{
		inv("1", "A", invoice.StatusSent, 100, date(2025, 1, 1), testNow),
		inv("2", "B", invoice.StatusSent, 300, date(2025, 1, 1), testNow.AddDate(0, 0, -35)),
		inv("3", "C", invoice.StatusOverdue, 500, date(2025, 1, 1), testNow.AddDate(0, 0, -55)),
		inv("4", "D", invoice.StatusDraft, 400, date(2025, 1, 1), testNow.AddDate(0, 0, -95)),
		inv("5", "E", invoice.StatusPaid, 999, date(2025, 1, 1), testNow.AddDate(0, 0, -95)),
		inv("6", "F", invoice.StatusCancelled, 999, date(2025, 1, 1), testNow.AddDate(0, 0, -10)),
	}}

	r, err := newEngine(src).Aging(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Accounts Receivable Aging Report", r.Title)
	assert.Equal(t, AgingBuckets(), labels(r))
	assert.True(t, r.Value(BucketCurrent).Equal(decimal.NewFromInt(100)))
	assert.True(t, r.Value(Bucket1To30).IsZero())
	assert.True(t, r.Value(Bucket31To60).Equal(decimal.NewFromInt(800)))
	assert.True(t, r.Value(Bucket61To90).IsZero())
	assert.True(t, r.Value(BucketOver90).Equal(decimal.NewFromInt(400)))
}

func TestAgingBucketBounds(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-5, BucketCurrent},
		{0, BucketCurrent},
		{1, Bucket1To30},
		{30, Bucket1To30},
		{31, Bucket31To60},
		{60, Bucket31To60},
		{61, Bucket61To90},
		{90, Bucket61To90},
		{91, BucketOver90},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AgingBucket(tt.days), "days=%d", tt.days)
	}
}

func TestDaysPastDue(t *testing.T) {
	assert.Equal(t, 35, DaysPastDue(date(2025, 5, 26), testNow))
	assert.Equal(t, 0, DaysPastDue(testNow.Add(6*time.Hour), testNow))
	assert.Equal(t, -2, DaysPastDue(testNow.AddDate(0, 0, 2), testNow))
}

func TestRevenueByCustomer(t *testing.T) {
	src := &fakeSource{invoices: []invoice.Invoice{
		inv("1", "Zeta", invoice.StatusPaid, 100, date(2025, 3, 1), date(2025, 3, 31)),
		inv("2", "Acme", invoice.StatusPaid, 200, date(2025, 3, 5), date(2025, 4, 5)),
		inv("3", "Acme", invoice.StatusPaid, 50, date(2025, 3, 31), date(2025, 4, 30)),
		inv("4", "Acme", invoice.StatusSent, 1000, date(2025, 3, 10), date(2025, 4, 10)),
		inv("5", "Acme", invoice.StatusPaid, 1000, date(2025, 4, 1), date(2025, 5, 1)),
	}}

	r, err := newEngine(src).RevenueByCustomer(context.Background(), date(2025, 3, 1), date(2025, 3, 31))
	require.NoError(t, err)

	assert.Equal(t, "Revenue Report by Customer (2025-03-01 to 2025-03-31)", r.Title)
	assert.Equal(t, []string{"Acme", "Zeta"}, labels(r))
	assert.True(t, r.Value("Acme").Equal(decimal.NewFromInt(250)))
	assert.True(t, r.Value("Zeta").Equal(decimal.NewFromInt(100)))
	assert.Equal(t, KindMoney, r.Kind)
}

func TestRevenueByMonth(t *testing.T) {
	src := &fakeSource{invoices: []invoice.Invoice{
		inv("1", "A", invoice.StatusPaid, 100, date(2025, 1, 15), date(2025, 2, 15)),
		inv("2", "B", invoice.StatusPaid, 200, date(2025, 1, 31), date(2025, 2, 28)),
		inv("3", "C", invoice.StatusPaid, 300, date(2025, 12, 31), date(2026, 1, 31)),
		inv("4", "D", invoice.StatusPaid, 999, date(2024, 12, 31), date(2025, 1, 31)),
		inv("5", "E", invoice.StatusSent, 999, date(2025, 5, 1), date(2025, 6, 1)),
	}}

	r, err := newEngine(src).RevenueByMonth(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, "Revenue Report by Month (2025)", r.Title)
	require.Len(t, r.Entries, 12)
	assert.Equal(t, "January", r.Entries[0].Label)
	assert.Equal(t, "December", r.Entries[11].Label)
	assert.True(t, r.Value("January").Equal(decimal.NewFromInt(300)))
	assert.True(t, r.Value("May").IsZero())
	assert.True(t, r.Value("December").Equal(decimal.NewFromInt(300)))
}

func TestInvoicesByStatus(t *testing.T) {
	src := &fakeSource{invoices: []invoice.Invoice{
		inv("1", "A", invoice.StatusPaid, 1, date(2025, 1, 1), date(2025, 2, 1)),
		inv("2", "B", invoice.StatusPaid, 1, date(2025, 1, 1), date(2025, 2, 1)),
		inv("3", "C", invoice.StatusDraft, 1, date(2025, 1, 1), date(2025, 2, 1)),
	}}

	r, err := newEngine(src).InvoicesByStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Invoices by Status Report", r.Title)
	assert.Equal(t, KindCount, r.Kind)
	assert.Equal(t, []string{"DRAFT", "SENT", "PAID", "OVERDUE", "CANCELLED"}, labels(r))
	assert.True(t, r.Value("PAID").Equal(decimal.NewFromInt(2)))
	assert.True(t, r.Value("SENT").IsZero())
	assert.Equal(t, "2", r.FormatValue(r.Value("PAID")))
}

func TestEngineSourceError(t *testing.T) {
	boom := errors.New("store unavailable")
	_, err := newEngine(&fakeSource{err: boom}).Aging(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestAsMap(t *testing.T) {
	r := Report{Entries: []Entry{{Label: "a", Value: decimal.NewFromInt(1)}}}
	assert.Equal(t, map[string]decimal.Decimal{"a": decimal.NewFromInt(1)}, r.AsMap())
}

func labels(r Report) []string {
	out := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e.Label)
	}
	return out
}
