package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoicing/internal/invoice"
	"invoicing/internal/logger"
)

const day = 24 * time.Hour

// InvoiceSource is the read side of the invoice service used by reports and exports.
type InvoiceSource interface {
	Get(ctx context.Context, id string) (*invoice.Invoice, error)
	Search(ctx context.Context, params invoice.SearchParams) ([]invoice.Invoice, error)
}

// Engine computes reports from the invoices of an InvoiceSource. It is read-only and
// safe for concurrent use.
type Engine struct {
	src InvoiceSource
	now func() time.Time
	log zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source used for aging and report dates.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a report engine.
func NewEngine(src InvoiceSource, opts ...EngineOption) *Engine {
	e := &Engine{
		src: src,
		now: time.Now,
		log: logger.WithComponent("report-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RevenueByCustomer sums the totals of PAID invoices dated within [from, to], per
// customer name, ordered by name.
func (e *Engine) RevenueByCustomer(ctx context.Context, from, to time.Time) (Report, error) {
	paid := invoice.StatusPaid
	invoices, err := e.src.Search(ctx, invoice.SearchParams{Status: &paid, From: &from, To: &to})
	if err != nil {
		return Report{}, fmt.Errorf("RevenueByCustomer: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, inv := range invoices {
		totals[inv.CustomerName] = totals[inv.CustomerName].Add(inv.TotalAmount)
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{Label: name, Value: totals[name]})
	}

	e.log.Debug().
		Time("from", from).
		Time("to", to).
		Int("invoices", len(invoices)).
		Int("customers", len(entries)).
		Msg("Revenue by customer computed")

	return Report{
		Title:       fmt.Sprintf("Revenue Report by Customer (%s to %s)", from.Format(DateLayout), to.Format(DateLayout)),
		Kind:        KindMoney,
		GeneratedAt: e.now(),
		Entries:     entries,
	}, nil
}

// RevenueByMonth sums the totals of PAID invoices dated within year, per calendar
// month. All twelve months are present.
func (e *Engine) RevenueByMonth(ctx context.Context, year int) (Report, error) {
	loc := e.now().Location()
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(1, 0, 0).Add(-time.Nanosecond)

	paid := invoice.StatusPaid
	invoices, err := e.src.Search(ctx, invoice.SearchParams{Status: &paid, From: &from, To: &to})
	if err != nil {
		return Report{}, fmt.Errorf("RevenueByMonth: %w", err)
	}

	var months [12]decimal.Decimal
	for _, inv := range invoices {
		m := inv.InvoiceDate.In(loc).Month()
		months[m-1] = months[m-1].Add(inv.TotalAmount)
	}

	entries := make([]Entry, 0, len(months))
	for i, total := range months {
		entries = append(entries, Entry{Label: time.Month(i + 1).String(), Value: total})
	}

	return Report{
		Title:       fmt.Sprintf("Revenue Report by Month (%d)", year),
		Kind:        KindMoney,
		GeneratedAt: e.now(),
		Entries:     entries,
	}, nil
}

// InvoicesByStatus counts every invoice per status, in canonical status order.
func (e *Engine) InvoicesByStatus(ctx context.Context) (Report, error) {
	invoices, err := e.src.Search(ctx, invoice.SearchParams{})
	if err != nil {
		return Report{}, fmt.Errorf("InvoicesByStatus: %w", err)
	}

	counts := make(map[invoice.Status]int64)
	for _, inv := range invoices {
		counts[inv.Status]++
	}

	statuses := invoice.Statuses()
	entries := make([]Entry, 0, len(statuses))
	for _, st := range statuses {
		entries = append(entries, Entry{Label: st.String(), Value: decimal.NewFromInt(counts[st])})
	}

	return Report{
		Title:       "Invoices by Status Report",
		Kind:        KindCount,
		GeneratedAt: e.now(),
		Entries:     entries,
	}, nil
}

// Aging buckets the totals of unsettled invoices by whole days past due.
func (e *Engine) Aging(ctx context.Context) (Report, error) {
	invoices, err := e.src.Search(ctx, invoice.SearchParams{})
	if err != nil {
		return Report{}, fmt.Errorf("Aging: %w", err)
	}

	now := e.now()
	totals := make(map[string]decimal.Decimal)
	outstanding := 0
	for _, inv := range invoices {
		if inv.Status.IsFinal() {
			continue
		}
		outstanding++
		bucket := AgingBucket(DaysPastDue(inv.DueDate, now))
		totals[bucket] = totals[bucket].Add(inv.TotalAmount)
	}

	labels := AgingBuckets()
	entries := make([]Entry, 0, len(labels))
	for _, label := range labels {
		entries = append(entries, Entry{Label: label, Value: totals[label]})
	}

	e.log.Debug().Int("outstanding", outstanding).Msg("Aging report computed")

	return Report{
		Title:       "Accounts Receivable Aging Report",
		Kind:        KindMoney,
		GeneratedAt: now,
		Entries:     entries,
	}, nil
}

// DaysPastDue returns the whole days elapsed from due to now, negative when due lies
// in the future.
func DaysPastDue(due, now time.Time) int {
	return int(now.Sub(due) / day)
}

// AgingBucket maps days past due to its bucket label. Upper bounds are inclusive.
func AgingBucket(days int) string {
	switch {
	case days <= 0:
		return BucketCurrent
	case days <= 30:
		return Bucket1To30
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}
