package invoice

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Store handles persistence operations for invoices.
// Implementations assign ID, CreatedAt and UpdatedAt on Create, enforce uniqueness of
// InvoiceNumber (returning ErrDuplicateNumber) and return ErrNotFound on lookup misses.
type Store interface {
	Create(ctx context.Context, inv *Invoice) error
	// Save overwrites an existing invoice identified by inv.ID.
	Save(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	Delete(ctx context.Context, id string) error

	// Find returns every invoice matching c, oldest first.
	Find(ctx context.Context, c Criteria) ([]Invoice, error)
	// FindPage returns one page of the invoices matching c, oldest first.
	FindPage(ctx context.Context, c Criteria, p PageRequest) (Page, error)

	// NumbersWithPrefix lists the invoice numbers starting with prefix.
	NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// Criteria is a conjunction of filters. Zero-valued fields are unconstrained.
type Criteria struct {
	// CustomerName matches case-insensitively as a substring.
	CustomerName  string
	CustomerEmail string
	Status        *Status

	InvoiceFrom *time.Time
	InvoiceTo   *time.Time
	DueFrom     *time.Time
	DueTo       *time.Time

	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal

	// OverdueAt selects non-final invoices whose due date is before the given time.
	OverdueAt *time.Time
}

// Matches evaluates c against inv in memory. Stores that cannot push a filter down
// may fall back to it.
func (c Criteria) Matches(inv *Invoice) bool {
	if c.CustomerName != "" && !containsFold(inv.CustomerName, c.CustomerName) {
		return false
	}
	if c.CustomerEmail != "" && inv.CustomerEmail != c.CustomerEmail {
		return false
	}
	if c.Status != nil && inv.Status != *c.Status {
		return false
	}
	if c.InvoiceFrom != nil && inv.InvoiceDate.Before(*c.InvoiceFrom) {
		return false
	}
	if c.InvoiceTo != nil && inv.InvoiceDate.After(*c.InvoiceTo) {
		return false
	}
	if c.DueFrom != nil && inv.DueDate.Before(*c.DueFrom) {
		return false
	}
	if c.DueTo != nil && inv.DueDate.After(*c.DueTo) {
		return false
	}
	if c.MinAmount != nil && inv.TotalAmount.LessThan(*c.MinAmount) {
		return false
	}
	if c.MaxAmount != nil && inv.TotalAmount.GreaterThan(*c.MaxAmount) {
		return false
	}
	if c.OverdueAt != nil && !inv.IsOverdueAt(*c.OverdueAt) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// PageRequest selects a zero-based page.
type PageRequest struct {
	Page int
	Size int
}

// Normalize applies defaults and bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Page > math.MaxInt/p.Size {
		p.Page = math.MaxInt / p.Size
	}
	return p
}

// Offset is the number of items preceding the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is a slice of a stably ordered result set.
type Page struct {
	Items      []Invoice
	Page       int
	Size       int
	TotalItems int64
	TotalPages int
}

// NewPage assembles a Page and derives TotalPages.
func NewPage(items []Invoice, p PageRequest, total int64) Page {
	pages := 0
	if p.Size > 0 {
		pages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	if items == nil {
		items = []Invoice{}
	}
	return Page{Items: items, Page: p.Page, Size: p.Size, TotalItems: total, TotalPages: pages}
}

// Paginate cuts one page out of an already ordered slice.
func Paginate(all []Invoice, p PageRequest) Page {
	p = p.Normalize()
	start := p.Offset()
	if start < 0 || start > len(all) {
		start = len(all)
	}
	end := start + p.Size
	if end > len(all) {
		end = len(all)
	}
	return NewPage(all[start:end], p, int64(len(all)))
}
