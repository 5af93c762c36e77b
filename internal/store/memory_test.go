package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/invoice"
)

func newInvoice(number, customer string, status invoice.Status, total int64) *invoice.Invoice {
	inv := &invoice.Invoice{
		InvoiceNumber: number,
		CustomerName:  customer,
		CustomerEmail: "billing@example.com",
		Status:        status,
		InvoiceDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	inv.SetItems([]invoice.Item{{Description: "Service", Quantity: 1, UnitPrice: decimal.NewFromInt(total)}})
	return inv
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	inv := newInvoice("INV-2025-03-001", "Acme", invoice.StatusDraft, 100)
	require.NoError(t, s.Create(ctx, inv))
	require.NotEmpty(t, inv.ID)
	assert.False(t, inv.CreatedAt.IsZero())

	got, err := s.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-03-001", got.InvoiceNumber)

	byNumber, err := s.GetByNumber(ctx, "INV-2025-03-001")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, byNumber.ID)

	exists, err := s.ExistsByNumber(ctx, "INV-2025-03-001")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	inv := newInvoice("INV-2025-03-001", "Acme", invoice.StatusDraft, 100)
	require.NoError(t, s.Create(ctx, inv))

	got, err := s.Get(ctx, inv.ID)
	require.NoError(t, err)
	got.Items[0].Description = "mutated"
	got.CustomerName = "mutated"

	again, err := s.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Service", again.Items[0].Description)
	assert.Equal(t, "Acme", again.CustomerName)
}

func TestMemoryStoreDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Create(ctx, newInvoice("INV-2025-03-001", "Acme", invoice.StatusDraft, 100)))
	err := s.Create(ctx, newInvoice("INV-2025-03-001", "Other", invoice.StatusDraft, 50))
	assert.ErrorIs(t, err, invoice.ErrDuplicateNumber)
}

func TestMemoryStoreSaveAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	inv := newInvoice("INV-2025-03-001", "Acme", invoice.StatusDraft, 100)
	require.NoError(t, s.Create(ctx, inv))

	inv.Status = invoice.StatusSent
	require.NoError(t, s.Save(ctx, inv))
	got, err := s.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusSent, got.Status)

	require.NoError(t, s.Delete(ctx, inv.ID))
	_, err = s.Get(ctx, inv.ID)
	assert.ErrorIs(t, err, invoice.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, inv.ID), invoice.ErrNotFound)
	assert.ErrorIs(t, s.Save(ctx, inv), invoice.ErrNotFound)

	exists, err := s.ExistsByNumber(ctx, "INV-2025-03-001")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStoreFindPage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Create(ctx, newInvoice(fmt.Sprintf("INV-2025-03-%03d", i), "Acme", invoice.StatusDraft, int64(i*100))))
	}

	page, err := s.FindPage(ctx, invoice.Criteria{}, invoice.PageRequest{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "INV-2025-03-003", page.Items[0].InvoiceNumber)
	assert.Equal(t, "INV-2025-03-004", page.Items[1].InvoiceNumber)

	beyond, err := s.FindPage(ctx, invoice.Criteria{}, invoice.PageRequest{Page: 9, Size: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, int64(5), beyond.TotalItems)
}

func TestMemoryStoreFindCriteria(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Create(ctx, newInvoice("INV-2025-03-001", "Acme Corp", invoice.StatusPaid, 100)))
	require.NoError(t, s.Create(ctx, newInvoice("INV-2025-03-002", "Globex", invoice.StatusSent, 500)))
	require.NoError(t, s.Create(ctx, newInvoice("INV-2025-03-003", "ACME Labs", invoice.StatusSent, 900)))

	sent := invoice.StatusSent
	minTotal := decimal.NewFromInt(400)
	got, err := s.Find(ctx, invoice.Criteria{CustomerName: "acme", Status: &sent, MinAmount: &minTotal})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "INV-2025-03-003", got[0].InvoiceNumber)

	overdueAt := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	overdue, err := s.Find(ctx, invoice.Criteria{OverdueAt: &overdueAt})
	require.NoError(t, err)
	assert.Len(t, overdue, 2)
}

func TestMemoryStoreNumbersWithPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Create(ctx, newInvoice("INV-2025-03-002", "Acme", invoice.StatusDraft, 1)))
	require.NoError(t, s.Create(ctx, newInvoice("INV-2025-03-001", "Acme", invoice.StatusDraft, 1)))
	require.NoError(t, s.Create(ctx, newInvoice("INV-2025-04-001", "Acme", invoice.StatusDraft, 1)))

	numbers, err := s.NumbersWithPrefix(ctx, "INV-2025-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-2025-03-001", "INV-2025-03-002"}, numbers)
}
