package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"invoicing/internal/invoice"
)

func TestInvoiceRowRoundTrip(t *testing.T) {
	inv := &invoice.Invoice{
		ID:            "0b8e4a43-7c1e-4f7d-9d0e-2f6c1a9b5e11",
		InvoiceNumber: "INV-2025-03-007",
		CustomerName:  "Acme GmbH",
		CustomerEmail: "billing@acme.example",
		TaxRate:       decimal.NewFromInt(10),
		Status:        invoice.StatusSent,
		InvoiceDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Items: []invoice.Item{
			invoice.NewItem("Widget", 2, decimal.NewFromInt(10)),
			invoice.NewItem("Gadget", 3, decimal.NewFromInt(15)),
		},
	}
	inv.Recalculate()

	row := toRow(inv)
	assert.Equal(t, "SENT", row.Status)
	assert.Len(t, row.Items.Data(), 2)

	got := row.toInvoice()
	assert.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)
	assert.Equal(t, invoice.StatusSent, got.Status)
	require.Len(t, got.Items, 2)
	assert.True(t, got.Items[1].Equal(inv.Items[1]))
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("71.5")))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection reset")))
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"50% off_sale", `50\% off\_sale`},
		{`a\b`, `a\\b`},
		{`100%_a\b`, `100\%\_a\\b`},
		{"INV-2025-03", "INV-2025-03"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeLike(tt.in))
		})
	}
}
