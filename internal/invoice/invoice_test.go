package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleInvoice() *Invoice {
	inv := &Invoice{
		CustomerName:  "Acme GmbH",
		CustomerEmail: "billing@acme.example",
		InvoiceDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		TaxRate:       dec("10"),
	}
	inv.SetItems([]Item{
		{Description: "Consulting", Quantity: 2, UnitPrice: dec("25.00")},
		{Description: "Support", Quantity: 1, UnitPrice: dec("15.00")},
	})
	return inv
}

func TestRecalculate(t *testing.T) {
	inv := sampleInvoice()

	assert.True(t, inv.Items[0].Amount.Equal(dec("50")), "item amount %s", inv.Items[0].Amount)
	assert.True(t, inv.Subtotal.Equal(dec("65")), "subtotal %s", inv.Subtotal)
	assert.True(t, inv.TaxAmount.Equal(dec("6.5")), "tax %s", inv.TaxAmount)
	assert.True(t, inv.TotalAmount.Equal(dec("71.5")), "total %s", inv.TotalAmount)
}

func TestRecalculateIdempotent(t *testing.T) {
	inv := sampleInvoice()
	before := inv.Clone()

	inv.Recalculate()
	inv.Recalculate()

	assert.True(t, inv.Subtotal.Equal(before.Subtotal))
	assert.True(t, inv.TaxAmount.Equal(before.TaxAmount))
	assert.True(t, inv.TotalAmount.Equal(before.TotalAmount))
}

func TestRecalculateEmpty(t *testing.T) {
	inv := &Invoice{TaxRate: dec("19")}
	inv.Recalculate()

	assert.True(t, inv.Subtotal.IsZero())
	assert.True(t, inv.TaxAmount.IsZero())
	assert.True(t, inv.TotalAmount.IsZero())
}

func TestRecalculateFixesStaleItemAmount(t *testing.T) {
	inv := sampleInvoice()
	inv.Items[0].Quantity = 4
	inv.Recalculate()

	assert.True(t, inv.Items[0].Amount.Equal(dec("100")))
	assert.True(t, inv.TotalAmount.Equal(dec("126.5")))
}

func TestAddAndRemoveItem(t *testing.T) {
	inv := sampleInvoice()

	inv.AddItem(Item{Description: "Hosting", Quantity: 3, UnitPrice: dec("10")})
	require.Len(t, inv.Items, 3)
	assert.True(t, inv.Subtotal.Equal(dec("95")))
	assert.True(t, inv.TotalAmount.Equal(dec("104.5")))

	inv.RemoveItem(NewItem("Consulting", 2, dec("25")))
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "Support", inv.Items[0].Description)
	assert.True(t, inv.Subtotal.Equal(dec("45")))
	assert.True(t, inv.TotalAmount.Equal(dec("49.5")))
}

func TestRemoveItemRemovesFirstMatchOnly(t *testing.T) {
	inv := &Invoice{TaxRate: decimal.Zero}
	line := NewItem("Widget", 1, dec("5"))
	inv.SetItems([]Item{line, line})

	inv.RemoveItem(line)

	require.Len(t, inv.Items, 1)
	assert.True(t, inv.TotalAmount.Equal(dec("5")))
}

func TestRemoveMissingItem(t *testing.T) {
	inv := sampleInvoice()
	inv.RemoveItem(NewItem("Nothing", 1, dec("1")))

	assert.Len(t, inv.Items, 2)
	assert.True(t, inv.TotalAmount.Equal(dec("71.5")))
}

func TestSetTaxRate(t *testing.T) {
	inv := sampleInvoice()
	inv.SetTaxRate(dec("0"))

	assert.True(t, inv.TaxAmount.IsZero())
	assert.True(t, inv.TotalAmount.Equal(dec("65")))
}

func TestIsOverdueAt(t *testing.T) {
	inv := sampleInvoice()
	inv.Status = StatusSent

	assert.False(t, inv.IsOverdueAt(inv.DueDate))
	assert.True(t, inv.IsOverdueAt(inv.DueDate.Add(time.Hour)))

	inv.Status = StatusPaid
	assert.False(t, inv.IsOverdueAt(inv.DueDate.Add(time.Hour)))
}

func TestCloneIsDeep(t *testing.T) {
	inv := sampleInvoice()
	cp := inv.Clone()
	cp.Items[0].Description = "changed"

	assert.Equal(t, "Consulting", inv.Items[0].Description)
}
