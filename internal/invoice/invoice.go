// Package invoice implements the invoice lifecycle: the status machine, the invoice
// aggregate with its derived amounts, the persistence contract and the service that
// enforces both on every mutation.
//
// Amount invariants:
//   - item.Amount = item.Quantity × item.UnitPrice
//   - Subtotal = Σ item.Amount
//   - TaxAmount = Subtotal × TaxRate / 100
//   - TotalAmount = Subtotal + TaxAmount
//
// Any change to the item list or the tax rate goes through AddItem, RemoveItem,
// SetItems or SetTaxRate, each of which recalculates before returning. Callers that
// assign fields directly must call Recalculate before persisting.
package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Item is a single invoice line. It is owned by exactly one Invoice.
type Item struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// NewItem builds a line with its amount already computed.
func NewItem(description string, quantity int, unitPrice decimal.Decimal) Item {
	it := Item{Description: description, Quantity: quantity, UnitPrice: unitPrice}
	return it.Recalculate()
}

// Recalculate returns a copy of the item with Amount derived from quantity and price.
func (it Item) Recalculate() Item {
	it.Amount = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
	return it
}

// Equal compares items by value: description, quantity, unit price and amount.
func (it Item) Equal(other Item) bool {
	return it.Description == other.Description &&
		it.Quantity == other.Quantity &&
		it.UnitPrice.Equal(other.UnitPrice) &&
		it.Amount.Equal(other.Amount)
}

// Invoice is the aggregate root.
type Invoice struct {
	ID              string
	InvoiceNumber   string
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	Items           []Item
	Subtotal        decimal.Decimal
	TaxRate         decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	Status          Status
	Notes           string
	InvoiceDate     time.Time
	DueDate         time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AddItem appends a line and recalculates.
func (inv *Invoice) AddItem(it Item) *Invoice {
	inv.Items = append(inv.Items, it.Recalculate())
	inv.Recalculate()
	return inv
}

// RemoveItem removes the first line equal to it and recalculates. Removing an item
// that is not present only recalculates.
func (inv *Invoice) RemoveItem(it Item) *Invoice {
	for i, existing := range inv.Items {
		if existing.Equal(it) {
			inv.Items = append(inv.Items[:i:i], inv.Items[i+1:]...)
			break
		}
	}
	inv.Recalculate()
	return inv
}

// SetItems replaces the item list and recalculates.
func (inv *Invoice) SetItems(items []Item) *Invoice {
	inv.Items = make([]Item, 0, len(items))
	for _, it := range items {
		inv.Items = append(inv.Items, it.Recalculate())
	}
	inv.Recalculate()
	return inv
}

// SetTaxRate changes the tax percentage and recalculates.
func (inv *Invoice) SetTaxRate(rate decimal.Decimal) *Invoice {
	inv.TaxRate = rate
	inv.Recalculate()
	return inv
}

// Recalculate derives subtotal, tax and total from the current items and tax rate.
// It is idempotent.
func (inv *Invoice) Recalculate() {
	subtotal := decimal.Zero
	for i := range inv.Items {
		inv.Items[i] = inv.Items[i].Recalculate()
		subtotal = subtotal.Add(inv.Items[i].Amount)
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = subtotal.Mul(inv.TaxRate).Div(hundred)
	inv.TotalAmount = subtotal.Add(inv.TaxAmount)
}

// IsOverdueAt reports whether the invoice is unsettled and its due date lies before t.
func (inv *Invoice) IsOverdueAt(t time.Time) bool {
	return !inv.Status.IsFinal() && !inv.DueDate.IsZero() && inv.DueDate.Before(t)
}

// Clone returns a deep copy so callers never share the item slice.
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	out := *inv
	if inv.Items != nil {
		out.Items = make([]Item, len(inv.Items))
		copy(out.Items, inv.Items)
	}
	return &out
}
