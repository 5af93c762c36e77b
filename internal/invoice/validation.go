package invoice

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// emailCheck applies the same "email" rule the HTTP layer validates request bodies
// with, so CLI and API accept the same addresses.
var emailCheck = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the fields a persisted invoice must carry. It returns a
// *ValidationError listing every offending field, or nil.
func Validate(inv *Invoice) error {
	verr := &ValidationError{}

	if strings.TrimSpace(inv.CustomerName) == "" {
		verr.Add("customerName", "Customer name is required")
	}
	if strings.TrimSpace(inv.CustomerEmail) == "" {
		verr.Add("customerEmail", "Customer email is required")
	} else if !plainAddress(inv.CustomerEmail) {
		verr.Add("customerEmail", "Customer email must be a valid address")
	}
	if inv.InvoiceDate.IsZero() {
		verr.Add("invoiceDate", "Invoice date is required")
	}
	if inv.DueDate.IsZero() {
		verr.Add("dueDate", "Due date is required")
	}
	if inv.TaxRate.IsNegative() {
		verr.Add("taxRate", "Tax rate cannot be negative")
	}
	if inv.Status != "" && !inv.Status.Valid() {
		verr.Add("status", fmt.Sprintf("Unknown status %q", inv.Status))
	}
	if len(inv.Items) == 0 {
		verr.Add("items", "At least one item is required")
	}
	for i, it := range inv.Items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(it.Description) == "" {
			verr.Add(field+".description", "Item description is required")
		}
		if it.Quantity < 1 {
			verr.Add(field+".quantity", "Quantity must be at least 1")
		}
		if it.UnitPrice.IsNegative() {
			verr.Add(field+".unitPrice", "Unit price cannot be negative")
		}
	}

	return verr.OrNil()
}

// plainAddress accepts a bare address such as "a@b.c" and rejects display-name
// forms like "Name <a@b.c>".
func plainAddress(s string) bool {
	return emailCheck.Var(s, "email") == nil
}

// Amounts are client-supplied derived values, kept only to compare against the
// recalculated ones.
type Amounts struct {
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

// AmountDiscrepancies compares supplied amounts against the recalculated invoice and
// describes every mismatch. Zero supplied values are treated as "not supplied".
func AmountDiscrepancies(supplied Amounts, inv *Invoice) []string {
	var warnings []string
	check := func(name string, given, computed decimal.Decimal) {
		if given.IsZero() || given.Equal(computed) {
			return
		}
		warnings = append(warnings, fmt.Sprintf("%s supplied as %s but computed as %s",
			name, given.StringFixed(2), computed.StringFixed(2)))
	}
	check("subtotal", supplied.Subtotal, inv.Subtotal)
	check("taxAmount", supplied.TaxAmount, inv.TaxAmount)
	check("totalAmount", supplied.TotalAmount, inv.TotalAmount)
	return warnings
}
