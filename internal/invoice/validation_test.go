package invoice

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsCompleteInvoice(t *testing.T) {
	assert.NoError(t, Validate(sampleInvoice()))
}

func TestValidateCollectsFields(t *testing.T) {
	inv := &Invoice{
		CustomerEmail: "not-an-address",
		TaxRate:       dec("-1"),
		Status:        "ARCHIVED",
		Items:         []Item{{Quantity: 0, UnitPrice: dec("-2")}},
	}

	err := Validate(inv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	for _, field := range []string{
		"customerName",
		"customerEmail",
		"invoiceDate",
		"dueDate",
		"taxRate",
		"status",
		"items[0].description",
		"items[0].quantity",
		"items[0].unitPrice",
	} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestValidateCustomerEmailForms(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"billing@acme.example", true},
		{"first.last+ap@acme.example", true},
		{"Acme Billing <billing@acme.example>", false},
		{"<billing@acme.example>", false},
		{" billing@acme.example", false},
		{"billing@", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			inv := sampleInvoice()
			inv.CustomerEmail = tt.email

			err := Validate(inv)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, "customerEmail")
		})
	}
}

func TestValidateRequiresItems(t *testing.T) {
	inv := sampleInvoice()
	inv.Items = nil

	var verr *ValidationError
	require.True(t, errors.As(Validate(inv), &verr))
	assert.Equal(t, map[string]string{"items": "At least one item is required"}, verr.Fields)
}

func TestValidationErrorKeepsFirstMessage(t *testing.T) {
	verr := &ValidationError{}
	verr.Add("status", "first")
	verr.Add("status", "second")

	assert.Equal(t, "first", verr.Fields["status"])
	assert.Nil(t, (&ValidationError{}).OrNil())
}

func TestAmountDiscrepancies(t *testing.T) {
	inv := sampleInvoice()

	assert.Empty(t, AmountDiscrepancies(Amounts{}, inv))
	assert.Empty(t, AmountDiscrepancies(Amounts{Subtotal: dec("65"), TotalAmount: dec("71.50")}, inv))

	warnings := AmountDiscrepancies(Amounts{TotalAmount: dec("80")}, inv)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "totalAmount supplied as 80.00 but computed as 71.50")
}
