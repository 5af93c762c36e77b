package invoice_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/invoice"
)

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   invoice.PageRequest
		want invoice.PageRequest
	}{
		{"defaults", invoice.PageRequest{}, invoice.PageRequest{Page: 0, Size: invoice.DefaultPageSize}},
		{"negative page", invoice.PageRequest{Page: -3, Size: 5}, invoice.PageRequest{Page: 0, Size: 5}},
		{"size capped", invoice.PageRequest{Page: 1, Size: 1000}, invoice.PageRequest{Page: 1, Size: invoice.MaxPageSize}},
		{"page saturates", invoice.PageRequest{Page: math.MaxInt, Size: 20}, invoice.PageRequest{Page: math.MaxInt / 20, Size: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.Offset(), 0)
		})
	}
}

func TestPaginateHugePage(t *testing.T) {
	all := []invoice.Invoice{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	for _, p := range []invoice.PageRequest{
		{Page: 922337203685477579, Size: 20},
		{Page: math.MaxInt, Size: 1},
		{Page: 2, Size: 2},
	} {
		var page invoice.Page
		require.NotPanics(t, func() { page = invoice.Paginate(all, p) })
		assert.Empty(t, page.Items)
		assert.Equal(t, int64(3), page.TotalItems)
	}

	page := invoice.Paginate(all, invoice.PageRequest{Page: 1, Size: 2})
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c", page.Items[0].ID)
	assert.Equal(t, 2, page.TotalPages)
}
