package invoice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumberPrefix(t *testing.T) {
	assert.Equal(t, "INV-2025-03", NumberPrefix(time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "INV-2024-12", NumberPrefix(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "INV-2025-03-001", FormatNumber("INV-2025-03", 1))
	assert.Equal(t, "INV-2025-03-1000", FormatNumber("INV-2025-03", 1000))
}

func TestParseSequence(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"INV-2025-03-001", 1, true},
		{"INV-2025-03-042", 42, true},
		{"INV-2025-03-1234", 1234, true},
		{"INV-2025-03", 0, false},
		{"INV-2025-03-", 0, false},
		{"INV-2025-03-00A", 0, false},
		{"INV-2025-03-+12", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSequence(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaxSequence(t *testing.T) {
	highest, skipped := maxSequence("INV-2025-03", []string{
		"INV-2025-03-001",
		"INV-2025-03-002",
		"INV-2025-03-bad",
		"INV-2025-04-009",
	})

	assert.Equal(t, 2, highest)
	assert.Equal(t, []string{"INV-2025-03-bad"}, skipped)
}

func TestMaxSequenceEmpty(t *testing.T) {
	highest, skipped := maxSequence("INV-2025-03", nil)

	assert.Zero(t, highest)
	assert.Empty(t, skipped)
}
