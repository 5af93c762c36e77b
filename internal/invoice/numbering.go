package invoice

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const numberPrefix = "INV"

// Sequencer hands out per-period sequence numbers. Next must be atomic across
// callers and must return a value strictly greater than both floor and every value
// it returned before for the same period.
type Sequencer interface {
	Next(ctx context.Context, period string, floor int) (int, error)
}

// NumberPrefix returns the period prefix for t, e.g. "INV-2025-03".
func NumberPrefix(t time.Time) string {
	return fmt.Sprintf("%s-%04d-%02d", numberPrefix, t.Year(), int(t.Month()))
}

// FormatNumber joins a prefix and a sequence, zero padded to three digits.
func FormatNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s-%03d", prefix, seq)
}

// ParseSequence extracts the numeric suffix of an invoice number. The suffix is the
// segment after the period prefix; numbers that do not parse report ok=false.
func ParseSequence(number string) (int, bool) {
	parts := strings.Split(number, "-")
	if len(parts) < 4 {
		return 0, false
	}
	suffix := parts[3]
	if suffix == "" {
		return 0, false
	}
	for _, r := range suffix {
		if !unicode.IsDigit(r) {
			return 0, false
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}

// maxSequence returns the highest parsable sequence among numbers sharing prefix.
func maxSequence(prefix string, numbers []string) (highest int, skipped []string) {
	for _, n := range numbers {
		if !strings.HasPrefix(n, prefix+"-") {
			continue
		}
		seq, ok := ParseSequence(n)
		if !ok {
			skipped = append(skipped, n)
			continue
		}
		if seq > highest {
			highest = seq
		}
	}
	return highest, skipped
}
