package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	ts := time.Date(2025, 3, 7, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "reports/2025/03/07/aging_report.pdf", ObjectName("reports", "aging_report.pdf", ts))
	assert.Equal(t, "exports/daily/2025/03/07/invoices.csv", ObjectName("/exports/daily/", "invoices.csv", ts))
	assert.Equal(t, "2025/03/07/invoices.csv", ObjectName("", "invoices.csv", ts))
}
