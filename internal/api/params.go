package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoicing/internal/invoice"
	"invoicing/internal/report"
)

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseTime accepts an ISO date-time or a plain date. A plain date used as the
// upper bound of a range covers the whole day.
func parseTime(param, value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	t, err := time.Parse(report.DateLayout, value)
	if err != nil {
		return time.Time{}, badParam(param, value, fmt.Errorf("expected yyyy-MM-dd or an ISO date-time"))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// requiredTime reads a mandatory date query parameter.
func requiredTime(r *http.Request, param string, endOfDay bool) (time.Time, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return time.Time{}, badParam(param, value, fmt.Errorf("parameter is required"))
	}
	return parseTime(param, value, endOfDay)
}

// optionalTime reads a date query parameter that may be absent.
func optionalTime(r *http.Request, param string, endOfDay bool) (*time.Time, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return nil, nil
	}
	t, err := parseTime(param, value, endOfDay)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseAmount(param, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, badParam(param, value, fmt.Errorf("expected a decimal amount"))
	}
	return d, nil
}

func optionalAmount(r *http.Request, param string) (*decimal.Decimal, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return nil, nil
	}
	d, err := parseAmount(param, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseStatusParam(param, value string) (invoice.Status, error) {
	st, err := invoice.ParseStatus(value)
	if err != nil {
		return "", badParam(param, value, fmt.Errorf("expected one of %s", statusNames()))
	}
	return st, nil
}

func optionalStatus(r *http.Request, param string) (*invoice.Status, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return nil, nil
	}
	st, err := parseStatusParam(param, value)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// formatParam reads the mandatory export format.
func formatParam(r *http.Request) (report.Format, error) {
	value := r.URL.Query().Get("format")
	if value == "" {
		return "", badParam("format", value, fmt.Errorf("parameter is required"))
	}
	return report.ParseFormat(value)
}

func intParam(r *http.Request, param string, fallback int) (int, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, badParam(param, value, fmt.Errorf("expected an integer"))
	}
	return n, nil
}

// pageParam reads the zero-based page and size query parameters.
func (h *Handler) pageParam(r *http.Request) (invoice.PageRequest, error) {
	page, err := intParam(r, "page", 0)
	if err != nil {
		return invoice.PageRequest{}, err
	}
	size, err := intParam(r, "size", h.pageSize)
	if err != nil {
		return invoice.PageRequest{}, err
	}
	return invoice.PageRequest{Page: page, Size: size}.Normalize(), nil
}
