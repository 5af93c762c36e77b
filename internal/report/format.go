package report

import (
	"fmt"
	"strings"
)

// Format is an export file format.
type Format string

const (
	FormatCSV   Format = "CSV"
	FormatExcel Format = "EXCEL"
	FormatPDF   Format = "PDF"
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatCSV, FormatExcel, FormatPDF}
}

// ParseFormat converts a case-insensitive name into a Format. "xlsx" is accepted as
// an alias for EXCEL.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CSV":
		return FormatCSV, nil
	case "EXCEL", "XLSX":
		return FormatExcel, nil
	case "PDF":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatExcel:
		return ".xlsx"
	case FormatPDF:
		return ".pdf"
	default:
		return ""
	}
}

// Filename joins a base name and the format extension.
func Filename(base string, f Format) string {
	return base + f.Extension()
}
