// Package render encodes invoice listings and reports as CSV, Excel and PDF files.
package render

import (
	"invoicing/internal/report"
)

// Renderers returns a renderer for every supported export format.
func Renderers() map[report.Format]report.Renderer {
	return map[report.Format]report.Renderer{
		report.FormatCSV:   CSV{},
		report.FormatExcel: Excel{},
		report.FormatPDF:   PDF{},
	}
}

const (
	headerCategory = "Category"
	headerValue    = "Value"
	reportDate     = "Report Date: "
)
