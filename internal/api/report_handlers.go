package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"invoicing/internal/report"
)

// exportInvoice downloads one invoice
// @Summary Export a single invoice
// @Tags reports
// @Produce octet-stream
// @Param id path string true "Invoice ID"
// @Param format query string true "CSV, EXCEL or PDF"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/reports/invoice/{id}/export [get]
func (h *Handler) exportInvoice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.download(w, r, "invoice_"+id, func(f report.Format, out io.Writer) error {
		return h.exporter.ExportInvoice(r.Context(), id, f, out)
	})
}

// exportInvoices downloads the invoices whose ids are posted as a JSON array
// @Summary Export multiple invoices
// @Tags reports
// @Accept json
// @Produce octet-stream
// @Param ids body []string true "Invoice IDs"
// @Param format query string true "CSV, EXCEL or PDF"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/reports/invoices/export [post]
func (h *Handler) exportInvoices(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if err := decodeJSON(w, r, &ids); err != nil {
		writeError(w, r, err)
		return
	}
	if len(ids) == 0 {
		writeError(w, r, badParam("ids", "[]", fmt.Errorf("at least one invoice id is required")))
		return
	}
	h.download(w, r, "invoices", func(f report.Format, out io.Writer) error {
		return h.exporter.ExportInvoices(r.Context(), ids, f, out)
	})
}

// exportByCriteria downloads every invoice matching the filters
// @Summary Export invoices by criteria
// @Tags reports
// @Produce octet-stream
// @Param customerName query string false "Customer name substring"
// @Param status query string false "Invoice status"
// @Param startDate query string false "Invoice date from (yyyy-MM-dd)"
// @Param endDate query string false "Invoice date to (yyyy-MM-dd)"
// @Param format query string true "CSV, EXCEL or PDF"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /api/reports/invoices/export-by-criteria [get]
func (h *Handler) exportByCriteria(w http.ResponseWriter, r *http.Request) {
	params, err := searchParams(r, "customerName")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.download(w, r, "invoices_report", func(f report.Format, out io.Writer) error {
		return h.exporter.ExportByCriteria(r.Context(), params, f, out)
	})
}

// revenueByCustomer reports paid revenue per customer
// @Summary Revenue by customer
// @Tags reports
// @Produce json
// @Param startDate query string true "Start date (yyyy-MM-dd)"
// @Param endDate query string true "End date (yyyy-MM-dd)"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/reports/revenue/by-customer [get]
func (h *Handler) revenueByCustomer(w http.ResponseWriter, r *http.Request) {
	h.respondReport(w, r, h.buildRevenueByCustomer)
}

// exportRevenueByCustomer downloads the revenue by customer report
// @Summary Export revenue by customer
// @Tags reports
// @Produce octet-stream
// @Param startDate query string true "Start date (yyyy-MM-dd)"
// @Param endDate query string true "End date (yyyy-MM-dd)"
// @Param format query string true "CSV, EXCEL or PDF"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /api/reports/revenue/by-customer/export [get]
func (h *Handler) exportRevenueByCustomer(w http.ResponseWriter, r *http.Request) {
	h.downloadReport(w, r, "revenue_by_customer", h.buildRevenueByCustomer)
}

// revenueByMonth reports paid revenue per calendar month
// @Summary Revenue by month
// @Tags reports
// @Produce json
// @Param year query int true "Year"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/reports/revenue/by-month [get]
func (h *Handler) revenueByMonth(w http.ResponseWriter, r *http.Request) {
	h.respondReport(w, r, h.buildRevenueByMonth)
}

// exportRevenueByMonth downloads the revenue by month report
// @Summary Export revenue by month
// @Tags reports
// @Produce octet-stream
// @Param year query int true "Year"
// @Param format query string true "CSV, EXCEL or PDF"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /api/reports/revenue/by-month/export [get]
func (h *Handler) exportRevenueByMonth(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.downloadReport(w, r, "revenue_by_month_"+strconv.Itoa(year), h.buildRevenueByMonth)
}

// agingReport reports outstanding amounts by days past due
// @Summary Accounts receivable aging
// @Tags reports
// @Produce json
// @Success 200 {object} ReportResponse
// @Router /api/reports/aging [get]
func (h *Handler) agingReport(w http.ResponseWriter, r *http.Request) {
	h.respondReport(w, r, h.buildAging)
}

// exportAgingReport downloads the aging report
// @Summary Export aging report
// @Tags reports
// @Produce octet-stream
// @Param format query string true "CSV, EXCEL or PDF"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /api/reports/aging/export [get]
func (h *Handler) exportAgingReport(w http.ResponseWriter, r *http.Request) {
	h.downloadReport(w, r, "aging_report", h.buildAging)
}

// statusReport counts invoices per status
// @Summary Invoices by status
// @Tags reports
// @Produce json
// @Success 200 {object} ReportResponse
// @Router /api/reports/status [get]
func (h *Handler) statusReport(w http.ResponseWriter, r *http.Request) {
	h.respondReport(w, r, h.buildStatus)
}

// exportStatusReport downloads the invoices by status report
// @Summary Export invoices by status
// @Tags reports
// @Produce octet-stream
// @Param format query string true "CSV, EXCEL or PDF"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /api/reports/status/export [get]
func (h *Handler) exportStatusReport(w http.ResponseWriter, r *http.Request) {
	h.downloadReport(w, r, "invoices_by_status", h.buildStatus)
}

type reportBuilder func(r *http.Request) (report.Report, error)

func (h *Handler) buildRevenueByCustomer(r *http.Request) (report.Report, error) {
	from, err := requiredTime(r, "startDate", false)
	if err != nil {
		return report.Report{}, err
	}
	to, err := requiredTime(r, "endDate", true)
	if err != nil {
		return report.Report{}, err
	}
	return h.reports.RevenueByCustomer(r.Context(), from, to)
}

func (h *Handler) buildRevenueByMonth(r *http.Request) (report.Report, error) {
	year, err := yearParam(r)
	if err != nil {
		return report.Report{}, err
	}
	return h.reports.RevenueByMonth(r.Context(), year)
}

func (h *Handler) buildAging(r *http.Request) (report.Report, error) {
	return h.reports.Aging(r.Context())
}

func (h *Handler) buildStatus(r *http.Request) (report.Report, error) {
	return h.reports.InvoicesByStatus(r.Context())
}

func yearParam(r *http.Request) (int, error) {
	value := r.URL.Query().Get("year")
	if value == "" {
		return 0, badParam("year", value, fmt.Errorf("parameter is required"))
	}
	year, err := strconv.Atoi(value)
	if err != nil || year < 1 || year > 9999 {
		return 0, badParam("year", value, fmt.Errorf("expected a four digit year"))
	}
	return year, nil
}

func (h *Handler) respondReport(w http.ResponseWriter, r *http.Request, build reportBuilder) {
	rep, err := build(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromReport(rep))
}

func (h *Handler) downloadReport(w http.ResponseWriter, r *http.Request, base string, build reportBuilder) {
	f, err := formatParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := build(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.send(w, r, base, f, func(out io.Writer) error {
		return h.exporter.ExportReport(rep, f, out)
	})
}

// download resolves the format parameter and streams the rendered file.
func (h *Handler) download(w http.ResponseWriter, r *http.Request, base string, render func(report.Format, io.Writer) error) {
	f, err := formatParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.send(w, r, base, f, func(out io.Writer) error {
		return render(f, out)
	})
}

// send renders fully before any header is written so that failures still produce
// a JSON error response.
func (h *Handler) send(w http.ResponseWriter, r *http.Request, base string, f report.Format, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		writeError(w, r, err)
		return
	}

	filename := report.Filename(base, f)
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn().Err(err).Str("filename", filename).Msg("Client went away during download")
		return
	}

	h.log.Debug().Str("filename", filename).Str("format", string(f)).Msg("Export served")
}
