package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"invoicing/internal/invoice"
	"invoicing/internal/logger"
)

// createInvoice creates a new invoice
// @Summary Create a new invoice
// @Description Creates an invoice. A missing invoice number is generated.
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoice body InvoiceRequest true "Invoice to create"
// @Success 201 {object} InvoiceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/invoices [post]
func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req InvoiceRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	invoiceDate, dueDate, err := requestDates(&req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.invoices.Create(r.Context(), toInvoice(&req, invoiceDate, dueDate))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.warnDiscrepancies(r, &req, created)

	writeJSON(w, http.StatusCreated, fromInvoice(created))
}

// getInvoice returns one invoice
// @Summary Get invoice by ID
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} InvoiceResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/invoices/{id} [get]
func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromInvoice(inv))
}

// getInvoiceByNumber returns one invoice
// @Summary Get invoice by number
// @Tags invoices
// @Produce json
// @Param invoiceNumber path string true "Invoice number"
// @Success 200 {object} InvoiceResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/invoices/number/{invoiceNumber} [get]
func (h *Handler) getInvoiceByNumber(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.GetByNumber(r.Context(), mux.Vars(r)["invoiceNumber"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromInvoice(inv))
}

// listInvoices pages through all invoices
// @Summary List invoices
// @Tags invoices
// @Produce json
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Success 200 {object} PageResponse
// @Router /api/invoices [get]
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	p, err := h.pageParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.invoices.List(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromPage(page))
}

// updateInvoice replaces the mutable fields of an invoice
// @Summary Update invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param invoice body InvoiceRequest true "Invoice fields"
// @Success 200 {object} InvoiceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/invoices/{id} [put]
func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	var req InvoiceRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	invoiceDate, dueDate, err := requestDates(&req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.invoices.Update(r.Context(), mux.Vars(r)["id"], toPatch(&req, invoiceDate, dueDate))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.warnDiscrepancies(r, &req, updated)

	writeJSON(w, http.StatusOK, fromInvoice(updated))
}

// updateInvoiceStatus moves an invoice through the status machine
// @Summary Update invoice status
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param status body StatusUpdateRequest true "Target status"
// @Success 200 {object} InvoiceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/invoices/{id}/status [patch]
func (h *Handler) updateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusUpdateRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := parseStatusParam("status", req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.invoices.UpdateStatus(r.Context(), mux.Vars(r)["id"], status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromInvoice(updated))
}

// deleteInvoice removes a non-final invoice
// @Summary Delete invoice
// @Tags invoices
// @Param id path string true "Invoice ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/invoices/{id} [delete]
func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.invoices.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// addInvoiceItem appends a line item
// @Summary Add invoice item
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param item body ItemRequest true "Line item"
// @Success 200 {object} InvoiceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/invoices/{id}/items [post]
func (h *Handler) addInvoiceItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.invoices.AddItem(r.Context(), mux.Vars(r)["id"], toItems([]ItemRequest{req})[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromInvoice(updated))
}

// removeInvoiceItem removes the first matching line item
// @Summary Remove invoice item
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param item body ItemRequest true "Line item to remove"
// @Success 200 {object} InvoiceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/invoices/{id}/items [delete]
func (h *Handler) removeInvoiceItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.invoices.RemoveItem(r.Context(), mux.Vars(r)["id"], toItems([]ItemRequest{req})[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromInvoice(updated))
}

// invoicesByStatus pages through invoices in one status
// @Summary List invoices by status
// @Tags invoices
// @Produce json
// @Param status path string true "Invoice status"
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Success 200 {object} PageResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/invoices/status/{status} [get]
func (h *Handler) invoicesByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := parseStatusParam("status", mux.Vars(r)["status"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.queryPage(w, r, invoice.Criteria{Status: &status})
}

// invoicesAmountAtLeast pages through invoices whose total is at least amount
// @Summary List invoices with total greater than or equal to an amount
// @Tags invoices
// @Produce json
// @Param amount path string true "Amount"
// @Success 200 {object} PageResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/invoices/amount-greater/{amount} [get]
func (h *Handler) invoicesAmountAtLeast(w http.ResponseWriter, r *http.Request) {
	amount, err := parseAmount("amount", mux.Vars(r)["amount"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.queryPage(w, r, invoice.Criteria{MinAmount: &amount})
}

// invoicesAmountAtMost pages through invoices whose total is at most amount
// @Summary List invoices with total less than or equal to an amount
// @Tags invoices
// @Produce json
// @Param amount path string true "Amount"
// @Success 200 {object} PageResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/invoices/amount-less/{amount} [get]
func (h *Handler) invoicesAmountAtMost(w http.ResponseWriter, r *http.Request) {
	amount, err := parseAmount("amount", mux.Vars(r)["amount"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.queryPage(w, r, invoice.Criteria{MaxAmount: &amount})
}

// invoicesByCustomerEmail pages through the invoices of one customer
// @Summary List invoices by customer email
// @Tags invoices
// @Produce json
// @Param customerEmail path string true "Customer email"
// @Success 200 {object} PageResponse
// @Router /api/invoices/customer/{customerEmail} [get]
func (h *Handler) invoicesByCustomerEmail(w http.ResponseWriter, r *http.Request) {
	h.queryPage(w, r, invoice.Criteria{CustomerEmail: mux.Vars(r)["customerEmail"]})
}

// invoicesByDueDate pages through invoices due within a range
// @Summary List invoices by due date range
// @Tags invoices
// @Produce json
// @Param startDate query string true "Range start"
// @Param endDate query string true "Range end"
// @Success 200 {object} PageResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/invoices/due-date [get]
func (h *Handler) invoicesByDueDate(w http.ResponseWriter, r *http.Request) {
	from, err := requiredTime(r, "startDate", false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := requiredTime(r, "endDate", true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.queryPage(w, r, invoice.Criteria{DueFrom: &from, DueTo: &to})
}

// overdueInvoices pages through unsettled invoices past their due date
// @Summary List overdue invoices
// @Tags invoices
// @Produce json
// @Success 200 {object} PageResponse
// @Router /api/invoices/overdue [get]
func (h *Handler) overdueInvoices(w http.ResponseWriter, r *http.Request) {
	p, err := h.pageParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.invoices.Overdue(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromPage(page))
}

// searchInvoices returns every invoice matching the supplied filters
// @Summary Advanced invoice search
// @Tags invoices
// @Produce json
// @Param clientName query string false "Customer name substring"
// @Param status query string false "Invoice status"
// @Param startDate query string false "Invoice date from"
// @Param endDate query string false "Invoice date to"
// @Param minAmount query string false "Minimum total"
// @Param maxAmount query string false "Maximum total"
// @Success 200 {array} InvoiceResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/invoices/search [get]
func (h *Handler) searchInvoices(w http.ResponseWriter, r *http.Request) {
	params, err := searchParams(r, "clientName")
	if err != nil {
		writeError(w, r, err)
		return
	}
	invoices, err := h.invoices.Search(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromInvoices(invoices))
}

// generateNumber previews the next invoice number from the stored invoices. The
// number a later create assigns can be higher: the allocation counter does not
// reuse numbers freed by deletes or failed creates.
// @Summary Generate next invoice number
// @Description Highest stored number of the current month plus one. Informational only: nothing is reserved, and a later create may receive a higher number because numbers freed by deletes or failed creates are not reused.
// @Tags invoices
// @Produce plain
// @Success 200 {string} string
// @Router /api/invoices/generate-number [get]
func (h *Handler) generateNumber(w http.ResponseWriter, r *http.Request) {
	number, err := h.invoices.GenerateNextInvoiceNumber(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(number))
}

func (h *Handler) queryPage(w http.ResponseWriter, r *http.Request, c invoice.Criteria) {
	p, err := h.pageParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.invoices.Query(r.Context(), c, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromPage(page))
}

// searchParams reads the shared search filters. nameParam differs between the
// search and export endpoints.
func searchParams(r *http.Request, nameParam string) (invoice.SearchParams, error) {
	var params invoice.SearchParams
	var err error

	params.CustomerName = r.URL.Query().Get(nameParam)
	if params.Status, err = optionalStatus(r, "status"); err != nil {
		return params, err
	}
	if params.From, err = optionalTime(r, "startDate", false); err != nil {
		return params, err
	}
	if params.To, err = optionalTime(r, "endDate", true); err != nil {
		return params, err
	}
	if params.MinAmount, err = optionalAmount(r, "minAmount"); err != nil {
		return params, err
	}
	if params.MaxAmount, err = optionalAmount(r, "maxAmount"); err != nil {
		return params, err
	}
	return params, nil
}

// requestDates parses the invoice and due dates of a request body.
func requestDates(req *InvoiceRequest) (invoiceDate, dueDate time.Time, err error) {
	verr := &invoice.ValidationError{}
	invoiceDate, err = parseTime("invoiceDate", req.InvoiceDate, false)
	if err != nil {
		verr.Add("invoiceDate", "Invoice date must be yyyy-MM-dd or an ISO date-time")
	}
	dueDate, err = parseTime("dueDate", req.DueDate, false)
	if err != nil {
		verr.Add("dueDate", "Due date must be yyyy-MM-dd or an ISO date-time")
	}
	return invoiceDate, dueDate, verr.OrNil()
}

// warnDiscrepancies logs client-supplied amounts that disagree with the
// recalculated ones. The computed values always win.
func (h *Handler) warnDiscrepancies(r *http.Request, req *InvoiceRequest, inv *invoice.Invoice) {
	warnings := invoice.AmountDiscrepancies(suppliedAmounts(req), inv)
	if len(warnings) == 0 {
		return
	}
	logger.FromContext(r.Context()).Warn().
		Str("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Strs("discrepancies", warnings).
		Msg("Ignored client-supplied amounts")
}
