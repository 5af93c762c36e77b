// Package api exposes invoices and reports over HTTP.
//
// @title Invoice Management API
// @version 1.0
// @description Invoice lifecycle management with reporting and CSV, Excel and PDF exports.
// @BasePath /
package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "invoicing/docs"
	"invoicing/internal/invoice"
	"invoicing/internal/logger"
	"invoicing/internal/report"
)

// InvoiceService is the invoice lifecycle surface served over HTTP.
type InvoiceService interface {
	Create(ctx context.Context, draft *invoice.Invoice) (*invoice.Invoice, error)
	Get(ctx context.Context, id string) (*invoice.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error)
	List(ctx context.Context, p invoice.PageRequest) (invoice.Page, error)
	Query(ctx context.Context, c invoice.Criteria, p invoice.PageRequest) (invoice.Page, error)
	Overdue(ctx context.Context, p invoice.PageRequest) (invoice.Page, error)
	Search(ctx context.Context, params invoice.SearchParams) ([]invoice.Invoice, error)
	Update(ctx context.Context, id string, patch invoice.Patch) (*invoice.Invoice, error)
	UpdateStatus(ctx context.Context, id string, status invoice.Status) (*invoice.Invoice, error)
	Delete(ctx context.Context, id string) error
	AddItem(ctx context.Context, id string, item invoice.Item) (*invoice.Invoice, error)
	RemoveItem(ctx context.Context, id string, item invoice.Item) (*invoice.Invoice, error)
	GenerateNextInvoiceNumber(ctx context.Context) (string, error)
}

// Handler serves the invoice and report endpoints.
type Handler struct {
	invoices InvoiceService
	reports  *report.Engine
	exporter *report.Exporter
	validate *validator.Validate
	pageSize int
	log      zerolog.Logger
}

// NewHandler creates a handler. pageSize is the default page size for listings.
func NewHandler(invoices InvoiceService, reports *report.Engine, exporter *report.Exporter, pageSize int) *Handler {
	if pageSize <= 0 {
		pageSize = invoice.DefaultPageSize
	}
	return &Handler{
		invoices: invoices,
		reports:  reports,
		exporter: exporter,
		validate: newValidator(),
		pageSize: pageSize,
		log:      logger.WithComponent("api"),
	}
}

// NewRouter registers every route. Fixed paths are registered ahead of the {id}
// patterns they would otherwise collide with.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, recoverMiddleware, accessLogMiddleware)

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	inv := r.PathPrefix("/api/invoices").Subrouter()
	inv.HandleFunc("", h.createInvoice).Methods(http.MethodPost)
	inv.HandleFunc("", h.listInvoices).Methods(http.MethodGet)
	inv.HandleFunc("/generate-number", h.generateNumber).Methods(http.MethodGet)
	inv.HandleFunc("/search", h.searchInvoices).Methods(http.MethodGet)
	inv.HandleFunc("/overdue", h.overdueInvoices).Methods(http.MethodGet)
	inv.HandleFunc("/due-date", h.invoicesByDueDate).Methods(http.MethodGet)
	inv.HandleFunc("/number/{invoiceNumber}", h.getInvoiceByNumber).Methods(http.MethodGet)
	inv.HandleFunc("/status/{status}", h.invoicesByStatus).Methods(http.MethodGet)
	inv.HandleFunc("/amount-greater/{amount}", h.invoicesAmountAtLeast).Methods(http.MethodGet)
	inv.HandleFunc("/amount-less/{amount}", h.invoicesAmountAtMost).Methods(http.MethodGet)
	inv.HandleFunc("/customer/{customerEmail}", h.invoicesByCustomerEmail).Methods(http.MethodGet)
	inv.HandleFunc("/{id}", h.getInvoice).Methods(http.MethodGet)
	inv.HandleFunc("/{id}", h.updateInvoice).Methods(http.MethodPut)
	inv.HandleFunc("/{id}", h.deleteInvoice).Methods(http.MethodDelete)
	inv.HandleFunc("/{id}/status", h.updateInvoiceStatus).Methods(http.MethodPatch)
	inv.HandleFunc("/{id}/items", h.addInvoiceItem).Methods(http.MethodPost)
	inv.HandleFunc("/{id}/items", h.removeInvoiceItem).Methods(http.MethodDelete)

	rep := r.PathPrefix("/api/reports").Subrouter()
	rep.HandleFunc("/invoice/{id}/export", h.exportInvoice).Methods(http.MethodGet)
	rep.HandleFunc("/invoices/export", h.exportInvoices).Methods(http.MethodPost)
	rep.HandleFunc("/invoices/export-by-criteria", h.exportByCriteria).Methods(http.MethodGet)
	rep.HandleFunc("/revenue/by-customer", h.revenueByCustomer).Methods(http.MethodGet)
	rep.HandleFunc("/revenue/by-customer/export", h.exportRevenueByCustomer).Methods(http.MethodGet)
	rep.HandleFunc("/revenue/by-month", h.revenueByMonth).Methods(http.MethodGet)
	rep.HandleFunc("/revenue/by-month/export", h.exportRevenueByMonth).Methods(http.MethodGet)
	rep.HandleFunc("/aging", h.agingReport).Methods(http.MethodGet)
	rep.HandleFunc("/aging/export", h.exportAgingReport).Methods(http.MethodGet)
	rep.HandleFunc("/status", h.statusReport).Methods(http.MethodGet)
	rep.HandleFunc("/status/export", h.exportStatusReport).Methods(http.MethodGet)

	return r
}

// health reports liveness.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}
