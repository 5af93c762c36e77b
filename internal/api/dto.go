package api

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoicing/internal/invoice"
	"invoicing/internal/report"
)

// ItemRequest is an invoice line as sent by clients.
type ItemRequest struct {
	Description string          `json:"description" validate:"required"`
	Quantity    int             `json:"quantity" validate:"min=1"`
	UnitPrice   decimal.Decimal `json:"unitPrice" validate:"gte=0"`
}

// InvoiceRequest is the body of create and update calls. Derived amounts are
// optional and only compared against the recalculated ones.
type InvoiceRequest struct {
	InvoiceNumber   string          `json:"invoiceNumber,omitempty"`
	CustomerName    string          `json:"customerName" validate:"required"`
	CustomerEmail   string          `json:"customerEmail" validate:"required,email"`
	CustomerAddress string          `json:"customerAddress,omitempty"`
	Items           []ItemRequest   `json:"items" validate:"required,min=1,dive"`
	TaxRate         decimal.Decimal `json:"taxRate" validate:"gte=0"`
	Status          string          `json:"status,omitempty" validate:"omitempty,invoice_status"`
	Notes           string          `json:"notes,omitempty"`
	InvoiceDate     string          `json:"invoiceDate" validate:"required"`
	DueDate         string          `json:"dueDate" validate:"required"`

	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// StatusUpdateRequest is the body of PATCH /api/invoices/{id}/status.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,invoice_status"`
}

// ItemResponse is an invoice line in responses.
type ItemResponse struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceResponse is the JSON representation of an invoice.
type InvoiceResponse struct {
	ID              string          `json:"id"`
	InvoiceNumber   string          `json:"invoiceNumber"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerAddress string          `json:"customerAddress,omitempty"`
	Items           []ItemResponse  `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	TaxAmount       decimal.Decimal `json:"taxAmount"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          string          `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	InvoiceDate     string          `json:"invoiceDate"`
	DueDate         string          `json:"dueDate"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// PageResponse is one page of invoices.
type PageResponse struct {
	Content       []InvoiceResponse `json:"content"`
	Page          int               `json:"page"`
	Size          int               `json:"size"`
	TotalElements int64             `json:"totalElements"`
	TotalPages    int               `json:"totalPages"`
}

// EntryResponse is one report row.
type EntryResponse struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// ReportResponse is the JSON representation of a report. Data repeats the entries
// keyed by label.
type ReportResponse struct {
	Title       string                     `json:"title"`
	GeneratedAt time.Time                  `json:"generatedAt"`
	Entries     []EntryResponse            `json:"entries"`
	Data        map[string]decimal.Decimal `json:"data"`
}

func toItems(items []ItemRequest) []invoice.Item {
	out := make([]invoice.Item, 0, len(items))
	for _, it := range items {
		out = append(out, invoice.NewItem(strings.TrimSpace(it.Description), it.Quantity, it.UnitPrice))
	}
	return out
}

// toInvoice converts a validated request. Dates must already have parsed.
func toInvoice(req *InvoiceRequest, invoiceDate, dueDate time.Time) *invoice.Invoice {
	return &invoice.Invoice{
		InvoiceNumber:   strings.TrimSpace(req.InvoiceNumber),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerAddress: req.CustomerAddress,
		Items:           toItems(req.Items),
		TaxRate:         req.TaxRate,
		Status:          invoice.Status(strings.ToUpper(req.Status)),
		Notes:           req.Notes,
		InvoiceDate:     invoiceDate,
		DueDate:         dueDate,
	}
}

func toPatch(req *InvoiceRequest, invoiceDate, dueDate time.Time) invoice.Patch {
	patch := invoice.Patch{
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerAddress: req.CustomerAddress,
		Items:           toItems(req.Items),
		TaxRate:         req.TaxRate,
		Notes:           req.Notes,
		InvoiceDate:     invoiceDate,
		DueDate:         dueDate,
	}
	if req.Status != "" {
		st := invoice.Status(strings.ToUpper(req.Status))
		patch.Status = &st
	}
	return patch
}

func suppliedAmounts(req *InvoiceRequest) invoice.Amounts {
	return invoice.Amounts{
		Subtotal:    req.Subtotal,
		TaxAmount:   req.TaxAmount,
		TotalAmount: req.TotalAmount,
	}
}

func fromInvoice(inv *invoice.Invoice) InvoiceResponse {
	items := make([]ItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, ItemResponse{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		})
	}
	return InvoiceResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerName:    inv.CustomerName,
		CustomerEmail:   inv.CustomerEmail,
		CustomerAddress: inv.CustomerAddress,
		Items:           items,
		Subtotal:        inv.Subtotal,
		TaxRate:         inv.TaxRate,
		TaxAmount:       inv.TaxAmount,
		TotalAmount:     inv.TotalAmount,
		Status:          inv.Status.String(),
		Notes:           inv.Notes,
		InvoiceDate:     inv.InvoiceDate.Format(report.DateLayout),
		DueDate:         inv.DueDate.Format(report.DateLayout),
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

func fromInvoices(invoices []invoice.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, fromInvoice(&invoices[i]))
	}
	return out
}

func fromPage(p invoice.Page) PageResponse {
	return PageResponse{
		Content:       fromInvoices(p.Items),
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalItems,
		TotalPages:    p.TotalPages,
	}
}

func fromReport(r report.Report) ReportResponse {
	entries := make([]EntryResponse, 0, len(r.Entries))
	for _, e := range r.Entries {
		entries = append(entries, EntryResponse{Label: e.Label, Value: e.Value})
	}
	return ReportResponse{
		Title:       r.Title,
		GeneratedAt: r.GeneratedAt,
		Entries:     entries,
		Data:        r.AsMap(),
	}
}
