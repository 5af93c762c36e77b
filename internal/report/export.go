package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"invoicing/internal/invoice"
	"invoicing/internal/logger"
)

// Renderer encodes invoice listings and reports into one file format.
type Renderer interface {
	RenderInvoices(w io.Writer, invoices []invoice.Invoice) error
	RenderReport(w io.Writer, r Report) error
}

// Exporter loads invoices and dispatches rendering by format. Output is rendered into
// memory first and copied to the sink only when rendering succeeded.
type Exporter struct {
	src       InvoiceSource
	renderers map[Format]Renderer
	log       zerolog.Logger
}

// NewExporter creates an exporter over the given renderers.
func NewExporter(src InvoiceSource, renderers map[Format]Renderer) *Exporter {
	return &Exporter{
		src:       src,
		renderers: renderers,
		log:       logger.WithComponent("report-exporter"),
	}
}

// ExportInvoice renders a single invoice.
func (e *Exporter) ExportInvoice(ctx context.Context, id string, f Format, w io.Writer) error {
	inv, err := e.src.Get(ctx, id)
	if err != nil {
		return err
	}
	return e.renderInvoices("ExportInvoice", f, w, []invoice.Invoice{*inv})
}

// ExportInvoices renders the invoices with the given ids, in the order given.
func (e *Exporter) ExportInvoices(ctx context.Context, ids []string, f Format, w io.Writer) error {
	invoices := make([]invoice.Invoice, 0, len(ids))
	for _, id := range ids {
		inv, err := e.src.Get(ctx, id)
		if err != nil {
			return err
		}
		invoices = append(invoices, *inv)
	}
	return e.renderInvoices("ExportInvoices", f, w, invoices)
}

// ExportByCriteria renders every invoice matching params.
func (e *Exporter) ExportByCriteria(ctx context.Context, params invoice.SearchParams, f Format, w io.Writer) error {
	invoices, err := e.src.Search(ctx, params)
	if err != nil {
		return err
	}
	return e.renderInvoices("ExportByCriteria", f, w, invoices)
}

// ExportList renders an already loaded invoice list.
func (e *Exporter) ExportList(invoices []invoice.Invoice, f Format, w io.Writer) error {
	return e.renderInvoices("ExportList", f, w, invoices)
}

// ExportReport renders a computed report.
func (e *Exporter) ExportReport(r Report, f Format, w io.Writer) error {
	const op = "ExportReport"

	renderer, err := e.renderer(f)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := renderer.RenderReport(&buf, r); err != nil {
		e.log.Error().Err(err).Str("format", string(f)).Str("title", r.Title).Msg("Failed to render report")
		return &Error{Op: op, Format: f, Err: err}
	}
	return e.flush(op, f, &buf, w)
}

func (e *Exporter) renderInvoices(op string, f Format, w io.Writer, invoices []invoice.Invoice) error {
	renderer, err := e.renderer(f)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := renderer.RenderInvoices(&buf, invoices); err != nil {
		e.log.Error().Err(err).Str("format", string(f)).Int("invoices", len(invoices)).Msg("Failed to render invoices")
		return &Error{Op: op, Format: f, Err: err}
	}
	return e.flush(op, f, &buf, w)
}

func (e *Exporter) renderer(f Format) (Renderer, error) {
	r, ok := e.renderers[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	return r, nil
}

func (e *Exporter) flush(op string, f Format, buf *bytes.Buffer, w io.Writer) error {
	n, err := buf.WriteTo(w)
	if err != nil {
		e.log.Error().Err(err).Str("format", string(f)).Msg("Failed to write export output")
		return &Error{Op: op, Format: f, Err: err}
	}
	e.log.Debug().Str("op", op).Str("format", string(f)).Int64("bytes", n).Msg("Export written")
	return nil
}

// WriteFile writes the output of render to path atomically: it renders into a
// temporary file in the same directory and renames it into place on success.
func WriteFile(path string, render func(io.Writer) error) (err error) {
	const op = "WriteFile"

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = render(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return &Error{Op: op, Err: err}
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return &Error{Op: op, Err: err}
	}
	return nil
}
