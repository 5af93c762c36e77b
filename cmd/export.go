package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"invoicing/internal/invoice"
	"invoicing/internal/logger"
	"invoicing/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export invoices as CSV, Excel or PDF",
	Long: `Export invoices selected by id or by search criteria.

Invoices are selected with --ids, or with any combination of --customer, --status,
--from, --to, --min-amount and --max-amount. Without --output or --archive the
rendered file is written to stdout.`,
	Example: `  # Export two invoices to Excel
  invoicing export --ids 3f2a...,9b1c... --format excel -o invoices.xlsx

  # Export all paid invoices of a customer in Q1 as PDF and archive the file
  invoicing export --customer acme --status PAID --from 2025-01-01 --to 2025-03-31 --format pdf --archive

  # Append the selection to a Google Sheet
  invoicing export --status OVERDUE --publish-sheet Overdue`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addOutputFlags(exportCmd)

	exportCmd.Flags().StringSlice("ids", nil, "Comma-separated invoice ids")
	exportCmd.Flags().String("customer", "", "Customer name (case-insensitive substring)")
	exportCmd.Flags().String("status", "", "Invoice status")
	exportCmd.Flags().String("from", "", "Earliest invoice date (YYYY-MM-DD)")
	exportCmd.Flags().String("to", "", "Latest invoice date (YYYY-MM-DD)")
	exportCmd.Flags().String("min-amount", "", "Minimum total amount")
	exportCmd.Flags().String("max-amount", "", "Maximum total amount")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	formatFlag, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	archiveIt, _ := cmd.Flags().GetBool("archive")
	sheetName, _ := cmd.Flags().GetString("publish-sheet")
	ids, _ := cmd.Flags().GetStringSlice("ids")

	params, err := exportParams(cmd)
	if err != nil {
		return err
	}

	f, err := resolveFormat(formatFlag, outputPath)
	if err != nil {
		return err
	}

	return withApp(cmd, log, func(a *app, ctx context.Context) error {
		invoices, err := selectInvoices(ctx, a.invoices, ids, params)
		if err != nil {
			return handleInvoiceError(err, log)
		}
		if len(invoices) == 0 {
			log.Warn().Msg("No invoices matched the selection")
		}

		log.Info().
			Int("invoices", len(invoices)).
			Str("format", string(f)).
			Msg("Exporting invoices")

		if sheetName != "" {
			publisher, err := a.publisher(ctx)
			if err != nil {
				return err
			}
			if err := publisher.PublishInvoices(ctx, sheetName, invoices); err != nil {
				return fmt.Errorf("failed to publish invoices: %w", err)
			}
			if outputPath == "" && !archiveIt && formatFlag == "" {
				return nil
			}
		}

		return a.deliver(ctx, "invoices", f, outputPath, archiveIt, func(w io.Writer) error {
			return a.exporter.ExportList(invoices, f, w)
		})
	})
}

// selectInvoices loads the invoices named by ids, or searches with params when no
// ids are given.
func selectInvoices(ctx context.Context, svc *invoice.Service, ids []string, params invoice.SearchParams) ([]invoice.Invoice, error) {
	if len(ids) == 0 {
		return svc.Search(ctx, params)
	}
	invoices := make([]invoice.Invoice, 0, len(ids))
	for _, id := range ids {
		inv, err := svc.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, nil
}

func exportParams(cmd *cobra.Command) (invoice.SearchParams, error) {
	var params invoice.SearchParams
	params.CustomerName, _ = cmd.Flags().GetString("customer")

	if s, _ := cmd.Flags().GetString("status"); s != "" {
		status, err := invoice.ParseStatus(s)
		if err != nil {
			return params, err
		}
		params.Status = &status
	}

	if s, _ := cmd.Flags().GetString("from"); s != "" {
		from, err := time.Parse(report.DateLayout, s)
		if err != nil {
			return params, fmt.Errorf("invalid --from date %q, expected YYYY-MM-DD", s)
		}
		params.From = &from
	}
	if s, _ := cmd.Flags().GetString("to"); s != "" {
		to, err := time.Parse(report.DateLayout, s)
		if err != nil {
			return params, fmt.Errorf("invalid --to date %q, expected YYYY-MM-DD", s)
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
		params.To = &to
	}

	for flag, dst := range map[string]**decimal.Decimal{
		"min-amount": &params.MinAmount,
		"max-amount": &params.MaxAmount,
	} {
		s, _ := cmd.Flags().GetString(flag)
		if s == "" {
			continue
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return params, fmt.Errorf("invalid --%s %q", flag, s)
		}
		*dst = &d
	}

	return params, nil
}
