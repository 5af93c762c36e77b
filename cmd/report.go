package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"invoicing/internal/logger"
	"invoicing/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute revenue, aging and status reports",
	Long: `Compute a report over the invoices in the configured store.

Without --format or --output the report is printed as a table. With --output the
format is taken from --format or the file extension. Reports can additionally be
archived to Google Cloud Storage (--archive) and appended to a Google Sheet
(--publish-sheet).

Optional environment variables:
  GOOGLE_SHEET_URL                - Target spreadsheet for --publish-sheet
  GOOGLE_APPLICATION_CREDENTIALS  - Service account for Google Sheets
  GCS_OUTPUT_BUCKET               - Bucket for --archive
  GCS_OUTPUT_FOLDER               - Folder inside the bucket (default: reports)`,
}

var reportRevenueByCustomerCmd = &cobra.Command{
	Use:     "revenue-by-customer",
	Short:   "Paid revenue per customer within a date range",
	Example: `  invoicing report revenue-by-customer --from 2025-01-01 --to 2025-03-31 -o revenue.xlsx`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")
		from, err := time.Parse(report.DateLayout, fromStr)
		if err != nil {
			return fmt.Errorf("invalid --from date %q, expected YYYY-MM-DD", fromStr)
		}
		to, err := time.Parse(report.DateLayout, toStr)
		if err != nil {
			return fmt.Errorf("invalid --to date %q, expected YYYY-MM-DD", toStr)
		}
		to = to.Add(24*time.Hour - time.Nanosecond)

		return runReport(cmd, "revenue_by_customer", func(ctx context.Context, a *app) (report.Report, error) {
			return a.reports.RevenueByCustomer(ctx, from, to)
		})
	},
}

var reportRevenueByMonthCmd = &cobra.Command{
	Use:     "revenue-by-month",
	Short:   "Paid revenue per calendar month of a year",
	Example: `  invoicing report revenue-by-month --year 2025 --format pdf -o revenue-2025.pdf`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")
		if year <= 0 {
			year = time.Now().Year()
		}
		return runReport(cmd, "revenue_by_month_"+strconv.Itoa(year), func(ctx context.Context, a *app) (report.Report, error) {
			return a.reports.RevenueByMonth(ctx, year)
		})
	},
}

var reportAgingCmd = &cobra.Command{
	Use:   "aging",
	Short: "Outstanding amounts bucketed by days past due",
	Example: `  invoicing report aging
  invoicing report aging --format excel --archive`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, "aging_report", func(ctx context.Context, a *app) (report.Report, error) {
			return a.reports.Aging(ctx)
		})
	},
}

var reportStatusCmd = &cobra.Command{
	Use:     "by-status",
	Short:   "Invoice counts per status",
	Example: `  invoicing report by-status --publish-sheet "Status Report"`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, "invoices_by_status", func(ctx context.Context, a *app) (report.Report, error) {
			return a.reports.InvoicesByStatus(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportRevenueByCustomerCmd, reportRevenueByMonthCmd, reportAgingCmd, reportStatusCmd)

	addOutputFlags(reportCmd)

	reportRevenueByCustomerCmd.Flags().String("from", "", "Start date (YYYY-MM-DD) [REQUIRED]")
	reportRevenueByCustomerCmd.Flags().String("to", "", "End date (YYYY-MM-DD) [REQUIRED]")
	_ = reportRevenueByCustomerCmd.MarkFlagRequired("from")
	_ = reportRevenueByCustomerCmd.MarkFlagRequired("to")

	reportRevenueByMonthCmd.Flags().Int("year", 0, "Year (default: current year)")
}

// addOutputFlags registers the flags shared by report and export commands.
func addOutputFlags(c *cobra.Command) {
	c.PersistentFlags().String("format", "", "Output format: csv, excel or pdf")
	c.PersistentFlags().StringP("output", "o", "", "Output file path")
	c.PersistentFlags().Bool("archive", false, "Upload the rendered file to GCS_OUTPUT_BUCKET")
	c.PersistentFlags().String("publish-sheet", "", "Append the rows to this sheet of GOOGLE_SHEET_URL")
	c.PersistentFlags().Int("timeout", defaultTimeoutSecs, "Timeout in seconds")
}

type reportFunc func(ctx context.Context, a *app) (report.Report, error)

func runReport(cmd *cobra.Command, name string, build reportFunc) error {
	log := logger.WithComponent("report")

	formatFlag, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	archiveIt, _ := cmd.Flags().GetBool("archive")
	sheetName, _ := cmd.Flags().GetString("publish-sheet")

	return withApp(cmd, log, func(a *app, ctx context.Context) error {
		rep, err := build(ctx, a)
		if err != nil {
			log.Error().Err(err).Str("report", name).Msg("Failed to compute report")
			return fmt.Errorf("failed to compute report: %w", err)
		}

		log.Info().
			Str("title", rep.Title).
			Int("entries", len(rep.Entries)).
			Msg("Report computed")

		if sheetName != "" {
			publisher, err := a.publisher(ctx)
			if err != nil {
				return err
			}
			if err := publisher.PublishReport(ctx, sheetName, rep); err != nil {
				return fmt.Errorf("failed to publish report: %w", err)
			}
		}

		if formatFlag == "" && outputPath == "" && !archiveIt {
			if sheetName != "" {
				return nil
			}
			return printReport(os.Stdout, rep)
		}

		f, err := resolveFormat(formatFlag, outputPath)
		if err != nil {
			return err
		}
		return a.deliver(ctx, name, f, outputPath, archiveIt, func(w io.Writer) error {
			return a.exporter.ExportReport(rep, f, w)
		})
	})
}

// resolveFormat picks the explicit --format, else the output file extension, else CSV.
func resolveFormat(formatFlag, outputPath string) (report.Format, error) {
	if formatFlag != "" {
		return report.ParseFormat(formatFlag)
	}
	if ext := strings.TrimPrefix(filepath.Ext(outputPath), "."); ext != "" {
		return report.ParseFormat(ext)
	}
	return report.FormatCSV, nil
}

// printReport writes the report as an aligned text table.
func printReport(w io.Writer, rep report.Report) error {
	fmt.Fprintf(w, "%s\n", rep.Title)
	fmt.Fprintf(w, "Report Date: %s\n\n", rep.GeneratedAt.Format(report.DateLayout))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Category\tValue\t")
	for _, e := range rep.Entries {
		fmt.Fprintf(tw, "%s\t%s\t\n", e.Label, rep.FormatValue(e.Value))
	}
	return tw.Flush()
}
