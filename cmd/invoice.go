package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"invoicing/internal/invoice"
	"invoicing/internal/logger"
	"invoicing/internal/report"
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Create, inspect and change invoices in the configured store",
	Long: `Work with invoices directly in the configured store.

The in-memory store starts empty on every run, so these commands are mostly useful
with STORE_DRIVER=postgres.`,
}

var invoiceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an invoice from a JSON file",
	Long: `Create an invoice from a JSON document. Amounts are recalculated from the items;
a missing invoiceNumber is generated.

Example document:
  {
    "customerName": "Acme GmbH",
    "customerEmail": "billing@acme.example",
    "invoiceDate": "2025-03-01",
    "dueDate": "2025-03-31",
    "taxRate": "19",
    "items": [{"description": "Consulting", "quantity": 8, "unitPrice": "120.00"}]
  }`,
	Example: `  invoicing invoice create -f invoice.json`,
	Args:    cobra.NoArgs,
	RunE:    runInvoiceCreate,
}

var invoiceGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one invoice by id or number",
	Example: `  invoicing invoice get 1f0c6a1e-3c1e-4a43-9a55-0f1c2f0e9b7d
  invoicing invoice get --number INV-2025-03-001`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInvoiceGet,
}

var invoiceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices, optionally filtered",
	Example: `  invoicing invoice list --status SENT
  invoicing invoice list --customer acme --page 1 --size 50
  invoicing invoice list --overdue`,
	Args: cobra.NoArgs,
	RunE: runInvoiceList,
}

var invoiceStatusCmd = &cobra.Command{
	Use:     "status [id] [status]",
	Short:   "Move an invoice to a new status",
	Example: `  invoicing invoice status 1f0c6a1e-3c1e-4a43-9a55-0f1c2f0e9b7d PAID`,
	Args:    cobra.ExactArgs(2),
	RunE:    runInvoiceStatus,
}

var invoiceDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an invoice that is not paid or cancelled",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceDelete,
}

var invoiceNextNumberCmd = &cobra.Command{
	Use:   "next-number",
	Short: "Preview the next invoice number for the current month",
	Args:  cobra.NoArgs,
	RunE:  runInvoiceNextNumber,
}

// invoiceInput is the JSON document accepted by invoice create.
type invoiceInput struct {
	InvoiceNumber   string          `json:"invoiceNumber"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerAddress string          `json:"customerAddress"`
	Items           []itemData      `json:"items"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	Status          string          `json:"status"`
	Notes           string          `json:"notes"`
	InvoiceDate     string          `json:"invoiceDate"`
	DueDate         string          `json:"dueDate"`
}

// InvoiceData represents an invoice in command output
type InvoiceData struct {
	ID              string          `json:"id"`
	InvoiceNumber   string          `json:"invoice_number"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerAddress string          `json:"customer_address,omitempty"`
	Items           []itemData      `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	InvoiceDate     string          `json:"invoice_date"`
	DueDate         string          `json:"due_date"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type itemData struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount,omitempty"`
}

func init() {
	rootCmd.AddCommand(invoiceCmd)
	invoiceCmd.AddCommand(invoiceCreateCmd, invoiceGetCmd, invoiceListCmd, invoiceStatusCmd, invoiceDeleteCmd, invoiceNextNumberCmd)

	invoiceCmd.PersistentFlags().StringP("output", "o", "", "Output file path (default: stdout)")
	invoiceCmd.PersistentFlags().Int("timeout", 60, "Timeout in seconds")

	invoiceCreateCmd.Flags().StringP("file", "f", "", "Invoice JSON document [REQUIRED]")
	_ = invoiceCreateCmd.MarkFlagRequired("file")

	invoiceGetCmd.Flags().String("number", "", "Look up by invoice number instead of id")

	invoiceListCmd.Flags().String("status", "", "Only invoices in this status")
	invoiceListCmd.Flags().String("customer", "", "Customer name substring")
	invoiceListCmd.Flags().Bool("overdue", false, "Only unsettled invoices past their due date")
	invoiceListCmd.Flags().Int("page", 0, "Zero-based page")
	invoiceListCmd.Flags().Int("size", invoice.DefaultPageSize, "Page size")
}

func runInvoiceCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	path, _ := cmd.Flags().GetString("file")
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Failed to read invoice document")
		return fmt.Errorf("failed to read invoice document: %w", err)
	}

	var in invoiceInput
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("invalid invoice document %s: %w", path, err)
	}
	draft, err := in.toInvoice()
	if err != nil {
		return err
	}

	return withApp(cmd, log, func(a *app, ctx context.Context) error {
		created, err := a.invoices.Create(ctx, draft)
		if err != nil {
			return handleInvoiceError(err, log)
		}
		return outputJSON(cmd, convertToInvoiceData(created), log)
	})
}

func runInvoiceGet(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	number, _ := cmd.Flags().GetString("number")
	if number == "" && len(args) == 0 {
		return fmt.Errorf("either an invoice id or --number is required")
	}

	return withApp(cmd, log, func(a *app, ctx context.Context) error {
		var inv *invoice.Invoice
		var err error
		if number != "" {
			inv, err = a.invoices.GetByNumber(ctx, number)
		} else {
			inv, err = a.invoices.Get(ctx, args[0])
		}
		if err != nil {
			return handleInvoiceError(err, log)
		}
		return outputJSON(cmd, convertToInvoiceData(inv), log)
	})
}

func runInvoiceList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	statusFlag, _ := cmd.Flags().GetString("status")
	customer, _ := cmd.Flags().GetString("customer")
	overdue, _ := cmd.Flags().GetBool("overdue")
	page, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("size")

	criteria := invoice.Criteria{CustomerName: customer}
	if statusFlag != "" {
		st, err := invoice.ParseStatus(statusFlag)
		if err != nil {
			return err
		}
		criteria.Status = &st
	}

	return withApp(cmd, log, func(a *app, ctx context.Context) error {
		req := invoice.PageRequest{Page: page, Size: size}
		var result invoice.Page
		var err error
		if overdue {
			result, err = a.invoices.Overdue(ctx, req)
		} else {
			result, err = a.invoices.Query(ctx, criteria, req)
		}
		if err != nil {
			return handleInvoiceError(err, log)
		}

		out := struct {
			Invoices   []InvoiceData `json:"invoices"`
			Page       int           `json:"page"`
			Size       int           `json:"size"`
			TotalItems int64         `json:"total_items"`
			TotalPages int           `json:"total_pages"`
		}{
			Invoices:   make([]InvoiceData, 0, len(result.Items)),
			Page:       result.Page,
			Size:       result.Size,
			TotalItems: result.TotalItems,
			TotalPages: result.TotalPages,
		}
		for i := range result.Items {
			out.Invoices = append(out.Invoices, *convertToInvoiceData(&result.Items[i]))
		}
		return outputJSON(cmd, out, log)
	})
}

func runInvoiceStatus(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	status, err := invoice.ParseStatus(args[1])
	if err != nil {
		return err
	}

	return withApp(cmd, log, func(a *app, ctx context.Context) error {
		updated, err := a.invoices.UpdateStatus(ctx, args[0], status)
		if err != nil {
			return handleInvoiceError(err, log)
		}
		return outputJSON(cmd, convertToInvoiceData(updated), log)
	})
}

func runInvoiceDelete(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	return withApp(cmd, log, func(a *app, ctx context.Context) error {
		if err := a.invoices.Delete(ctx, args[0]); err != nil {
			return handleInvoiceError(err, log)
		}
		fmt.Printf("Deleted invoice %s\n", args[0])
		return nil
	})
}

func runInvoiceNextNumber(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	return withApp(cmd, log, func(a *app, ctx context.Context) error {
		number, err := a.invoices.GenerateNextInvoiceNumber(ctx)
		if err != nil {
			return handleInvoiceError(err, log)
		}
		fmt.Println(number)
		return nil
	})
}

func (in invoiceInput) toInvoice() (*invoice.Invoice, error) {
	invoiceDate, err := time.Parse(report.DateLayout, in.InvoiceDate)
	if err != nil {
		return nil, fmt.Errorf("invoiceDate must be YYYY-MM-DD: %w", err)
	}
	dueDate, err := time.Parse(report.DateLayout, in.DueDate)
	if err != nil {
		return nil, fmt.Errorf("dueDate must be YYYY-MM-DD: %w", err)
	}

	items := make([]invoice.Item, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, invoice.NewItem(it.Description, it.Quantity, it.UnitPrice))
	}

	inv := &invoice.Invoice{
		InvoiceNumber:   in.InvoiceNumber,
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerAddress: in.CustomerAddress,
		Items:           items,
		TaxRate:         in.TaxRate,
		Notes:           in.Notes,
		InvoiceDate:     invoiceDate,
		DueDate:         dueDate,
	}
	if in.Status != "" {
		st, err := invoice.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		inv.Status = st
	}
	return inv, nil
}

// handleInvoiceError provides user-friendly error messages for lifecycle failures
func handleInvoiceError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Invoice operation failed")

	var verr *invoice.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Errorf("invoice is invalid: %w", err)
	case errors.Is(err, invoice.ErrNotFound):
		return fmt.Errorf("invoice not found: %w", err)
	case errors.Is(err, invoice.ErrDuplicateNumber):
		return fmt.Errorf("invoice number already in use: %w", err)
	case errors.Is(err, invoice.ErrInvalidState):
		return fmt.Errorf("paid and cancelled invoices cannot be changed: %w", err)
	case errors.Is(err, invoice.ErrInvalidTransition):
		return fmt.Errorf("status change not allowed: %w", err)
	default:
		return fmt.Errorf("invoice operation failed: %w", err)
	}
}

// convertToInvoiceData converts an invoice for JSON output
func convertToInvoiceData(inv *invoice.Invoice) *InvoiceData {
	items := make([]itemData, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, itemData{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		})
	}
	return &InvoiceData{
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

// outputJSON writes v as indented JSON to --output or stdout
func outputJSON(cmd *cobra.Command, v interface{}, log zerolog.Logger) error {
	outputPath, _ := cmd.Flags().GetString("output")

	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal output to JSON")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}

		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(jsonData)).
			Msg("Output written to file")
		return nil
	}

	if _, err := os.Stdout.Write(jsonData); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}
