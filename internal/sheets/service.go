package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"invoicing/internal/invoice"
	"invoicing/internal/logger"
	"invoicing/internal/report"
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Publisher appends reports and invoice listings to a Google Spreadsheet
type Publisher struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// table is a header plus rows destined for one worksheet
type table struct {
	headers []string
	rows    [][]interface{}
}

// NewPublisher creates a publisher for the spreadsheet at sheetURL. Credentials come
// from GOOGLE_APPLICATION_CREDENTIALS (file) or GOOGLE_CREDENTIALS (inline JSON).
func NewPublisher(ctx context.Context, sheetURL string) (*Publisher, error) {
	const op = "NewPublisher"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Publisher{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// PublishReport appends the report entries to sheetName, one row per entry tagged
// with the report title and date
func (p *Publisher) PublishReport(ctx context.Context, sheetName string, r report.Report) error {
	p.log.Info().
		Str("sheet", sheetName).
		Str("title", r.Title).
		Int("rows", len(r.Entries)).
		Msg("Publishing report to Google Sheet")

	return p.publish(ctx, "PublishReport", sheetName, reportTable(r))
}

// PublishInvoices appends one row per invoice to sheetName
func (p *Publisher) PublishInvoices(ctx context.Context, sheetName string, invoices []invoice.Invoice) error {
	p.log.Info().
		Str("sheet", sheetName).
		Int("rows", len(invoices)).
		Msg("Publishing invoices to Google Sheet")

	return p.publish(ctx, "PublishInvoices", sheetName, invoiceTable(invoices))
}

func (p *Publisher) publish(ctx context.Context, op, sheetName string, t table) error {
	if err := p.ensureSheetWithHeaders(ctx, sheetName, t.headers); err != nil {
		return fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
	}
	if len(t.rows) == 0 {
		return nil
	}

	valueRange := &sheets.ValueRange{Values: t.rows}
	_, err := p.sheetsService.Spreadsheets.Values.Append(
		p.spreadsheetID,
		fmt.Sprintf("%s!A:%s", sheetName, columnLetter(len(t.headers))),
		valueRange,
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	p.log.Info().
		Int("rows_written", len(t.rows)).
		Msg("Successfully wrote rows to Google Sheet")

	return nil
}

func reportTable(r report.Report) table {
	date := r.GeneratedAt.Format(report.DateLayout)
	rows := make([][]interface{}, 0, len(r.Entries))
	for _, e := range r.Entries {
		var value interface{}
		if r.Kind == report.KindCount {
			value = e.Value.IntPart()
		} else {
			value = e.Value.Round(2).InexactFloat64()
		}
		rows = append(rows, []interface{}{e.Label, value, r.Title, date})
	}
	return table{
		headers: []string{"Category", "Value", "Report", "Report Date"},
		rows:    rows,
	}
}

func invoiceTable(invoices []invoice.Invoice) table {
	rows := make([][]interface{}, 0, len(invoices))
	for i := range invoices {
		record := report.InvoiceRecord(&invoices[i])
		row := make([]interface{}, len(record))
		for j, v := range record {
			row[j] = v
		}
		rows = append(rows, row)
	}
	return table{headers: report.InvoiceColumns, rows: rows}
}

// columnLetter converts a 1-based column index into its A1 letter
func columnLetter(n int) string {
	var s []byte
	for n > 0 {
		n--
		s = append([]byte{byte('A' + n%26)}, s...)
		n /= 26
	}
	return string(s)
}

// ensureSheetWithHeaders ensures the sheet exists and has proper headers
func (p *Publisher) ensureSheetWithHeaders(ctx context.Context, sheetName string, headers []string) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := p.sheetsService.Spreadsheets.Get(p.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		p.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheetName}}},
			},
		}

		resp, err := p.sheetsService.Spreadsheets.BatchUpdate(p.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}

		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	headerRange := fmt.Sprintf("%s!A1:%s1", sheetName, columnLetter(len(headers)))
	resp, err := p.sheetsService.Spreadsheets.Values.Get(p.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		p.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")

		row := make([]interface{}, len(headers))
		for i, h := range headers {
			row[i] = h
		}

		_, err = p.sheetsService.Spreadsheets.Values.Update(
			p.spreadsheetID,
			headerRange,
			&sheets.ValueRange{Values: [][]interface{}{row}},
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to add headers: %w", op, err)
		}

		if err := p.formatHeaders(ctx, sheetID, int64(len(headers))); err != nil {
			p.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
		}
	}

	return nil
}

// formatHeaders makes the header row bold and resizes the used columns
func (p *Publisher) formatHeaders(ctx context.Context, sheetID, columns int64) error {
	const op = "formatHeaders"

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	_, err := p.sheetsService.Spreadsheets.BatchUpdate(p.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}

	return nil
}
