// Package sheets mirrors the ledger and its summaries into a Google
// spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/core"
	"bilancio/internal/export"
)

// Snapshot is everything written to the spreadsheet in one mirror pass.
type Snapshot struct {
	Transactions []core.Transaction
	Summary      core.Summary
	Categories   core.CategorySummary
}

type Options struct {
	SpreadsheetID   string
	LedgerSheet     string // default "Ledger"
	SummarySheet    string // default "Summary"
	CredentialsJSON string
	CredentialsFile string
	// ClientOptions replaces credential loading when set.
	ClientOptions []goption.ClientOption
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
	summarySheet  string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if opts.LedgerSheet == "" {
		opts.LedgerSheet = "Ledger"
	}
	if opts.SummarySheet == "" {
		opts.SummarySheet = "Summary"
	}

	clientOpts := opts.ClientOptions
	if len(clientOpts) == 0 {
		creds, err := loadCredentials(opts)
		if err != nil {
			return nil, err
		}
		clientOpts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID)
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		ledgerSheet:   opts.LedgerSheet,
		summarySheet:  opts.SummarySheet,
	}, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials")
}

// Mirror replaces both sheets with the content of snap.
func (c *Client) Mirror(ctx context.Context, snap Snapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.replace(ctx, c.ledgerSheet, ledgerValues(snap.Transactions)); err != nil {
		return fmt.Errorf("mirror ledger: %w", err)
	}
	if err := c.replace(ctx, c.summarySheet, summaryValues(snap.Summary, snap.Categories)); err != nil {
		return fmt.Errorf("mirror summary: %w", err)
	}

	slog.InfoContext(ctx, "Ledger mirrored to Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"rows", len(snap.Transactions))
	return nil
}

func (c *Client) replace(ctx context.Context, sheet string, values [][]any) error {
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, sheet, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}

	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheet+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", sheet, err)
	}
	return nil
}

func ledgerValues(txs []core.Transaction) [][]any {
	values := make([][]any, 0, len(txs)+1)
	header := make([]any, len(export.Header))
	for i, h := range export.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, r := range export.ToRows(txs) {
		values = append(values, []any{r.ID, r.Kind, r.Amount, r.Category, r.Description, r.Date, r.RecordedAt})
	}
	return values
}

func summaryValues(s core.Summary, cs core.CategorySummary) [][]any {
	values := [][]any{
		{"total_income", s.TotalIncome.String()},
		{"total_expense", s.TotalExpense.String()},
		{"net_balance", s.NetBalance.String()},
		{"income_count", s.IncomeCount},
		{"expense_count", s.ExpenseCount},
		{"total_count", s.TotalCount},
		{},
		{"kind", "category", "total", "count"},
	}
	for _, g := range cs.Income {
		values = append(values, []any{string(core.Income), g.Category, g.Total.String(), g.Count})
	}
	for _, g := range cs.Expense {
		values = append(values, []any{string(core.Expense), g.Category, g.Total.String(), g.Count})
	}
	return values
}
