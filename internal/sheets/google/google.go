// Package google mirrors ledgers into a Google spreadsheet using a service
// account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budget/internal/sheets"
)

var _ sheets.LedgerMirror = (*Client)(nil)

type Config struct {
	SpreadsheetID string

	// Exactly one of CredentialsJSON or CredentialsFile is needed.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *slog.Logger
}

// New creates a client authenticated with service account credentials.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, cfg.SpreadsheetID, logger,
		option.WithCredentialsJSON(creds),
		option.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions builds a client from explicit API options.
func NewWithOptions(ctx context.Context, spreadsheetID string, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets client ready", "spreadsheet_id", spreadsheetID)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, logger: logger}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// ReplaceRows creates the tab if needed, clears it and writes header and rows
// starting at A1.
func (c *Client) ReplaceRows(ctx context.Context, tab string, header []string, rows [][]string) error {
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, tab, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear tab %s: %w", tab, err)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, toCells(header))
	for _, r := range rows {
		values = append(values, toCells(r))
	}

	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, tab+"!A1", &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write tab %s: %w", tab, err)
	}

	c.logger.InfoContext(ctx, "Ledger mirrored to sheet", "tab", tab, "rows", len(rows))
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == tab {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", tab, err)
	}
	c.logger.InfoContext(ctx, "Created sheet tab", "tab", tab)
	return nil
}

func toCells(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
