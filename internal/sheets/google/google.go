package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgeteer/internal/log"
	ports "budgeteer/internal/sheets"
)

// Config selects the spreadsheet and the service account used to write to it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Client exports budget months into a single sheet, one row per (user, year, month).
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var _ ports.MonthExporter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger)
}

// NewWithService wraps an existing service, e.g. one pointed at a test endpoint.
func NewWithService(svc *gsheet.Service, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Budget"
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheet,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		if path := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); path != "" {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read service account file: %w", err)
			}
			return b, nil
		}
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportMonth updates the row keyed by the month's user and calendar month, or
// appends one when none exists. The header row is written on first use.
func (c *Client) ExportMonth(ctx context.Context, row ports.MonthRow) (string, error) {
	keys := fmt.Sprintf("%s!A:D", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, keys).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", keys, err)
	}

	if len(resp.Values) == 0 {
		if err := c.write(ctx, fmt.Sprintf("%s!A1:%s1", c.sheetName, lastColumn), [][]any{headerValues()}); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		resp.Values = [][]any{headerValues()}
	}

	values := [][]any{rowValues(row)}
	if idx := findRow(resp.Values, row); idx >= 0 {
		ref := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, idx+1, lastColumn, idx+1)
		if err := c.write(ctx, ref, values); err != nil {
			return "", fmt.Errorf("update %s: %w", ref, err)
		}
		c.logger.DebugContext(ctx, "Updated month row", log.FieldUserID, row.UserID, "ref", ref)
		return ref, nil
	}

	next := len(resp.Values) + 1
	ref := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, next, lastColumn, next)
	if err := c.write(ctx, ref, values); err != nil {
		return "", fmt.Errorf("append %s: %w", ref, err)
	}
	c.logger.DebugContext(ctx, "Appended month row", log.FieldUserID, row.UserID, "ref", ref)
	return ref, nil
}

func (c *Client) write(ctx context.Context, rng string, values [][]any) error {
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}
