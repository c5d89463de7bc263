// Package google exports the ledger to a Google Sheets tab. Column A holds
// the transaction id and is used to find a transaction's row.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/sheets"
)

// Options selects the spreadsheet and service account credentials.
// CredentialsJSON wins over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var _ sheets.LedgerExporter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(opts.SheetName) == "" {
		return nil, errors.New("missing sheet name")
	}
	creds, err := credentials(opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     opts.SheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func credentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// locate returns the 1-based row holding id, or ok=false with the row
// where a new entry should go. Row 1 is the header.
func locate(columnA [][]any, id string) (row int, ok bool) {
	for i, r := range columnA {
		if i == 0 || len(r) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(r[0])) == id {
			return i + 1, true
		}
	}
	next := len(columnA) + 1
	if next < 2 {
		next = 2
	}
	return next, false
}

func toValues(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

func (c *Client) rowRange(row int) string {
	last := 'A' + rune(len(sheets.Header)-1)
	return fmt.Sprintf("%s!A%d:%c%d", c.sheetName, row, last, row)
}

func (c *Client) readIDs(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) write(ctx context.Context, row int, cells []string) error {
	rng := c.rowRange(row)
	vr := &gsheet.ValueRange{Values: [][]any{toValues(cells)}}
	// RAW keeps ids and amounts as typed text instead of letting Sheets reformat them.
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) Upsert(ctx context.Context, t core.Transaction) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		if err := c.write(ctx, 1, sheets.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	row, found := locate(ids, t.ID)
	if err := c.write(ctx, row, sheets.Row(t)); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Ledger row written",
		log.FieldTransactionID, t.ID,
		"row", row,
		"replaced", found)
	return nil
}

// Remove clears the transaction's row. The row stays in place so other
// rows keep their positions.
func (c *Client) Remove(ctx context.Context, id string) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row, found := locate(ids, id)
	if !found {
		return nil
	}
	rng := c.rowRange(row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	c.logger.InfoContext(ctx, "Ledger row cleared", log.FieldTransactionID, id, "row", row)
	return nil
}
