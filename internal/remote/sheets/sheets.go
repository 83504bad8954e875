// Package sheets adapts a Google Sheets spreadsheet as the hosted row store.
// Entries live on one sheet (one row per entry), saved options on another.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/noobzdxz-gif/Tracking-App/internal/core"
	"github.com/noobzdxz-gif/Tracking-App/internal/remote"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	entriesSheet  string
	optionsSheet  string
}

// Ensure interface conformance
var (
	_ remote.RowWriter   = (*Client)(nil)
	_ remote.RowUpdater  = (*Client)(nil)
	_ remote.RowDeleter  = (*Client)(nil)
	_ remote.RowLister   = (*Client)(nil)
	_ remote.OptionStore = (*Client)(nil)
)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Sheet names default to "Entries" and
// "Options" (GOOGLE_ENTRIES_SHEET / GOOGLE_OPTIONS_SHEET).
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	entriesSheet := strings.TrimSpace(os.Getenv("GOOGLE_ENTRIES_SHEET"))
	if entriesSheet == "" {
		entriesSheet = "Entries"
	}
	optionsSheet := strings.TrimSpace(os.Getenv("GOOGLE_OPTIONS_SHEET"))
	if optionsSheet == "" {
		optionsSheet = "Options"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		entriesSheet:  entriesSheet,
		optionsSheet:  optionsSheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Entry sheet columns: A date, B kind, C label, D value, E start, F end.
// The value column holds decimal money for expense rows and hours for time
// rows; the kind column disambiguates on read.

func rowValues(row remote.Row) []any {
	value := ""
	switch row.Kind {
	case "time":
		value = strconv.FormatFloat(row.Hours, 'f', 2, 64)
	case "expense":
		value = core.Money{Cents: row.AmountCents}.Decimal()
	}
	return []any{row.Date, row.Kind, row.Label, value, row.StartTime, row.EndTime}
}

// Append writes the row at the next free line and returns "row:<n>" as the
// backend reference.
func (c *Client) Append(ctx context.Context, row remote.Row) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	// Find the next empty row from the date column.
	rng := fmt.Sprintf("%s!A:A", c.entriesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", c.entriesSheet, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:F%d", c.entriesSheet, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(row)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", dataRange, err)
	}

	slog.InfoContext(ctx, "Appended row to sheet",
		"sheet", c.entriesSheet, "row", nextRow, "kind", row.Kind)

	return fmt.Sprintf("row:%d", nextRow), nil
}

// Update rewrites the row behind a "row:<n>" reference.
func (c *Client) Update(ctx context.Context, ref string, row remote.Row) error {
	n, err := parseRef(ref)
	if err != nil {
		return err
	}
	dataRange := fmt.Sprintf("%s!A%d:F%d", c.entriesSheet, n, n)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(row)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", dataRange, err)
	}
	return nil
}

// Delete clears the row behind the reference. Row numbers of other entries
// stay stable because the line is blanked, not removed.
func (c *Client) Delete(ctx context.Context, ref string) error {
	n, err := parseRef(ref)
	if err != nil {
		return err
	}
	dataRange := fmt.Sprintf("%s!A%d:F%d", c.entriesSheet, n, n)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, dataRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", dataRange, err)
	}
	return nil
}

// ListRange reads the whole entry sheet and filters by the day-key interval.
func (c *Client) ListRange(ctx context.Context, r core.DateRange) ([]remote.StoredRow, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("%s!A:F", c.entriesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rng, err)
	}

	startKey, endKey := r.Start.Key(), r.End.Key()
	var out []remote.StoredRow
	for i, values := range resp.Values {
		row, ok := parseRowValues(values)
		if !ok {
			continue // blank or malformed line
		}
		if row.Date < startKey || row.Date > endKey {
			continue
		}
		out = append(out, remote.StoredRow{Ref: fmt.Sprintf("row:%d", i+1), Row: row})
	}
	return out, nil
}

func parseRowValues(values []any) (remote.Row, bool) {
	if len(values) < 4 {
		return remote.Row{}, false
	}
	cell := func(i int) string {
		if i >= len(values) {
			return ""
		}
		s, _ := values[i].(string)
		return strings.TrimSpace(s)
	}
	row := remote.Row{
		Date:      cell(0),
		Kind:      cell(1),
		Label:     cell(2),
		StartTime: cell(4),
		EndTime:   cell(5),
	}
	if row.Date == "" || row.Label == "" {
		return remote.Row{}, false
	}
	switch row.Kind {
	case "time":
		hours, err := strconv.ParseFloat(cell(3), 64)
		if err != nil {
			return remote.Row{}, false
		}
		row.Hours = hours
	case "expense":
		cents, err := core.ParseDecimalToCents(cell(3))
		if err != nil {
			return remote.Row{}, false
		}
		row.AmountCents = cents
	default:
		return remote.Row{}, false
	}
	return row, true
}

// Options sheet columns: A kind, B content.

func (c *Client) ListOptions(ctx context.Context, kind string) ([]string, error) {
	rng := fmt.Sprintf("%s!A:B", c.optionsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rng, err)
	}
	var out []string
	for _, values := range resp.Values {
		if len(values) < 2 {
			continue
		}
		k, _ := values[0].(string)
		content, _ := values[1].(string)
		if strings.TrimSpace(k) != kind || strings.TrimSpace(content) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(content))
	}
	return out, nil
}

func (c *Client) AppendOption(ctx context.Context, kind, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("empty option content")
	}
	rng := fmt.Sprintf("%s!A:B", c.optionsSheet)
	vr := &gsheet.ValueRange{Values: [][]any{{kind, content}}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append option: %w", err)
	}
	return nil
}

func parseRef(ref string) (int, error) {
	numText, ok := strings.CutPrefix(ref, "row:")
	if !ok {
		return 0, fmt.Errorf("malformed row ref %q", ref)
	}
	n, err := strconv.Atoi(numText)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("malformed row ref %q", ref)
	}
	return n, nil
}
