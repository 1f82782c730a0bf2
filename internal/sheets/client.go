// Package sheets pushes the final roster table to a Google Sheets
// worksheet: clear, update, header formatting, and a status dropdown.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"rostersync/internal"
	"rostersync/internal/config"
)

// Columns of the exported table, in order. The status dropdown binds to
// the last one.
var TableHeaders = []string{"Client Name", "Short Name", "Birthday", "Client Status"}

const statusColumnIndex = 3

type Client struct {
	service    *sheetsapi.Service
	retryCount int
}

// NewClient builds a Sheets client from the configured credentials:
// service-account JSON when present, otherwise a client-id/secret/refresh-
// token OAuth triple.
func NewClient(ctx context.Context, cfg config.Config) (*Client, error) {
	scopes := []string{sheetsapi.SpreadsheetsScope, sheetsapi.DriveFileScope}

	var source oauth2.TokenSource
	switch {
	case strings.TrimSpace(cfg.GoogleServiceAccountJSON) != "":
		jwtCfg, err := google.JWTConfigFromJSON([]byte(cfg.GoogleServiceAccountJSON), scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse service account credentials: %w", err)
		}
		source = jwtCfg.TokenSource(ctx)
	case cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" && cfg.GoogleRefreshToken != "":
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       scopes,
		}
		source = oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GoogleRefreshToken})
	default:
		return nil, fmt.Errorf("google sheets credentials not configured")
	}

	svc, err := sheetsapi.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, err
	}

	retry := cfg.SheetsRetryCount
	if retry < 1 {
		retry = 1
	}
	return &Client{service: svc, retryCount: retry}, nil
}

// Update replaces the worksheet's contents with the records: existing data
// is cleared (the worksheet is created when missing), values are written
// with USER_ENTERED semantics under bounded retry, then the header row is
// formatted and the status column gets its dropdown.
func (c *Client) Update(ctx context.Context, spreadsheetID, worksheet string, records []internal.FinalRecord) error {
	worksheetID, err := c.ensureWorksheet(ctx, spreadsheetID, worksheet)
	if err != nil {
		return err
	}

	clearRange := fmt.Sprintf("%s!A:Z", worksheet)
	if _, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, clearRange, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear worksheet %s: %w", worksheet, err)
	}

	values := buildValues(records)
	body := &sheetsapi.ValueRange{Values: values, MajorDimension: "ROWS"}
	target := fmt.Sprintf("%s!A1", worksheet)

	var lastErr error
	for attempt := 0; attempt < c.retryCount; attempt++ {
		_, lastErr = c.service.Spreadsheets.Values.Update(spreadsheetID, target, body).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if lastErr == nil {
			break
		}
		if _, ok := lastErr.(*googleapi.Error); !ok {
			return fmt.Errorf("update worksheet %s: %w", worksheet, lastErr)
		}
	}
	if lastErr != nil {
		return fmt.Errorf("update worksheet %s after %d attempts: %w", worksheet, c.retryCount, lastErr)
	}

	if err := c.formatHeader(ctx, spreadsheetID, worksheetID, len(TableHeaders)); err != nil {
		return err
	}
	return c.addStatusValidation(ctx, spreadsheetID, worksheetID, len(values))
}

// TestConnection fetches the spreadsheet and returns its title.
func (c *Client) TestConnection(ctx context.Context, spreadsheetID string) (string, error) {
	meta, err := c.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if meta.Properties == nil {
		return "", nil
	}
	return meta.Properties.Title, nil
}

func (c *Client) ensureWorksheet(ctx context.Context, spreadsheetID, worksheet string) (int64, error) {
	id, found, err := c.worksheetID(ctx, spreadsheetID, worksheet)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: worksheet},
			},
		}},
	}
	if _, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("create worksheet %s: %w", worksheet, err)
	}

	id, found, err = c.worksheetID(ctx, spreadsheetID, worksheet)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("worksheet %s missing after creation", worksheet)
	}
	return id, nil
}

func (c *Client) worksheetID(ctx context.Context, spreadsheetID, worksheet string) (int64, bool, error) {
	meta, err := c.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == worksheet {
			return sheet.Properties.SheetId, true, nil
		}
	}
	return 0, false, nil
}

func (c *Client) formatHeader(ctx context.Context, spreadsheetID string, worksheetID int64, columns int) error {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{
			{
				RepeatCell: &sheetsapi.RepeatCellRequest{
					Range: &sheetsapi.GridRange{
						SheetId:          worksheetID,
						StartRowIndex:    0,
						EndRowIndex:      1,
						StartColumnIndex: 0,
						EndColumnIndex:   int64(columns),
					},
					Cell: &sheetsapi.CellData{
						UserEnteredFormat: &sheetsapi.CellFormat{
							BackgroundColor: &sheetsapi.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
							TextFormat:      &sheetsapi.TextFormat{Bold: true},
						},
					},
					Fields: "userEnteredFormat(backgroundColor,textFormat)",
				},
			},
			{
				AutoResizeDimensions: &sheetsapi.AutoResizeDimensionsRequest{
					Dimensions: &sheetsapi.DimensionRange{
						SheetId:    worksheetID,
						Dimension:  "COLUMNS",
						StartIndex: 0,
						EndIndex:   int64(columns),
					},
				},
			},
		},
	}
	if _, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("format header: %w", err)
	}
	return nil
}

func (c *Client) addStatusValidation(ctx context.Context, spreadsheetID string, worksheetID int64, rows int) error {
	if rows < 2 {
		return nil
	}
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			SetDataValidation: &sheetsapi.SetDataValidationRequest{
				Range: &sheetsapi.GridRange{
					SheetId:          worksheetID,
					StartRowIndex:    1,
					EndRowIndex:      int64(rows),
					StartColumnIndex: statusColumnIndex,
					EndColumnIndex:   statusColumnIndex + 1,
				},
				Rule: &sheetsapi.DataValidationRule{
					Condition: &sheetsapi.BooleanCondition{
						Type: "ONE_OF_LIST",
						Values: []*sheetsapi.ConditionValue{
							{UserEnteredValue: string(internal.StatusActive)},
							{UserEnteredValue: string(internal.StatusDropout)},
							{UserEnteredValue: string(internal.StatusNA)},
						},
					},
					ShowCustomUi: true,
					Strict:       true,
				},
			},
		}},
	}
	if _, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add status validation: %w", err)
	}
	return nil
}

func buildValues(records []internal.FinalRecord) [][]interface{} {
	values := make([][]interface{}, 0, len(records)+1)
	header := make([]interface{}, len(TableHeaders))
	for i, h := range TableHeaders {
		header[i] = h
	}
	values = append(values, header)

	for _, rec := range records {
		birthday := ""
		if rec.Birthday != nil {
			birthday = *rec.Birthday
		}
		values = append(values, []interface{}{rec.FullName, rec.ShortName, birthday, string(rec.Status)})
	}
	return values
}

// SpreadsheetIDFromURL pulls the document ID out of a pasted sheet URL;
// bare IDs pass through unchanged.
func SpreadsheetIDFromURL(url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", fmt.Errorf("empty spreadsheet reference")
	}
	const marker = "/spreadsheets/d/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		if strings.Contains(url, "/") {
			return "", fmt.Errorf("unrecognized spreadsheet url: %s", url)
		}
		return url, nil
	}
	rest := url[idx+len(marker):]
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		rest = rest[:slash]
	}
	if rest == "" {
		return "", fmt.Errorf("unrecognized spreadsheet url: %s", url)
	}
	return rest, nil
}
