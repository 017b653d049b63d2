// Package sheets exports collected records to Google Sheets.
package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	sheetsapi "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"

	"github.com/Hiromu1612/tabelog-scraper/internal/export/table"
	"github.com/Hiromu1612/tabelog-scraper/internal/scraper"
)

// clearRange wipes well past any realistic export size.
const clearRange = "A1:Z1000"

// API is the narrow slice of the Sheets service the writer needs.
type API interface {
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	AddSheet(ctx context.Context, spreadsheetID, title string) error
	Clear(ctx context.Context, spreadsheetID, rangeA1 string) error
	Append(ctx context.Context, spreadsheetID, rangeA1 string, values [][]any) error
}

// Writer replaces one spreadsheet sheet per region with the current
// records. The sheet is created on first export for a region.
type Writer struct {
	api           API
	spreadsheetID string
	logger        *zap.Logger
}

// NewWriter builds a Writer over an API implementation.
func NewWriter(api API, spreadsheetID string, logger *zap.Logger) (*Writer, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id must be set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{api: api, spreadsheetID: spreadsheetID, logger: logger}, nil
}

// NewService builds a Writer backed by the real Sheets API using
// service-account key material.
func NewService(ctx context.Context, spreadsheetID, credentialsJSON string, logger *zap.Logger) (*Writer, error) {
	if credentialsJSON == "" {
		return nil, fmt.Errorf("credentials must be set")
	}
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON([]byte(credentialsJSON)),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("build sheets service: %w", err)
	}
	return NewWriter(&googleAPI{svc: svc}, spreadsheetID, logger)
}

// Write clears the region's sheet and writes a header row plus one row
// per record. It returns the number of records written.
func (w *Writer) Write(ctx context.Context, region string, records []scraper.Record) (int, error) {
	titles, err := w.api.SheetTitles(ctx, w.spreadsheetID)
	if err != nil {
		return 0, fmt.Errorf("list sheets: %w", err)
	}

	exists := false
	for _, t := range titles {
		if t == region {
			exists = true
			break
		}
	}
	if !exists {
		w.logger.Info("creating sheet", zap.String("region", region))
		if err := w.api.AddSheet(ctx, w.spreadsheetID, region); err != nil {
			return 0, fmt.Errorf("add sheet %s: %w", region, err)
		}
	}

	if err := w.api.Clear(ctx, w.spreadsheetID, region+"!"+clearRange); err != nil {
		return 0, fmt.Errorf("clear sheet %s: %w", region, err)
	}

	values := make([][]any, 0, len(records)+1)
	values = append(values, toAnyRow(table.Header()))
	for i, rec := range records {
		values = append(values, toAnyRow(table.Row(i+1, rec)))
	}

	if err := w.api.Append(ctx, w.spreadsheetID, region+"!A1", values); err != nil {
		return 0, fmt.Errorf("append rows to %s: %w", region, err)
	}

	w.logger.Info("spreadsheet export complete",
		zap.String("region", region),
		zap.Int("records", len(records)),
	)
	return len(records), nil
}

func toAnyRow(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

// googleAPI adapts the generated Sheets client to the API interface.
type googleAPI struct {
	svc *sheetsapi.Service
}

func (g *googleAPI) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	resp, err := g.svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(resp.Sheets))
	for _, sheet := range resp.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
		}
	}
	return titles, nil
}

func (g *googleAPI) AddSheet(ctx context.Context, spreadsheetID, title string) error {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: title},
			},
		}},
	}
	_, err := g.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}

func (g *googleAPI) Clear(ctx context.Context, spreadsheetID, rangeA1 string) error {
	_, err := g.svc.Spreadsheets.Values.
		Clear(spreadsheetID, rangeA1, &sheetsapi.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}

func (g *googleAPI) Append(ctx context.Context, spreadsheetID, rangeA1 string, values [][]any) error {
	body := &sheetsapi.ValueRange{Values: values}
	_, err := g.svc.Spreadsheets.Values.
		Append(spreadsheetID, rangeA1, body).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	return err
}
