package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/brownie/internal/config"
	"github.com/mamadbah2/brownie/internal/domain/models"
)

// ReportExporter appends daily reports to a spreadsheet, one row per day.
type ReportExporter interface {
	ExportDailyReport(ctx context.Context, report models.DailyReport) error
}

// GoogleSheetRepository implements ReportExporter using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	reportRange   string
	loc           *time.Location
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed exporter. Extra
// client options are appended after the credentials file.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, loc *time.Location, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		reportRange:   cfg.ReportRange,
		loc:           loc,
		logger:        logger,
	}, nil
}

// ExportDailyReport appends the report unless a row for the same date is
// already present in the first column.
func (r *GoogleSheetRepository) ExportDailyReport(ctx context.Context, report models.DailyReport) error {
	date := models.DateOnly(report.Date, r.loc)

	rows, err := r.ReadRange(ctx, r.reportRange)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) > 0 && fmt.Sprint(row[0]) == date {
			r.logger.Info("daily report already exported", zap.String("date", date))
			return nil
		}
	}

	return r.WriteRow(ctx, r.reportRange, ReportRow(report, r.loc))
}

// ReportRow lays a report out as
// date | pending count | pending total | overdue count | overdue total | receivable | units in stock | categories.
func ReportRow(report models.DailyReport, loc *time.Location) []interface{} {
	units := 0
	for _, level := range report.Stock {
		units += level.Quantity
	}
	return []interface{}{
		models.DateOnly(report.Date, loc),
		report.Pending.Count,
		report.Pending.Total,
		report.Overdue.Count,
		report.Overdue.Total,
		report.TotalReceivable,
		units,
		len(report.Stock),
	}
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}
