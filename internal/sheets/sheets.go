// Package sheets appends report rows to a Google Sheets spreadsheet.
//
// The sheet keeps a single header row in A1:K1. Each append lands below the
// last non-empty cell of column A, and the appended block is shaded so that
// consecutive days alternate white and light gray.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/i474232898/pass-weather-report/internal/report"
)

const (
	headerRange = "A1:K1"
	appendRange = "A:K"
	countRange  = "A:A"

	valueInputRaw  = "RAW"
	insertRows     = "INSERT_ROWS"
	backgroundMask = "userEnteredFormat.backgroundColor"
)

var (
	gray  = &sheets.Color{Red: 0.95, Green: 0.95, Blue: 0.95}
	white = &sheets.Color{Red: 1, Green: 1, Blue: 1}
)

// Config selects the target spreadsheet and formatting.
type Config struct {
	CredentialsFile string
	SpreadsheetID   string
	// SheetName is the tab to write to; empty means the first tab.
	SheetName string
	// SheetGID is the numeric sheet id used for formatting requests when
	// SheetName is empty. A named tab's id is read from the spreadsheet.
	SheetGID int64
	// RowsPerDay is the size of one shaded day group.
	RowsPerDay int
	Coloring   bool
}

// Writer appends rows to a spreadsheet.
type Writer struct {
	svc    *sheets.Service
	cfg    Config
	logger *slog.Logger
}

// AppendResult describes where rows landed.
type AppendResult struct {
	StartRow    int
	UpdatedRows int64
	Gray        bool
}

// NewWriter authenticates with the service-account credentials file and
// returns a Writer.
func NewWriter(ctx context.Context, cfg Config, logger *slog.Logger) (*Writer, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	jwt, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWriterWithService(svc, cfg, logger), nil
}

// NewWriterWithService wraps an existing Sheets service.
func NewWriterWithService(svc *sheets.Service, cfg Config, logger *slog.Logger) *Writer {
	if cfg.RowsPerDay <= 0 {
		cfg.RowsPerDay = 1
	}
	return &Writer{
		svc:    svc,
		cfg:    cfg,
		logger: logger.With("component", "sheets"),
	}
}

// Append writes the header if missing, appends rows, and shades them.
// Appending no rows does nothing.
func (w *Writer) Append(ctx context.Context, rows [][]string) (AppendResult, error) {
	if len(rows) == 0 {
		return AppendResult{}, nil
	}

	if err := w.EnsureHeaders(ctx); err != nil {
		return AppendResult{}, err
	}

	res, err := w.AppendRows(ctx, rows)
	if err != nil {
		return AppendResult{}, err
	}

	if w.cfg.Coloring {
		shaded, err := w.ApplyAlternatingDayColors(ctx, res.StartRow, len(rows))
		if err != nil {
			return res, err
		}
		res.Gray = shaded
	}
	return res, nil
}

// EnsureHeaders writes the header row when A1:K1 is empty.
func (w *Writer) EnsureHeaders(ctx context.Context) error {
	resp, err := w.svc.Spreadsheets.Values.Get(w.cfg.SpreadsheetID, w.a1(headerRange)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	vr := &sheets.ValueRange{Values: toValues([][]string{report.Header()})}
	if _, err := w.svc.Spreadsheets.Values.Update(w.cfg.SpreadsheetID, w.a1(headerRange), vr).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	w.logger.Info("created header row", "spreadsheet_id", w.cfg.SpreadsheetID)
	return nil
}

// RowCount returns the number of populated cells in column A, counting the
// header row even when the sheet is blank.
func (w *Writer) RowCount(ctx context.Context) (int, error) {
	resp, err := w.svc.Spreadsheets.Values.Get(w.cfg.SpreadsheetID, w.a1(countRange)).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	if len(resp.Values) == 0 {
		return 1, nil
	}
	return len(resp.Values), nil
}

// AppendRows appends rows below the existing data and returns the 1-based row
// number of the first appended row.
func (w *Writer) AppendRows(ctx context.Context, rows [][]string) (AppendResult, error) {
	count, err := w.RowCount(ctx)
	if err != nil {
		return AppendResult{}, err
	}
	startRow := count + 1

	vr := &sheets.ValueRange{Values: toValues(rows)}
	resp, err := w.svc.Spreadsheets.Values.Append(w.cfg.SpreadsheetID, w.a1(appendRange), vr).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return AppendResult{}, fmt.Errorf("append rows: %w", err)
	}

	var updated int64
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRows
	}
	w.logger.Info("appended rows", "rows", updated, "start_row", startRow)

	return AppendResult{StartRow: startRow, UpdatedRows: updated}, nil
}

// ApplyAlternatingDayColors shades rows [startRow, startRow+n) across columns
// A-K and reports whether they were shaded gray.
func (w *Writer) ApplyAlternatingDayColors(ctx context.Context, startRow, n int) (bool, error) {
	gid, err := w.SheetID(ctx)
	if err != nil {
		return false, err
	}

	isGray := DayGroupIsGray(startRow, w.cfg.RowsPerDay)
	color := white
	if isGray {
		color = gray
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          gid,
					StartRowIndex:    int64(startRow - 1),
					EndRowIndex:      int64(startRow - 1 + n),
					StartColumnIndex: 0,
					EndColumnIndex:   int64(len(report.Columns)),
					ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{BackgroundColor: color},
				},
				Fields: backgroundMask,
			},
		}},
	}

	if _, err = w.svc.Spreadsheets.BatchUpdate(w.cfg.SpreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("apply row colors: %w", err)
	}

	colorName := "white"
	if isGray {
		colorName = "gray"
	}
	w.logger.Info("applied row background",
		"color", colorName,
		"first_row", startRow,
		"last_row", startRow+n-1,
	)
	return isGray, nil
}

// SheetID returns the numeric id of the target tab. A named tab is looked up
// in the spreadsheet metadata; SheetGID is used when no name is configured.
func (w *Writer) SheetID(ctx context.Context) (int64, error) {
	if w.cfg.SheetName == "" {
		return w.cfg.SheetGID, nil
	}

	ss, err := w.svc.Spreadsheets.Get(w.cfg.SpreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("read sheet metadata: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == w.cfg.SheetName {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet %s", w.cfg.SheetName, w.cfg.SpreadsheetID)
}

// DayGroupIsGray reports whether the day group starting at startRow is shaded.
// Row 2 starts group 0; odd groups are gray.
func DayGroupIsGray(startRow, rowsPerDay int) bool {
	if rowsPerDay <= 0 {
		rowsPerDay = 1
	}
	offset := startRow - 2
	if offset < 0 {
		offset = 0
	}
	return (offset/rowsPerDay)%2 == 1
}

func (w *Writer) a1(r string) string {
	if w.cfg.SheetName == "" {
		return r
	}
	return "'" + strings.ReplaceAll(w.cfg.SheetName, "'", "''") + "'!" + r
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		out[i] = vals
	}
	return out
}
