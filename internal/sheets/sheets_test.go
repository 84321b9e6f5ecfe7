package sheets

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const testSpreadsheetID = "sheet-123"

// fakeSheets serves the subset of the Sheets v4 REST API the Writer uses and
// keeps column A in memory.
type fakeSheets struct {
	mu       sync.Mutex
	rows     [][]interface{}
	requests []string
	batches  []sheets.BatchUpdateSpreadsheetRequest
	fail     string
	// tabs are returned by the spreadsheet metadata request.
	tabs []*sheets.SheetProperties
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := "/v4/spreadsheets/" + testSpreadsheetID
	path := strings.TrimPrefix(r.URL.Path, prefix)
	f.requests = append(f.requests, r.Method+" "+path)
	for _, tab := range f.tabs {
		path = strings.Replace(path, "'"+tab.Title+"'!", "", 1)
	}

	if f.fail != "" && strings.Contains(path, f.fail) {
		http.Error(w, `{"error":{"code":500,"message":"backend error"}}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && path == "":
		ss := sheets.Spreadsheet{SpreadsheetId: testSpreadsheetID}
		for _, tab := range f.tabs {
			ss.Sheets = append(ss.Sheets, &sheets.Sheet{Properties: tab})
		}
		_ = json.NewEncoder(w).Encode(ss)
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/values/A1:K1"):
		var vals [][]interface{}
		if len(f.rows) > 0 {
			vals = f.rows[:1]
		}
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: vals})
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/values/A:A"):
		vals := make([][]interface{}, 0, len(f.rows))
		for _, row := range f.rows {
			vals = append(vals, row[:1])
		}
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: vals})
	case r.Method == http.MethodPut && strings.HasSuffix(path, "/values/A1:K1"):
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		if r.URL.Query().Get("valueInputOption") != "RAW" {
			http.Error(w, "bad option", http.StatusBadRequest)
			return
		}
		f.rows = append(vr.Values, f.rows...)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{UpdatedRows: 1})
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/values/A:K:append"):
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		q := r.URL.Query()
		if q.Get("valueInputOption") != "RAW" || q.Get("insertDataOption") != "INSERT_ROWS" {
			http.Error(w, "bad option", http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, vr.Values...)
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{
			Updates: &sheets.UpdateValuesResponse{UpdatedRows: int64(len(vr.Values))},
		})
	case r.Method == http.MethodPost && path == ":batchUpdate":
		var req sheets.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.batches = append(f.batches, req)
		_ = json.NewEncoder(w).Encode(sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: testSpreadsheetID})
	default:
		http.Error(w, "unexpected request "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}
}

func newTestWriter(t *testing.T, fake *fakeSheets, cfg Config) *Writer {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	cfg.SpreadsheetID = testSpreadsheetID
	return NewWriterWithService(svc, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testRows(n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{"2025-01-05", "Station", "1.0", "2.0", "0.5", "3.0", "8.0", "N", "0.10", "-", ""}
	}
	return rows
}

func TestWriter_Append_EmptySheet(t *testing.T) {
	fake := &fakeSheets{}
	w := newTestWriter(t, fake, Config{RowsPerDay: 2, Coloring: true})

	res, err := w.Append(context.Background(), testRows(2))
	require.NoError(t, err)

	assert.Equal(t, 2, res.StartRow)
	assert.Equal(t, int64(2), res.UpdatedRows)
	assert.False(t, res.Gray)
	require.Len(t, fake.rows, 3)
	assert.Equal(t, "Date", fake.rows[0][0])

	require.Len(t, fake.batches, 1)
	rc := fake.batches[0].Requests[0].RepeatCell
	require.NotNil(t, rc)
	assert.Equal(t, int64(1), rc.Range.StartRowIndex)
	assert.Equal(t, int64(3), rc.Range.EndRowIndex)
	assert.Equal(t, int64(11), rc.Range.EndColumnIndex)
	assert.Equal(t, "userEnteredFormat.backgroundColor", rc.Fields)
	assert.Equal(t, 1.0, rc.Cell.UserEnteredFormat.BackgroundColor.Red)
}

func TestWriter_Append_SecondDayIsGray(t *testing.T) {
	fake := &fakeSheets{}
	w := newTestWriter(t, fake, Config{RowsPerDay: 2, Coloring: true})

	_, err := w.Append(context.Background(), testRows(2))
	require.NoError(t, err)
	res, err := w.Append(context.Background(), testRows(2))
	require.NoError(t, err)

	assert.Equal(t, 4, res.StartRow)
	assert.True(t, res.Gray)
	require.Len(t, fake.batches, 2)
	assert.Equal(t, 0.95, fake.batches[1].Requests[0].RepeatCell.Cell.UserEnteredFormat.BackgroundColor.Red)

	// The header is only written once.
	var puts int
	for _, r := range fake.requests {
		if strings.HasPrefix(r, http.MethodPut) {
			puts++
		}
	}
	assert.Equal(t, 1, puts)
}

func TestWriter_Append_NoColoring(t *testing.T) {
	fake := &fakeSheets{}
	w := newTestWriter(t, fake, Config{RowsPerDay: 2})

	_, err := w.Append(context.Background(), testRows(1))
	require.NoError(t, err)
	assert.Empty(t, fake.batches)
}

func TestWriter_Append_NoRows(t *testing.T) {
	fake := &fakeSheets{}
	w := newTestWriter(t, fake, Config{Coloring: true})

	res, err := w.Append(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, AppendResult{}, res)
	assert.Empty(t, fake.requests)
}

func TestWriter_Append_Error(t *testing.T) {
	fake := &fakeSheets{fail: ":append"}
	w := newTestWriter(t, fake, Config{Coloring: true})

	_, err := w.Append(context.Background(), testRows(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append rows")
	assert.Empty(t, fake.batches)
}

func TestWriter_RowCount_BlankSheet(t *testing.T) {
	w := newTestWriter(t, &fakeSheets{}, Config{})

	n, err := w.RowCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDayGroupIsGray(t *testing.T) {
	tests := []struct {
		startRow, perDay int
		want             bool
	}{
		{2, 6, false},
		{8, 6, true},
		{14, 6, false},
		{20, 6, true},
		{2, 2, false},
		{4, 2, true},
		{6, 2, false},
		{1, 2, false},
		{5, 0, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DayGroupIsGray(tt.startRow, tt.perDay), "row=%d perDay=%d", tt.startRow, tt.perDay)
	}
}

func TestWriter_A1(t *testing.T) {
	w := &Writer{cfg: Config{SheetName: "Pass Log"}}
	assert.Equal(t, "'Pass Log'!A:K", w.a1("A:K"))

	w = &Writer{cfg: Config{SheetName: "Bob's"}}
	assert.Equal(t, "'Bob''s'!A1:K1", w.a1("A1:K1"))

	w = &Writer{}
	assert.Equal(t, "A:A", w.a1("A:A"))
}

func TestWriter_Append_ColoringFailureKeepsStartRow(t *testing.T) {
	fake := &fakeSheets{fail: ":batchUpdate"}
	w := newTestWriter(t, fake, Config{RowsPerDay: 2, Coloring: true})

	res, err := w.Append(context.Background(), testRows(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply row colors")
	assert.Equal(t, 2, res.StartRow)
	assert.Equal(t, int64(2), res.UpdatedRows)
	assert.Len(t, fake.rows, 3)
}

func TestWriter_Append_NamedTabUsesItsSheetID(t *testing.T) {
	fake := &fakeSheets{tabs: []*sheets.SheetProperties{
		{SheetId: 0, Title: "Sheet1"},
		{SheetId: 777, Title: "Pass Log"},
	}}
	w := newTestWriter(t, fake, Config{SheetName: "Pass Log", SheetGID: 0, RowsPerDay: 2, Coloring: true})

	res, err := w.Append(context.Background(), testRows(2))
	require.NoError(t, err)
	assert.Equal(t, 2, res.StartRow)

	require.Len(t, fake.batches, 1)
	assert.Equal(t, int64(777), fake.batches[0].Requests[0].RepeatCell.Range.SheetId)
}

func TestWriter_SheetID(t *testing.T) {
	fake := &fakeSheets{tabs: []*sheets.SheetProperties{{SheetId: 12, Title: "Daily"}}}

	w := newTestWriter(t, fake, Config{SheetGID: 5})
	gid, err := w.SheetID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), gid)

	w = newTestWriter(t, fake, Config{SheetName: "Daily"})
	gid, err = w.SheetID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), gid)

	w = newTestWriter(t, fake, Config{SheetName: "Missing"})
	_, err = w.SheetID(context.Background())
	assert.ErrorContains(t, err, `"Missing" not found`)
}
