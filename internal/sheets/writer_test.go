package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/hostelctl/hostelctl/internal/common"
)

// fakeSheets is a minimal stand-in for the Sheets REST API.
type fakeSheets struct {
	tabs         map[string]int64
	updates      []*sheets.ValueRange
	clears       []string
	addedTabs    []string
	formatted    int
	failUpdates  int
	failStatus   int
	mu           sync.Mutex
	spreadsheets int
}

func newFakeSheets(t *testing.T, tabs map[string]int64) (*fakeSheets, *sheets.Service) {
	t.Helper()
	f := &fakeSheets{tabs: tabs}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return f, svc
}

func (f *fakeSheets) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/v4/spreadsheets"):
		var req sheets.Spreadsheet
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.spreadsheets++
		req.SpreadsheetId = "created-id"
		req.SpreadsheetUrl = "https://docs.example/created-id"
		req.Sheets[0].Properties.SheetId = 0
		_ = json.NewEncoder(w).Encode(req)

	case r.Method == http.MethodGet:
		resp := sheets.Spreadsheet{SpreadsheetId: "existing-id"}
		for title, id := range f.tabs {
			resp.Sheets = append(resp.Sheets, &sheets.Sheet{Properties: &sheets.SheetProperties{Title: title, SheetId: id}})
		}
		_ = json.NewEncoder(w).Encode(resp)

	case strings.HasSuffix(path, ":batchUpdate"):
		var req sheets.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := sheets.BatchUpdateSpreadsheetResponse{}
		if len(req.Requests) > 0 && req.Requests[0].AddSheet != nil {
			title := req.Requests[0].AddSheet.Properties.Title
			f.addedTabs = append(f.addedTabs, title)
			resp.Replies = []*sheets.Response{{AddSheet: &sheets.AddSheetResponse{
				Properties: &sheets.SheetProperties{Title: title, SheetId: 42},
			}}}
		} else {
			f.formatted++
		}
		_ = json.NewEncoder(w).Encode(resp)

	case strings.HasSuffix(path, ":clear"):
		f.clears = append(f.clears, path)
		_, _ = w.Write([]byte(`{}`))

	case r.Method == http.MethodPut:
		if f.failUpdates > 0 {
			f.failUpdates--
			status := f.failStatus
			if status == 0 {
				status = http.StatusServiceUnavailable
			}
			w.WriteHeader(status)
			_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"rejected"}}`, status)
			return
		}
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.updates = append(f.updates, &vr)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{UpdatedRows: int64(len(vr.Values))})

	default:
		http.NotFound(w, r)
	}
}

func testConfig() Config {
	c := DefaultConfig()
	c.ServiceAccountPath = "/unused.json"
	c.RetryDelay = time.Millisecond
	return c
}

func sampleRows(n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{"1", "Electricity", "1500.00"}
	}
	return rows
}

func TestWriteTable_CreatesSpreadsheet(t *testing.T) {
	fake, svc := newFakeSheets(t, nil)
	w := NewWriterWithService(testConfig(), svc, slog.Default())

	id, err := w.WriteTable(context.Background(), "Expenses", []string{"#", "Type", "Amount"}, sampleRows(3))
	require.NoError(t, err)
	assert.Equal(t, "created-id", id)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 1, fake.spreadsheets)
	require.Len(t, fake.updates, 1)
	assert.Len(t, fake.updates[0].Values, 4, "header plus rows")
	assert.Equal(t, "#", fake.updates[0].Values[0][0])
	assert.Len(t, fake.clears, 1)
	assert.Equal(t, 1, fake.formatted)
}

func TestWriteTable_ExistingSpreadsheet(t *testing.T) {
	tests := []struct {
		tabs      map[string]int64
		name      string
		wantAdded []string
	}{
		{name: "tab exists", tabs: map[string]int64{"Expenses": 3}},
		{name: "tab missing", tabs: map[string]int64{"Tenants": 1}, wantAdded: []string{"Expenses"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, svc := newFakeSheets(t, tt.tabs)
			cfg := testConfig()
			cfg.SpreadsheetID = "existing-id"
			w := NewWriterWithService(cfg, svc, nil)

			id, err := w.WriteTable(context.Background(), "Expenses", []string{"#"}, sampleRows(1))
			require.NoError(t, err)
			assert.Equal(t, "existing-id", id)

			fake.mu.Lock()
			defer fake.mu.Unlock()
			assert.Equal(t, 0, fake.spreadsheets)
			assert.Equal(t, tt.wantAdded, fake.addedTabs)
		})
	}
}

func TestWriteTable_Batches(t *testing.T) {
	fake, svc := newFakeSheets(t, nil)
	cfg := testConfig()
	cfg.BatchSize = 2
	cfg.EnableFormatting = false
	w := NewWriterWithService(cfg, svc, nil)

	_, err := w.WriteTable(context.Background(), "Rooms", []string{"#"}, sampleRows(4))
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.updates, 3)
	assert.Len(t, fake.updates[2].Values, 1)
	assert.Equal(t, 0, fake.formatted)
}

func TestWriteTable_RetriesFailedBatch(t *testing.T) {
	fake, svc := newFakeSheets(t, nil)
	fake.failUpdates = 1
	w := NewWriterWithService(testConfig(), svc, nil)

	_, err := w.WriteTable(context.Background(), "Beds", []string{"#"}, sampleRows(2))
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Len(t, fake.updates, 1)
}

func TestWriteTable_GivesUpAfterRetries(t *testing.T) {
	fake, svc := newFakeSheets(t, nil)
	fake.failUpdates = 10
	cfg := testConfig()
	cfg.RetryAttempts = 2
	w := NewWriterWithService(cfg, svc, nil)

	_, err := w.WriteTable(context.Background(), "Beds", []string{"#"}, sampleRows(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write batch starting at row 1")
}

func TestWriteTable_ClientErrorNotRetried(t *testing.T) {
	fake, svc := newFakeSheets(t, nil)
	fake.failUpdates = 5
	fake.failStatus = http.StatusBadRequest
	cfg := testConfig()
	cfg.RetryAttempts = 3
	w := NewWriterWithService(cfg, svc, nil)

	_, err := w.WriteTable(context.Background(), "Beds", []string{"#"}, sampleRows(2))
	require.Error(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 4, fake.failUpdates, "a 400 is attempted once")
}

func TestRetryable(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, retryable(plain))
	assert.NoError(t, retryable(nil))

	err := retryable(&googleapi.Error{Code: http.StatusTooManyRequests})
	assert.ErrorIs(t, err, common.ErrRateLimit)

	var re *common.RetryableError
	require.ErrorAs(t, retryable(&googleapi.Error{Code: http.StatusNotFound}), &re)
	assert.False(t, re.Retryable)

	assert.False(t, errors.As(retryable(&googleapi.Error{Code: http.StatusBadGateway}), &re))
}

func TestTableValues(t *testing.T) {
	values := tableValues([]string{"Name", "Notes"}, [][]string{{"Asha", "=SUM(A1:A2)"}})
	require.Len(t, values, 2)
	assert.Equal(t, []any{"Name", "Notes"}, values[0])
	assert.Equal(t, []any{"Asha", "'=SUM(A1:A2)"}, values[1])
}

func TestTabRange(t *testing.T) {
	assert.Equal(t, "'Rent Payments'!A1", tabRange("Rent Payments", "A1"))
	assert.Equal(t, "'Owner''s'!A:Z", tabRange("Owner's", "A:Z"))
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

	require.NoError(t, SaveToken(path, token))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", loaded.RefreshToken)

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
