package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"expensetracker/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
)

// fakeSheets serves the two Values endpoints the exporter calls.
type fakeSheets struct {
	mu       sync.Mutex
	rows     [][]any
	appended []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		var values [][]any
		if len(f.rows) > 0 {
			values = f.rows[:1]
		}
		json.NewEncoder(w).Encode(map[string]any{"range": "Expenses!A1:A1", "values": values})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		f.appended = append(f.appended, r.URL.Path)
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		start := len(f.rows) + 1
		f.rows = append(f.rows, body.Values...)
		json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": "sheet-1",
			"updates": map[string]any{
				"updatedRange": "Expenses!A" + strconv.Itoa(start) + ":I" + strconv.Itoa(len(f.rows)),
				"updatedRows":  len(body.Values),
			},
		})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestExportAppendsHeaderThenRows(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	p := core.Project{ID: 3, Name: "Kitchen"}
	added := time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)
	expenses := []core.Expense{
		{ID: 1, ProjectID: 3, ReceiptImagePath: "receipts/a.jpeg", DateAdded: added,
			ExpenseDetails: core.ExpenseDetails{StoreName: "Hardware", TotalAmount: &core.Money{Cents: 4599}, Currency: "USD"}},
		{ID: 2, ProjectID: 3, ReceiptImagePath: "receipts/b.png", DateAdded: added},
	}

	ref, err := c.Export(ctx, p, expenses)
	require.NoError(t, err)
	assert.Equal(t, "Expenses!A1:I3", ref)
	require.Len(t, fake.rows, 3)
	assert.Equal(t, "Project", fake.rows[0][0])
	assert.Equal(t, "45.99", fake.rows[1][4])

	ref, err = c.Export(ctx, p, expenses[:1])
	require.NoError(t, err)
	assert.Equal(t, "Expenses!A4:I4", ref)
	assert.Len(t, fake.rows, 4)
	assert.Len(t, fake.appended, 2)
}

func TestExportReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1", SheetName: "2024 Expenses"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.Export(context.Background(), core.Project{ID: 1}, []core.Expense{{ID: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024 Expenses")
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, "missing spreadsheet id", err.Error())
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet-1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestNewReadsCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet-1", CredentialsFile: "/nonexistent/key.json"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}
