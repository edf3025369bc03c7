package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "wisdombot/pkg/logx"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{
		APIKey:        "test-key",
		SpreadsheetID: "sheet-123",
		Timeout:       5 * time.Second,
		Endpoint:      srv.URL + "/",
	}, logx.Nop())
	require.NoError(t, err)
	return c
}

func TestRowsConvertsCells(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v4/spreadsheets/sheet-123/values/A:B"), r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"range": "Sheet1!A1:B4",
			"majorDimension": "ROWS",
			"values": [["日付", "メッセージ"], ["毎週", "weekly note"], [20250310, true], ["Mon"]]
		}`))
	}))

	rows, err := c.Rows(context.Background())
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"日付", "メッセージ"},
		{"毎週", "weekly note"},
		{"20250310", "true"},
		{"Mon"},
	}, rows)
}

func TestRowsEmptySheet(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range": "Sheet1!A1:B1", "majorDimension": "ROWS"}`))
	}))

	rows, err := c.Rows(context.Background())
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestRowsPropagatesAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "The caller does not have permission", "status": "PERMISSION_DENIED"}}`))
	}))

	_, err := c.Rows(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{APIKey: "k"}, logx.Nop())
	require.Error(t, err)
	require.False(t, Config{SpreadsheetID: "x"}.Configured())
	require.True(t, Config{APIKey: "k", SpreadsheetID: "x"}.Configured())
}
