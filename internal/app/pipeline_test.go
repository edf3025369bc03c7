package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wisdombot/internal/config"
	"wisdombot/internal/message"
	logx "wisdombot/pkg/logx"
)

func TestBuildPipelineTagsComponentsOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"A1:B2","majorDimension":"ROWS","values":[["日付","メッセージ"],["毎週","weekly note"]]}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Sheets.APIKey = "k"
	cfg.Sheets.SpreadsheetID = "sheet-1"
	cfg.Sheets.Endpoint = srv.URL + "/"

	var buf bytes.Buffer
	p, err := buildPipeline(context.Background(), cfg, logx.NewWriter(&buf, "debug"))
	if err != nil {
		t.Fatal(err)
	}
	sel := p.sel.Select(context.Background(), "")
	if sel.Tier != message.TierSheet || sel.Text != "weekly note" {
		t.Fatalf("selection = %+v", sel)
	}

	var sawSheets bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if n := strings.Count(line, `"comp":`); n > 1 {
			t.Fatalf("comp key repeated %d times: %s", n, line)
		}
		if strings.Contains(line, `"comp":"sheets"`) {
			sawSheets = true
		}
	}
	if !sawSheets {
		t.Fatalf("no sheets log line in:\n%s", buf.String())
	}
}
