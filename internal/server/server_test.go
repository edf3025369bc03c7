package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wisdombot/internal/broadcast"
	"wisdombot/internal/config"
	"wisdombot/internal/message"
	"wisdombot/internal/teaching"
	logx "wisdombot/pkg/logx"
)

type fakeDispatcher struct {
	got  []string
	res  broadcast.Result
	err  error
	call int
}

func (f *fakeDispatcher) Dispatch(_ context.Context, override string) (broadcast.Result, error) {
	f.call++
	f.got = append(f.got, override)
	return f.res, f.err
}

type fakeRows struct {
	rows [][]string
	err  error
}

func (f fakeRows) Rows(context.Context) ([][]string, error) { return f.rows, f.err }

type fakeGen struct {
	text string
	err  error
}

func (f fakeGen) Generate(context.Context, string) (string, error) { return f.text, f.err }

func fixedNow() time.Time { return time.Date(2025, 3, 10, 0, 0, 0, 0, message.JST) }

func newTestServer(t *testing.T, opt Options) *Server {
	t.Helper()
	if opt.Preview == nil {
		opt.Preview = message.New(message.Options{Now: fixedNow, Log: logx.Nop()})
	}
	opt.DebugEndpoints = true
	s, err := New(opt)
	require.NoError(t, err)
	return s
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestLiveness(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	rec := do(s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, LivenessText, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestBroadcastSuccess(t *testing.T) {
	t.Parallel()
	d := &fakeDispatcher{res: broadcast.Result{Status: "success", Message: broadcast.SuccessMessage, Content: "hello", Tier: message.TierCustom}}
	s := newTestServer(t, Options{Dispatcher: d})

	rec := do(s, http.MethodPost, "/broadcast", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "success", got["status"])
	require.Equal(t, "hello", got["content"])
	require.Equal(t, "CUSTOM", got["tier"])
	require.Equal(t, []string{"hello"}, d.got)
}

func TestBroadcastEmptyBodyAllowed(t *testing.T) {
	t.Parallel()
	d := &fakeDispatcher{res: broadcast.Result{Status: "success"}}
	s := newTestServer(t, Options{Dispatcher: d})

	rec := do(s, http.MethodPost, "/broadcast", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{""}, d.got)
}

func TestBroadcastMalformedJSON(t *testing.T) {
	t.Parallel()
	d := &fakeDispatcher{}
	s := newTestServer(t, Options{Dispatcher: d})

	rec := do(s, http.MethodPost, "/broadcast", "{invalid")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"error"`)
	require.Zero(t, d.call)
}

func TestBroadcastWithoutChannelFails(t *testing.T) {
	t.Parallel()
	sel := message.New(message.Options{Now: fixedNow, Rotation: teaching.Rotation(), Log: logx.Nop()})
	s := newTestServer(t, Options{Dispatcher: broadcast.NewDispatcher(sel, nil, nil, logx.Nop())})

	rec := do(s, http.MethodPost, "/broadcast", `{}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "error", got["status"])
	require.Contains(t, got["message"], broadcast.ErrNoChannel.Error())
}

func TestBroadcastDeliveryError(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{Dispatcher: &fakeDispatcher{err: errors.New("line: 401 unauthorized")}})
	rec := do(s, http.MethodPost, "/broadcast", `{"message":"x"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "401 unauthorized")
}

func TestBlog(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})

	rec := do(s, http.MethodGet, "/blog/chudo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<h1>中道</h1>")
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = do(s, http.MethodGet, "/blog/doesnotexist", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not found", strings.TrimSpace(rec.Body.String()))

	rec = do(s, http.MethodGet, "/blog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, e := range teaching.All() {
		require.Contains(t, rec.Body.String(), `href="/blog/`+e.Key+`"`)
	}
}

func TestDebugEnvRedactsValues(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Generator.APIKey = "gemini-super-secret"
	cfg.Line.ChannelAccessToken = "line-super-secret"
	cfg.Sheets.SpreadsheetID = "sheet-id-secret"
	s := newTestServer(t, Options{Secrets: cfg.Secrets})

	rec := do(s, http.MethodGet, "/debug-env", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "GEMINI_API_KEY exists: true")
	require.Contains(t, body, "GEMINI_API_KEY length: 19")
	require.Contains(t, body, "TELEGRAM_BOT_TOKEN exists: false")
	for _, secret := range []string{"gemini-super-secret", "line-super-secret", "sheet-id-secret"} {
		require.NotContains(t, body, secret)
	}
}

func TestTestWisdomChain(t *testing.T) {
	t.Parallel()
	sheet := fakeRows{rows: [][]string{{"日付", "メッセージ"}, {"03月10日", "今日の言葉"}}}
	prev := message.New(message.Options{Rows: sheet, Now: fixedNow, Log: logx.Nop()})
	s := newTestServer(t, Options{Preview: prev})

	rec := do(s, http.MethodGet, "/test-wisdom", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Body.String(), "[DEBUG]\n"))
	require.Contains(t, rec.Body.String(), "[スプレッドシートから取得]\n今日の言葉")

	prev = message.New(message.Options{Generator: fakeGen{text: "生成文"}, Now: fixedNow, Log: logx.Nop()})
	s = newTestServer(t, Options{Preview: prev})
	rec = do(s, http.MethodGet, "/test-wisdom", "")
	require.Contains(t, rec.Body.String(), "[AI生成]\n生成文")

	prev = message.New(message.Options{Generator: fakeGen{err: errors.New("quota")}, Now: fixedNow, Log: logx.Nop()})
	s = newTestServer(t, Options{Preview: prev})
	rec = do(s, http.MethodGet, "/test-wisdom", "")
	require.Contains(t, rec.Body.String(), "[デフォルトメッセージ]\n"+message.DefaultText)
	require.Contains(t, rec.Body.String(), "quota")
}

func TestTestSimpleWisdom(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	rec := do(s, http.MethodGet, "/test-simple-wisdom", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, message.SimpleDefaultText, rec.Body.String())

	prev := message.New(message.Options{Generator: fakeGen{text: "三行"}, Now: fixedNow, Log: logx.Nop()})
	s = newTestServer(t, Options{Preview: prev})
	rec = do(s, http.MethodGet, "/test-simple-wisdom", "")
	require.Equal(t, "[AI生成テスト]\n三行", rec.Body.String())

	prev = message.New(message.Options{Generator: fakeGen{err: errors.New("boom")}, Now: fixedNow, Log: logx.Nop()})
	s = newTestServer(t, Options{Preview: prev})
	rec = do(s, http.MethodGet, "/test-simple-wisdom", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "boom")
}

func TestTestSheets(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	rec := do(s, http.MethodGet, "/test-sheets", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, sheetsNotConfigured, rec.Body.String())

	s = newTestServer(t, Options{Rows: fakeRows{rows: [][]string{{"日付", "メッセージ"}, {"毎週", "weekly"}}}})
	rec = do(s, http.MethodGet, "/test-sheets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "スプレッドシートの内容:\n行1: ['日付', 'メッセージ']\n行2: ['毎週', 'weekly']\n", rec.Body.String())

	s = newTestServer(t, Options{Rows: fakeRows{}})
	rec = do(s, http.MethodGet, "/test-sheets", "")
	require.Equal(t, sheetsEmpty, rec.Body.String())

	s = newTestServer(t, Options{Rows: fakeRows{err: fmt.Errorf("row source: %w", message.ErrNotConfigured)}})
	rec = do(s, http.MethodGet, "/test-sheets", "")
	require.Equal(t, sheetsNotConfigured, rec.Body.String())

	s = newTestServer(t, Options{Rows: fakeRows{err: errors.New("403")}})
	rec = do(s, http.MethodGet, "/test-sheets", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDebugEndpointsDisabled(t *testing.T) {
	t.Parallel()
	s, err := New(Options{Log: logx.Nop()})
	require.NoError(t, err)
	for _, path := range []string{"/test-wisdom", "/test-simple-wisdom", "/debug-env", "/test-sheets"} {
		require.Equal(t, http.StatusNotFound, do(s, http.MethodGet, path, "").Code, path)
	}
	require.Equal(t, http.StatusOK, do(s, http.MethodGet, "/", "").Code)
}

func TestBroadcastPartialDeliveryReportsChannels(t *testing.T) {
	t.Parallel()
	d := &fakeDispatcher{
		res: broadcast.Result{Status: "error", Delivered: []string{"line"}, Failed: []string{"telegram"}},
		err: errors.New("broadcast: telegram: 1 of 2 chats failed (delivered: line)"),
	}
	s := newTestServer(t, Options{Dispatcher: d})

	rec := do(s, http.MethodPost, "/broadcast", `{}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var got struct {
		Status    string   `json:"status"`
		Message   string   `json:"message"`
		Delivered []string `json:"delivered"`
		Failed    []string `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "error", got.Status)
	require.Equal(t, []string{"line"}, got.Delivered)
	require.Equal(t, []string{"telegram"}, got.Failed)
	require.Contains(t, got.Message, "telegram")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	_ = do(s, http.MethodGet, "/", "")
	rec := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	s := newTestServer(t, Options{Log: logx.NewWriter(&buf, "info")})
	s.router.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("kaboom") })

	rec := do(s, http.MethodGet, "/panic", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, buf.String(), "panic recovered")

	// The recovered 500 still shows up in the request metrics.
	body := do(s, http.MethodGet, "/metrics", "").Body.String()
	require.Contains(t, body, `http_request_duration_seconds_count{method="GET",route="/panic"}`)
	require.Contains(t, body, `http_requests_total{code="500",method="GET"}`)
}

func TestRequestIDPropagation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "lb-1234")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, "lb-1234", rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", maxRequestIDLen+1))
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	got := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, got)
	require.Len(t, got, 36, "oversized ids are replaced with a uuid")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serveListener(ctx, ln, ListenConfig{ShutdownTimeout: time.Second}) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
