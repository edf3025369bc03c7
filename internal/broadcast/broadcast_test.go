package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisdombot/internal/message"
	"wisdombot/internal/storage"
	logx "wisdombot/pkg/logx"
)

type fixedSelector struct {
	sel       message.Selection
	overrides []string
}

func (f *fixedSelector) Select(_ context.Context, override string) message.Selection {
	f.overrides = append(f.overrides, override)
	if override != "" {
		return message.Selection{Text: override, Tier: message.TierCustom}
	}
	return f.sel
}

type recordingChannel struct {
	name  string
	err   error
	texts []string
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Broadcast(_ context.Context, text string) error {
	c.texts = append(c.texts, text)
	return c.err
}

type auditRecorder struct {
	entries []storage.AuditEntry
	err     error
}

func (a *auditRecorder) AppendAudit(_ context.Context, e storage.AuditEntry) error {
	a.entries = append(a.entries, e)
	return a.err
}

func TestDispatchSuccess(t *testing.T) {
	sel := &fixedSelector{sel: message.Selection{Text: "rotation text", Tier: message.TierRotation}}
	ch := &recordingChannel{name: "line"}
	audit := &auditRecorder{}
	d := NewDispatcher(sel, ch, audit, logx.Nop())

	res, err := d.Dispatch(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, Result{Status: "success", Message: SuccessMessage, Content: "rotation text", Tier: message.TierRotation}, res)
	require.Equal(t, []string{"rotation text"}, ch.texts)

	require.Len(t, audit.entries, 1)
	require.True(t, audit.entries[0].OK)
	require.Equal(t, "ROTATION", audit.entries[0].Tier)
	require.Equal(t, "line", audit.entries[0].Channels)
}

func TestDispatchOverride(t *testing.T) {
	sel := &fixedSelector{}
	ch := &recordingChannel{name: "line"}
	d := NewDispatcher(sel, ch, nil, logx.Nop())

	res, err := d.Dispatch(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "hello", res.Content)
	require.Equal(t, message.TierCustom, res.Tier)
	require.Equal(t, []string{"hello"}, ch.texts)
}

func TestDispatchResultJSON(t *testing.T) {
	b, err := json.Marshal(Result{Status: "success", Message: SuccessMessage, Content: "x", Tier: message.TierSheet})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"success","message":"Buddhist wisdom broadcast sent","content":"x","tier":"SHEET"}`, string(b))
}

func TestDispatchDeliveryFailure(t *testing.T) {
	sel := &fixedSelector{sel: message.Selection{Text: "t", Tier: message.TierDefault}}
	ch := &recordingChannel{name: "line", err: errors.New("unexpected status code: 401")}
	audit := &auditRecorder{err: errors.New("disk full")}
	d := NewDispatcher(sel, ch, audit, logx.Nop())

	_, err := d.Dispatch(context.Background(), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")

	require.Len(t, audit.entries, 1)
	require.False(t, audit.entries[0].OK)
	require.Contains(t, audit.entries[0].Error, "401")
}

func TestDispatchWithoutChannel(t *testing.T) {
	d := NewDispatcher(&fixedSelector{sel: message.Selection{Text: "t", Tier: message.TierDefault}}, nil, nil, logx.Nop())
	_, err := d.Dispatch(context.Background(), "")
	require.ErrorIs(t, err, ErrNoChannel)

	d = NewDispatcher(&fixedSelector{sel: message.Selection{Text: "t", Tier: message.TierDefault}}, Fanout(nil), nil, logx.Nop())
	_, err = d.Dispatch(context.Background(), "")
	require.ErrorIs(t, err, ErrNoChannel)
}

func TestFanoutJoinsErrors(t *testing.T) {
	ok := &recordingChannel{name: "line"}
	bad := &recordingChannel{name: "telegram", err: errors.New("2 of 3 chats failed")}
	f := Fanout{bad, ok}

	err := f.Broadcast(context.Background(), "msg")
	require.Error(t, err)
	require.Contains(t, err.Error(), "telegram: 2 of 3 chats failed")
	require.Equal(t, []string{"msg"}, ok.texts, "a failing channel must not stop the others")
	require.Equal(t, "telegram,line", f.Name())
}

func TestDispatchPartialDelivery(t *testing.T) {
	sel := &fixedSelector{sel: message.Selection{Text: "rotation text", Tier: message.TierRotation}}
	line := &recordingChannel{name: "line"}
	tg := &recordingChannel{name: "telegram", err: errors.New("1 of 2 chats failed")}
	d := NewDispatcher(sel, Fanout{line, tg}, nil, logx.Nop())

	res, err := d.Dispatch(context.Background(), "")
	require.Error(t, err)

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	require.True(t, de.Partial())
	require.Contains(t, err.Error(), "delivered: line")

	require.Equal(t, "error", res.Status)
	require.Equal(t, []string{"line"}, res.Delivered)
	require.Equal(t, []string{"telegram"}, res.Failed)
	require.Equal(t, "rotation text", res.Content)
}

func TestFanoutTotalFailureIsNotPartial(t *testing.T) {
	f := Fanout{
		&recordingChannel{name: "line", err: errors.New("401")},
		&recordingChannel{name: "telegram", err: errors.New("timeout")},
	}
	err := f.Broadcast(context.Background(), "msg")

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	require.False(t, de.Partial())
	require.Empty(t, de.Delivered)
	require.Equal(t, []string{"line", "telegram"}, de.Failed)
	require.NotContains(t, err.Error(), "delivered")
}

type fakeSender struct {
	mu       sync.Mutex
	failures map[int64]int // remaining failures per chat
	sent     map[int64]int
	attempts map[int64]int
}

func newFakeSender(failures map[int64]int) *fakeSender {
	return &fakeSender{failures: failures, sent: map[int64]int{}, attempts: map[int64]int{}}
}

func (f *fakeSender) SendText(_ context.Context, chatID int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[chatID]++
	if f.failures[chatID] > 0 {
		f.failures[chatID]--
		return errors.New("telegram: Too Many Requests")
	}
	f.sent[chatID]++
	return nil
}

type staticSubs []int64

func (s staticSubs) Subscribers(context.Context) ([]int64, error) { return s, nil }

func TestTelegramRetriesThenSucceeds(t *testing.T) {
	sender := newFakeSender(map[int64]int{2: 2})
	ch := NewTelegram(sender, staticSubs{1, 2, 3}, TelegramConfig{Workers: 2, RetryMax: 2, RetryBase: time.Millisecond}, logx.Nop())

	require.NoError(t, ch.Broadcast(context.Background(), "hi"))
	require.Equal(t, 3, sender.attempts[2])
	require.Equal(t, map[int64]int{1: 1, 2: 1, 3: 1}, sender.sent)

	rep := ch.LastReport()
	require.Equal(t, 3, rep.Total)
	require.Zero(t, rep.Failed)
}

func TestTelegramReportsFailedTargets(t *testing.T) {
	sender := newFakeSender(map[int64]int{3: 10})
	ch := NewTelegram(sender, staticSubs{1, 3}, TelegramConfig{RetryMax: 1, RetryBase: time.Millisecond}, logx.Nop())

	err := ch.Broadcast(context.Background(), "hi")
	require.EqualError(t, err, "telegram: 1 of 2 chats failed")
	require.Equal(t, 2, sender.attempts[3])

	rep := ch.LastReport()
	require.Equal(t, []int64{3}, rep.Failures)
}

func TestTelegramNoSubscribers(t *testing.T) {
	sender := newFakeSender(nil)
	ch := NewTelegram(sender, storage.NewMemory(), TelegramConfig{}, logx.Nop())
	require.NoError(t, ch.Broadcast(context.Background(), "hi"))
	require.Empty(t, sender.attempts)
}

func TestLineBroadcastRequest(t *testing.T) {
	var got struct {
		Messages []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/bot/message/broadcast", r.URL.Path)
		assert.Equal(t, "Bearer line-token", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ch, err := NewLine(LineConfig{ChannelAccessToken: "line-token", Endpoint: srv.URL, Timeout: 5 * time.Second}, logx.Nop())
	require.NoError(t, err)
	require.NoError(t, ch.Broadcast(context.Background(), "おはようございます。"))

	require.Len(t, got.Messages, 1)
	require.Equal(t, "text", got.Messages[0].Type)
	require.Equal(t, "おはようございます。", got.Messages[0].Text)
}

func TestLineBroadcastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Authentication failed"}`))
	}))
	defer srv.Close()

	ch, err := NewLine(LineConfig{ChannelAccessToken: "bad", Endpoint: srv.URL}, logx.Nop())
	require.NoError(t, err)
	err = ch.Broadcast(context.Background(), "x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}

func TestNewLineRequiresToken(t *testing.T) {
	_, err := NewLine(LineConfig{}, logx.Nop())
	require.Error(t, err)
}
