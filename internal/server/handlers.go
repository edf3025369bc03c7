package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"wisdombot/internal/config"
	"wisdombot/internal/message"
	logx "wisdombot/pkg/logx"
)

const maxBodyBytes = 64 << 10

// Diagnostic texts.
const (
	sheetsNotConfigured = "Google Sheets設定が不足しています"
	sheetsEmpty         = "スプレッドシートにデータがありません"
	sheetsHeader        = "スプレッドシートの内容:\n"
	envHeader           = "環境変数デバッグ情報:\n"
)

var tierLabels = map[message.Tier]string{
	message.TierSheet:     "[スプレッドシートから取得]",
	message.TierGenerated: "[AI生成]",
	message.TierDefault:   "[デフォルトメッセージ]",
}

type broadcastRequest struct {
	Message string `json:"message"`
}

func errorBody(msg string) map[string]string {
	return map[string]string{"status": "error", "message": msg}
}

func (s *Server) liveness(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, LivenessText)
}

func (s *Server) broadcast(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("request body too large"))
		return
	}
	var req broadcastRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON"))
			return
		}
	}
	if s.opt.Dispatcher == nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("broadcast not configured"))
		return
	}

	res, err := s.opt.Dispatcher.Dispatch(r.Context(), req.Message)
	if err != nil {
		if len(res.Delivered) > 0 {
			// Partial delivery: tell the caller which channels already got it.
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"status":    "error",
				"message":   err.Error(),
				"delivered": res.Delivered,
				"failed":    res.Failed,
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// testWisdom previews the SHEET, GENERATED, DEFAULT chain. The header shows
// generator key presence and length only.
func (s *Server) testWisdom(w http.ResponseWriter, r *http.Request) {
	sel, outcomes := s.opt.Preview.Run(r.Context(), message.PreviewChain, "")

	var b strings.Builder
	b.WriteString("[DEBUG]\n")
	key := s.secret(config.EnvGeminiKey)
	fmt.Fprintf(&b, "%s exists: %t\n", key.Name, key.Present)
	fmt.Fprintf(&b, "%s length: %d\n", key.Name, key.Length)
	for _, o := range outcomes {
		if o.OK() {
			fmt.Fprintf(&b, "%s: ok\n", o.Tier)
			continue
		}
		fmt.Fprintf(&b, "%s: %v\n", o.Tier, o.Err)
	}
	b.WriteString("\n")
	b.WriteString(tierLabels[sel.Tier])
	b.WriteString("\n")
	b.WriteString(sel.Text)
	writeText(w, http.StatusOK, b.String())
}

func (s *Server) testSimpleWisdom(w http.ResponseWriter, r *http.Request) {
	sel, err := s.opt.Preview.Simple(r.Context())
	if err != nil {
		s.log.Warn("simple preview failed", logx.Err(err))
		writeText(w, http.StatusInternalServerError, "エラー: "+err.Error())
		return
	}
	if sel.Tier == message.TierGenerated {
		writeText(w, http.StatusOK, "[AI生成テスト]\n"+sel.Text)
		return
	}
	writeText(w, http.StatusOK, sel.Text)
}

// debugEnv reports which secrets are set. Values are never printed.
func (s *Server) debugEnv(w http.ResponseWriter, _ *http.Request) {
	var b strings.Builder
	b.WriteString(envHeader)
	for _, sec := range s.opt.Secrets() {
		fmt.Fprintf(&b, "%s exists: %t\n", sec.Name, sec.Present)
		fmt.Fprintf(&b, "%s length: %d\n\n", sec.Name, sec.Length)
	}
	writeText(w, http.StatusOK, b.String())
}

func (s *Server) testSheets(w http.ResponseWriter, r *http.Request) {
	if s.opt.Rows == nil {
		writeText(w, http.StatusInternalServerError, sheetsNotConfigured)
		return
	}
	rows, err := s.opt.Rows.Rows(r.Context())
	if errors.Is(err, message.ErrNotConfigured) {
		writeText(w, http.StatusInternalServerError, sheetsNotConfigured)
		return
	}
	if err != nil {
		s.log.Warn("row source failed", logx.Err(err))
		writeText(w, http.StatusInternalServerError, "API Error: "+err.Error())
		return
	}
	if len(rows) == 0 {
		writeText(w, http.StatusOK, sheetsEmpty)
		return
	}
	var b strings.Builder
	b.WriteString(sheetsHeader)
	for i, row := range rows {
		fmt.Fprintf(&b, "行%d: %s\n", i+1, formatRow(row))
	}
	writeText(w, http.StatusOK, b.String())
}

func (s *Server) secret(name string) config.Secret {
	for _, sec := range s.opt.Secrets() {
		if sec.Name == name {
			return sec
		}
	}
	return config.Secret{Name: name}
}

// formatRow renders cells as ['a', 'b'].
func formatRow(row []string) string {
	quoted := make([]string, len(row))
	for i, c := range row {
		quoted[i] = "'" + strings.ReplaceAll(c, "'", `\'`) + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
