package config

import (
	"strings"
)

// Environment variable names.
const (
	EnvGeminiKey     = "GEMINI_API_KEY"
	EnvLineToken     = "LINE_CHANNEL_ACCESS_TOKEN"
	EnvSheetsKey     = "GOOGLE_SHEETS_API_KEY"
	EnvSpreadsheetID = "SPREADSHEET_ID"
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvPort          = "PORT"
	EnvLogLevel      = "LOG_LEVEL"
)

// ApplyEnv overlays non-empty environment values onto cfg.
// getenv is os.Getenv outside tests.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if cfg == nil || getenv == nil {
		return
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Generator.APIKey, EnvGeminiKey)
	set(&cfg.Line.ChannelAccessToken, EnvLineToken)
	set(&cfg.Sheets.APIKey, EnvSheetsKey)
	set(&cfg.Sheets.SpreadsheetID, EnvSpreadsheetID)
	set(&cfg.Telegram.Token, EnvTelegramToken)
	set(&cfg.Logging.Level, EnvLogLevel)
	if p := strings.TrimSpace(getenv(EnvPort)); p != "" {
		cfg.Server.Addr = ":" + p
	}
}

// Secret describes a credential without its value.
type Secret struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
	Length  int    `json:"length"`
}

// Secrets lists every credential by its environment name with presence and
// length only. Values never leave this function.
func (c *Config) Secrets() []Secret {
	if c == nil {
		c = &Config{}
	}
	mk := func(name, v string) Secret {
		v = strings.TrimSpace(v)
		return Secret{Name: name, Present: v != "", Length: len(v)}
	}
	return []Secret{
		mk(EnvGeminiKey, c.Generator.APIKey),
		mk(EnvLineToken, c.Line.ChannelAccessToken),
		mk(EnvSheetsKey, c.Sheets.APIKey),
		mk(EnvSpreadsheetID, c.Sheets.SpreadsheetID),
		mk(EnvTelegramToken, c.Telegram.Token),
	}
}
