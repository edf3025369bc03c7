package config

// Config is the whole runtime configuration. It is read from an optional
// JSON or YAML file and then overlaid with environment variables.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Server    ServerConfig    `json:"server"`
	Logging   LoggingConfig   `json:"logging"`
	Sheets    SheetsConfig    `json:"sheets"`
	Generator GeneratorConfig `json:"generator"`
	Line      LineConfig      `json:"line"`
	Telegram  TelegramConfig  `json:"telegram"`
	Rotation  RotationConfig  `json:"rotation"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Storage   StorageConfig   `json:"storage"`

	// DefaultMessage replaces the built-in last-resort text when non-blank.
	DefaultMessage string `json:"default_message,omitempty"`
}

// ServerConfig controls the HTTP listener.
//
// DebugEndpoints is a pointer so an omitted value keeps the default (true).
type ServerConfig struct {
	Addr            string `json:"addr"`
	ReadTimeout     string `json:"read_timeout,omitempty"`
	WriteTimeout    string `json:"write_timeout,omitempty"`
	ShutdownTimeout string `json:"shutdown_timeout,omitempty"`
	DebugEndpoints  *bool  `json:"debug_endpoints,omitempty"`
	// Pprof mounts /debug/pprof on the main router.
	Pprof bool `json:"pprof,omitempty"`
}

func (s ServerConfig) DebugEnabled() bool { return s.DebugEndpoints == nil || *s.DebugEndpoints }

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SheetsConfig configures the spreadsheet row source.
// APIKey and SpreadsheetID usually come from the environment.
type SheetsConfig struct {
	APIKey        string `json:"api_key,omitempty"`
	SpreadsheetID string `json:"spreadsheet_id,omitempty"`
	Range         string `json:"range,omitempty"`
	Timeout       string `json:"timeout,omitempty"`
	// Endpoint overrides the Sheets API base URL (proxies, emulators).
	Endpoint string `json:"endpoint,omitempty"`
}

type GeneratorConfig struct {
	APIKey      string  `json:"api_key,omitempty"`
	Model       string  `json:"model,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	Timeout     string  `json:"timeout,omitempty"`
}

type LineConfig struct {
	ChannelAccessToken string `json:"channel_access_token,omitempty"`
	Timeout            string `json:"timeout,omitempty"`
}

// TelegramConfig enables the Telegram bot when Token is set.
// Broadcasting to Telegram subscribers needs storage.
type TelegramConfig struct {
	Token       string `json:"token,omitempty"`
	PollTimeout string `json:"poll_timeout,omitempty"`
	Workers     int    `json:"workers,omitempty"`
	RatePerSec  int    `json:"rate_per_sec,omitempty"`
	RetryMax    int    `json:"retry_max,omitempty"`
}

// RotationConfig controls the static daily rotation tier.
// Enabled is a pointer so an omitted value keeps the default (true).
type RotationConfig struct {
	Enabled     *bool  `json:"enabled,omitempty"`
	LinkBaseURL string `json:"link_base_url,omitempty"`
}

func (r RotationConfig) IsEnabled() bool { return r.Enabled == nil || *r.Enabled }

// SchedulerConfig controls the optional in-process broadcast trigger.
type SchedulerConfig struct {
	Enabled   bool   `json:"enabled"`
	Timezone  string `json:"timezone,omitempty"`
	Broadcast string `json:"broadcast,omitempty"` // cron, duration or HH:MM
	Timeout   string `json:"timeout,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/wisdombot.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":5000",
			ReadTimeout:     "15s",
			WriteTimeout:    "60s",
			ShutdownTimeout: "10s",
		},
		Logging: LoggingConfig{Level: "info", Console: true},
		Sheets:  SheetsConfig{Range: "A:B", Timeout: "10s"},
		Generator: GeneratorConfig{
			Model:   "gemini-2.0-flash",
			Timeout: "30s",
		},
		Line:     LineConfig{Timeout: "15s"},
		Telegram: TelegramConfig{PollTimeout: "10s", Workers: 2, RatePerSec: 20, RetryMax: 2},
		Scheduler: SchedulerConfig{
			Timezone:  "Asia/Tokyo",
			Broadcast: "0 7 * * *",
			Timeout:   "2m",
		},
		Storage: StorageConfig{Driver: "none"},
	}
}
