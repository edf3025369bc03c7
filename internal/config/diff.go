package config

import (
	"sort"
	"strings"

	logx "wisdombot/pkg/logx"
)

// SummarizeConfigChange returns the changed top-level sections and safe
// attributes for logging. Credentials are reported as *_set booleans only.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	set := func(s string) bool { return strings.TrimSpace(s) != "" }

	changed := make([]string, 0, 8)
	attrs := make([]logx.Field, 0, 16)

	if oldCfg.Server.Addr != newCfg.Server.Addr ||
		oldCfg.Server.DebugEnabled() != newCfg.Server.DebugEnabled() ||
		oldCfg.Server.Pprof != newCfg.Server.Pprof ||
		oldCfg.Server.ReadTimeout != newCfg.Server.ReadTimeout ||
		oldCfg.Server.WriteTimeout != newCfg.Server.WriteTimeout ||
		oldCfg.Server.ShutdownTimeout != newCfg.Server.ShutdownTimeout {
		changed = append(changed, "server")
		attrs = append(attrs,
			logx.String("server.addr", newCfg.Server.Addr),
			logx.Bool("server.debug_endpoints", newCfg.Server.DebugEnabled()),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Sheets.SpreadsheetID != newCfg.Sheets.SpreadsheetID ||
		oldCfg.Sheets.APIKey != newCfg.Sheets.APIKey ||
		oldCfg.Sheets.Range != newCfg.Sheets.Range ||
		oldCfg.Sheets.Timeout != newCfg.Sheets.Timeout ||
		oldCfg.Sheets.Endpoint != newCfg.Sheets.Endpoint {
		changed = append(changed, "sheets")
		attrs = append(attrs,
			logx.Bool("sheets.api_key_set", set(newCfg.Sheets.APIKey)),
			logx.Bool("sheets.spreadsheet_set", set(newCfg.Sheets.SpreadsheetID)),
			logx.String("sheets.range", newCfg.Sheets.Range),
		)
	}

	if oldCfg.Generator != newCfg.Generator {
		changed = append(changed, "generator")
		attrs = append(attrs,
			logx.Bool("generator.api_key_set", set(newCfg.Generator.APIKey)),
			logx.String("generator.model", newCfg.Generator.Model),
		)
	}

	if oldCfg.Line != newCfg.Line {
		changed = append(changed, "line")
		attrs = append(attrs, logx.Bool("line.token_set", set(newCfg.Line.ChannelAccessToken)))
	}

	if oldCfg.Telegram != newCfg.Telegram {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.token_set", set(newCfg.Telegram.Token)),
			logx.Int("telegram.workers", newCfg.Telegram.Workers),
			logx.Int("telegram.rate_per_sec", newCfg.Telegram.RatePerSec),
		)
	}

	if oldCfg.Rotation.IsEnabled() != newCfg.Rotation.IsEnabled() ||
		oldCfg.Rotation.LinkBaseURL != newCfg.Rotation.LinkBaseURL ||
		oldCfg.DefaultMessage != newCfg.DefaultMessage {
		changed = append(changed, "rotation")
		attrs = append(attrs,
			logx.Bool("rotation.enabled", newCfg.Rotation.IsEnabled()),
			logx.Bool("rotation.link_set", set(newCfg.Rotation.LinkBaseURL)),
			logx.Bool("default_message_set", set(newCfg.DefaultMessage)),
		)
	}

	if oldCfg.Scheduler != newCfg.Scheduler {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Bool("scheduler.enabled", newCfg.Scheduler.Enabled),
			logx.String("scheduler.timezone", newCfg.Scheduler.Timezone),
			logx.String("scheduler.broadcast", newCfg.Scheduler.Broadcast),
		)
	}

	if oldCfg.Storage != newCfg.Storage {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", newCfg.Storage.Driver),
			logx.Bool("storage.path_set", set(newCfg.Storage.Path)),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

// NeedsRestart reports whether any of the sections can only take effect
// after a process restart.
func NeedsRestart(sections []string) bool {
	for _, s := range sections {
		switch s {
		case "server", "line", "telegram", "scheduler", "storage":
			return true
		}
	}
	return false
}
