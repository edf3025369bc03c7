package app

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"wisdombot/internal/config"
	"wisdombot/internal/generator"
	"wisdombot/internal/message"
	"wisdombot/internal/sheets"
	"wisdombot/internal/teaching"
	logx "wisdombot/pkg/logx"
)

// pipeline is one immutable set of selection collaborators.
type pipeline struct {
	sel  *message.Selector
	rows message.RowSource // nil when sheets are not configured
}

// livePipeline lets config reloads swap the selector without touching the
// dispatcher, HTTP handlers or bot commands that hold it.
type livePipeline struct {
	p atomic.Pointer[pipeline]
}

func (l *livePipeline) store(p *pipeline) { l.p.Store(p) }

func (l *livePipeline) Select(ctx context.Context, override string) message.Selection {
	return l.p.Load().sel.Select(ctx, override)
}

func (l *livePipeline) Run(ctx context.Context, chain []message.Tier, override string) (message.Selection, []message.Outcome) {
	return l.p.Load().sel.Run(ctx, chain, override)
}

func (l *livePipeline) Simple(ctx context.Context) (message.Selection, error) {
	return l.p.Load().sel.Simple(ctx)
}

func (l *livePipeline) Rows(ctx context.Context) ([][]string, error) {
	rows := l.p.Load().rows
	if rows == nil {
		return nil, fmt.Errorf("row source: %w", message.ErrNotConfigured)
	}
	return rows.Rows(ctx)
}

// buildPipeline wires the row source and generator that cfg has credentials
// for. Missing credentials only disable the matching tier.
func buildPipeline(ctx context.Context, cfg *config.Config, log logx.Logger) (*pipeline, error) {
	opt := message.Options{
		LinkBaseURL: cfg.Rotation.LinkBaseURL,
		Default:     cfg.DefaultMessage,
		Log:         log.With(logx.String("comp", "selector")),
	}
	if cfg.Rotation.IsEnabled() {
		opt.Rotation = teaching.Rotation()
	}

	p := &pipeline{}
	sc := sheets.Config{
		APIKey:        cfg.Sheets.APIKey,
		SpreadsheetID: cfg.Sheets.SpreadsheetID,
		Range:         cfg.Sheets.Range,
		Timeout:       duration("sheets.timeout", cfg.Sheets.Timeout, 10*time.Second),
		Endpoint:      cfg.Sheets.Endpoint,
	}
	if sc.Configured() {
		client, err := sheets.New(ctx, sc, log)
		if err != nil {
			return nil, err
		}
		p.rows = client
		opt.Rows = client
	} else {
		log.Info("sheets not configured; SHEET tier disabled")
	}

	if strings.TrimSpace(cfg.Generator.APIKey) != "" {
		gen, err := generator.New(ctx, generator.Config{
			APIKey:            cfg.Generator.APIKey,
			Model:             cfg.Generator.Model,
			SystemInstruction: message.SystemInstruction,
			Temperature:       cfg.Generator.Temperature,
			Timeout:           duration("generator.timeout", cfg.Generator.Timeout, 30*time.Second),
		}, log)
		if err != nil {
			return nil, err
		}
		opt.Generator = gen
	} else {
		log.Info("generator not configured; GENERATED tier disabled")
	}

	p.sel = message.New(opt)
	return p, nil
}

// duration parses a validated config duration. Config validation already
// rejected malformed values, so errors fall back to def.
func duration(path, raw string, def time.Duration) time.Duration {
	d, err := config.ParseDurationOrDefault(path, raw, def)
	if err != nil {
		return def
	}
	return d
}
