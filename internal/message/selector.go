package message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wisdombot/internal/observability/metrics"
	"wisdombot/internal/teaching"
	logx "wisdombot/pkg/logx"
)

// RowSource returns raw rows (header first) of the configured range.
type RowSource interface {
	Rows(ctx context.Context) ([][]string, error)
}

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PreviewChain is the diagnostics chain behind /test-wisdom.
var PreviewChain = []Tier{TierSheet, TierGenerated, TierDefault}

type Options struct {
	// Rows and Generator may be nil; their tiers then fall through.
	Rows      RowSource
	Generator Generator

	// Rotation is the daily list. Empty disables the rotation tier.
	Rotation []teaching.Daily
	// LinkBaseURL, when set, appends a link to the teaching's article.
	LinkBaseURL string

	// Default overrides DefaultText when non-blank.
	Default string

	Now func() time.Time
	Log logx.Logger
}

// Selector picks the day's message. It holds no mutable state.
type Selector struct {
	rows     RowSource
	gen      Generator
	rotation []teaching.Daily
	linkBase string
	def      string
	now      func() time.Time
	log      logx.Logger
}

func New(opt Options) *Selector {
	if opt.Log.IsZero() {
		opt.Log = logx.Nop()
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	def := opt.Default
	if strings.TrimSpace(def) == "" {
		def = DefaultText
	}
	return &Selector{
		rows:     opt.Rows,
		gen:      opt.Generator,
		rotation: append([]teaching.Daily(nil), opt.Rotation...),
		linkBase: strings.TrimRight(strings.TrimSpace(opt.LinkBaseURL), "/"),
		def:      def,
		now:      opt.Now,
		log:      opt.Log,
	}
}

// Chain returns the broadcast tier chain. ROTATION is left out when the
// rotation list is empty, which makes GENERATED reachable.
func (s *Selector) Chain() []Tier {
	if len(s.rotation) == 0 {
		return []Tier{TierCustom, TierSheet, TierGenerated, TierDefault}
	}
	return []Tier{TierCustom, TierSheet, TierRotation, TierGenerated, TierDefault}
}

// Select runs the broadcast chain.
func (s *Selector) Select(ctx context.Context, override string) Selection {
	sel, _ := s.Run(ctx, s.Chain(), override)
	return sel
}

// Run evaluates chain in order and stops at the first tier with content.
// The returned outcomes hold one entry per evaluated tier. If every tier in
// chain falls through, the default text is used.
func (s *Selector) Run(ctx context.Context, chain []Tier, override string) (Selection, []Outcome) {
	now := s.now()
	outcomes := make([]Outcome, 0, len(chain))

	for _, tier := range chain {
		text, err := s.evaluate(ctx, tier, override, now)
		outcomes = append(outcomes, Outcome{Tier: tier, Text: text, Err: err})
		if err == nil {
			s.log.Info("message selected", logx.String("tier", tier.String()), logx.Int("runes", len([]rune(text))))
			return Selection{Text: text, Tier: tier}, outcomes
		}
		s.noteFallthrough(tier, err)
	}

	outcomes = append(outcomes, Outcome{Tier: TierDefault, Text: s.def})
	return Selection{Text: s.def, Tier: TierDefault}, outcomes
}

func (s *Selector) noteFallthrough(tier Tier, err error) {
	metrics.ObserveFallthrough(tier.String())
	fields := []logx.Field{logx.String("tier", tier.String()), logx.Err(err)}
	switch {
	case tier == TierCustom:
		s.log.Debug("no override supplied", fields...)
	case errors.Is(err, ErrNoMatch), errors.Is(err, ErrNotConfigured):
		s.log.Info("tier fell through", fields...)
	default:
		s.log.Warn("tier failed; falling through", fields...)
	}
}

func (s *Selector) evaluate(ctx context.Context, tier Tier, override string, now time.Time) (string, error) {
	switch tier {
	case TierCustom:
		if override == "" {
			return "", ErrEmpty
		}
		return override, nil
	case TierSheet:
		return s.fromSheet(ctx, now)
	case TierRotation:
		return s.fromRotation(now)
	case TierGenerated:
		return s.generate(ctx, WisdomPrompt(KeysFor(now).Full))
	case TierDefault:
		return s.def, nil
	default:
		return "", fmt.Errorf("unknown tier %d", int(tier))
	}
}

func (s *Selector) fromSheet(ctx context.Context, now time.Time) (string, error) {
	if s.rows == nil {
		return "", fmt.Errorf("row source: %w", ErrNotConfigured)
	}
	rows, err := s.rows.Rows(ctx)
	if err != nil {
		return "", fmt.Errorf("row source: %w", err)
	}
	msg, ok := MatchRows(rows, KeysFor(now))
	if !ok {
		return "", ErrNoMatch
	}
	return msg, nil
}

func (s *Selector) fromRotation(now time.Time) (string, error) {
	idx := RotationIndex(now, len(s.rotation))
	if idx < 0 {
		return "", fmt.Errorf("rotation: %w", ErrNotConfigured)
	}
	d := s.rotation[idx]
	text := strings.TrimSpace(d.Text)
	if text == "" {
		return "", fmt.Errorf("rotation[%d]: %w", idx, ErrEmpty)
	}
	if s.linkBase != "" {
		text += "\n\n詳しくはこちら: " + s.linkBase + "/blog/" + d.Key
	}
	s.log.Debug("rotation entry chosen", logx.Int("index", idx), logx.Int("day_of_year", now.In(JST).YearDay()), logx.String("key", d.Key))
	return text, nil
}

func (s *Selector) generate(ctx context.Context, prompt string) (string, error) {
	if s.gen == nil {
		return "", fmt.Errorf("generator: %w", ErrNotConfigured)
	}
	out, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generator: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("generator: %w", ErrEmpty)
	}
	return out, nil
}

// Simple asks the generator for the plain three-line message. Without a
// generator it returns SimpleDefaultText; generator errors are returned.
func (s *Selector) Simple(ctx context.Context) (Selection, error) {
	if s.gen == nil {
		return Selection{Text: SimpleDefaultText, Tier: TierDefault}, nil
	}
	text, err := s.generate(ctx, SimplePrompt(KeysFor(s.now()).Full))
	if err != nil {
		return Selection{}, err
	}
	return Selection{Text: text, Tier: TierGenerated}, nil
}

// HasRows reports whether a row source is wired.
func (s *Selector) HasRows() bool { return s.rows != nil }

// HasGenerator reports whether a generator is wired.
func (s *Selector) HasGenerator() bool { return s.gen != nil }
