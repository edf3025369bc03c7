// Package telegram connects the bot to Telegram: it serves the subscriber
// commands over long polling and sends broadcast texts to single chats.
package telegram

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	logx "wisdombot/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
	// URL overrides the Bot API endpoint. Tests point it at a local server.
	URL string
	// Offline skips the getMe call on construction.
	Offline bool
}

// Adapter owns the telebot instance.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot

	sent atomic.Uint64
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "telegram"))
	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.URL,
		Token:   cfg.Token,
		Poller:  &tele.LongPoller{Timeout: timeout},
		Offline: cfg.Offline,
		OnError: func(err error, c tele.Context) {
			log.Warn("telegram handler error", logx.Err(err))
		},
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

// Run polls for updates until ctx is cancelled. It returns an error if
// polling stops on its own so a restart loop can bring it back.
func (a *Adapter) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.log.Info("polling started")
		a.bot.Start()
		a.log.Info("polling stopped")
	}()

	select {
	case <-done:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.New("telegram polling exited")
	case <-ctx.Done():
	}

	go a.bot.Stop()
	// Keep shutdown snappy even if getUpdates is still waiting.
	t := time.NewTimer(2 * time.Second)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		a.log.Warn("telegram stop timed out")
	}
	return ctx.Err()
}

const textLimit = 4000

// SendText delivers text to one chat, split into chunks Telegram accepts.
func (a *Adapter) SendText(ctx context.Context, chatID int64, text string) error {
	chat := &tele.Chat{ID: chatID}
	for _, chunk := range splitText(text, textLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := a.bot.Send(chat, chunk, &tele.SendOptions{DisableWebPagePreview: true}); err != nil {
			return err
		}
		a.sent.Add(1)
	}
	return nil
}

// Sent is the number of messages delivered since start.
func (a *Adapter) Sent() uint64 { return a.sent.Load() }

// splitText splits s into chunks of at most limit runes, preferring newline
// boundaries in the last two thirds of each window.
func splitText(s string, limit int) []string {
	if limit <= 0 {
		limit = textLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := min(start+limit, len(rs))
		if end < len(rs) {
			for i := end - 1; i > start+limit/3; i-- {
				if rs[i] == '\n' {
					end = i + 1
					break
				}
			}
		}
		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))
		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}
