package broadcast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	logx "wisdombot/pkg/logx"
)

// TextSender delivers one text to one chat.
type TextSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// SubscriberSource lists the chats a broadcast goes to.
type SubscriberSource interface {
	Subscribers(ctx context.Context) ([]int64, error)
}

type TelegramConfig struct {
	Workers    int
	RatePerSec int
	RetryMax   int
	// RetryBase is the first retry delay; each further attempt adds another
	// RetryBase/2. Zero means 200ms.
	RetryBase time.Duration
}

// Report summarises one Telegram fan-out.
type Report struct {
	Total    int
	Failed   int
	Failures []int64
	Took     time.Duration
}

// TelegramChannel sends the text to every subscribed chat.
type TelegramChannel struct {
	sender TextSender
	subs   SubscriberSource
	cfg    TelegramConfig

	limiter *rate.Limiter
	log     logx.Logger

	mu   sync.Mutex
	last Report
}

func NewTelegram(sender TextSender, subs SubscriberSource, cfg TelegramConfig, log logx.Logger) *TelegramChannel {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	var lim *rate.Limiter
	if cfg.RatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	return &TelegramChannel{
		sender:  sender,
		subs:    subs,
		cfg:     cfg,
		limiter: lim,
		log:     log.With(logx.String("comp", "telegram-broadcast")),
	}
}

func (c *TelegramChannel) Name() string { return "telegram" }

// LastReport returns the summary of the most recent Broadcast.
func (c *TelegramChannel) LastReport() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.last
	r.Failures = append([]int64(nil), r.Failures...)
	return r
}

// Broadcast sends text to all subscribers. Zero subscribers is not an error.
// Any failed chat makes the whole call fail with the failed count.
func (c *TelegramChannel) Broadcast(ctx context.Context, text string) error {
	targets, err := c.subs.Subscribers(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}
	start := time.Now()
	if len(targets) == 0 {
		c.log.Warn("no telegram subscribers; nothing sent")
		c.record(Report{})
		return nil
	}
	c.log.Info("telegram broadcast started", logx.Int("total", len(targets)), logx.Int("workers", c.cfg.Workers))

	queue := make(chan int64)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []int64
	)
	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chatID := range queue {
				if err := c.sendOne(ctx, chatID, text); err != nil {
					mu.Lock()
					failures = append(failures, chatID)
					mu.Unlock()
				}
			}
		}()
	}
feed:
	for _, t := range targets {
		select {
		case <-ctx.Done():
			break feed
		case queue <- t:
		}
	}
	close(queue)
	wg.Wait()

	rep := Report{Total: len(targets), Failed: len(failures), Failures: failures, Took: time.Since(start)}
	c.record(rep)

	if err := ctx.Err(); err != nil {
		return err
	}
	fields := []logx.Field{
		logx.Int("total", rep.Total),
		logx.Int("failed", rep.Failed),
		logx.Duration("dur", rep.Took),
	}
	if rep.Failed > 0 {
		c.log.Warn("telegram broadcast finished with failures", fields...)
		return fmt.Errorf("telegram: %d of %d chats failed", rep.Failed, rep.Total)
	}
	c.log.Info("telegram broadcast finished", fields...)
	return nil
}

func (c *TelegramChannel) record(r Report) {
	c.mu.Lock()
	c.last = r
	c.mu.Unlock()
}

func (c *TelegramChannel) sendOne(ctx context.Context, chatID int64, text string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	retry := c.cfg.RetryMax
	var last error
	for i := 0; i <= retry; i++ {
		err := c.sender.SendText(ctx, chatID, text)
		if err == nil {
			return nil
		}
		last = err
		if i == retry {
			break
		}
		delay := c.cfg.RetryBase + time.Duration(i)*c.cfg.RetryBase/2
		c.log.Debug("telegram send retry scheduled", logx.Int64("chat_id", chatID), logx.Int("attempt", i+2), logx.Duration("delay", delay), logx.Err(err))
		tmr := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			if !tmr.Stop() {
				<-tmr.C
			}
			return ctx.Err()
		case <-tmr.C:
		}
	}
	c.log.Warn("telegram send failed", logx.Int64("chat_id", chatID), logx.Err(last))
	return last
}
