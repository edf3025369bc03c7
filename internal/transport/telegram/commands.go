package telegram

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	"wisdombot/internal/message"
	logx "wisdombot/pkg/logx"
)

// Subscriptions is the part of storage the commands need.
type Subscriptions interface {
	AddSubscriber(ctx context.Context, chatID int64) (bool, error)
	RemoveSubscriber(ctx context.Context, chatID int64) (bool, error)
}

// Previewer selects today's text without sending it.
type Previewer interface {
	Select(ctx context.Context, override string) message.Selection
}

const (
	replySubscribed      = "購読を開始しました。毎朝、仏教の智慧をお届けします 🙏"
	replyAlreadySubbed   = "すでに購読しています。"
	replyUnsubscribed    = "購読を停止しました。またいつでも /start でどうぞ。"
	replyNotSubscribed   = "購読していません。/start で購読できます。"
	replyStorageDisabled = "購読機能は現在利用できません。"
	replyFailed          = "処理に失敗しました。しばらくしてからお試しください。"
	replyHelp            = "/start 購読する\n/stop 購読をやめる\n/today 今日のメッセージを見る"
)

// Commands implements the bot's chat commands.
type Commands struct {
	subs    Subscriptions
	preview Previewer
	timeout time.Duration
	log     logx.Logger
}

// NewCommands builds the handlers. subs may be nil when storage is disabled.
func NewCommands(subs Subscriptions, preview Previewer, timeout time.Duration, log logx.Logger) *Commands {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Commands{subs: subs, preview: preview, timeout: timeout, log: log.With(logx.String("comp", "telegram.commands"))}
}

// Bind registers the handlers and the command menu on the adapter's bot.
func (c *Commands) Bind(a *Adapter) {
	a.bot.Handle("/start", c.wrap(a, c.Start))
	a.bot.Handle("/stop", c.wrap(a, c.Stop))
	a.bot.Handle("/today", c.wrap(a, c.Today))
	a.bot.Handle("/help", c.wrap(a, func(context.Context, int64) string { return replyHelp }))

	if a.cfg.Offline {
		return
	}
	if err := a.bot.SetCommands([]tele.Command{
		{Text: "start", Description: "購読する"},
		{Text: "stop", Description: "購読をやめる"},
		{Text: "today", Description: "今日のメッセージ"},
		{Text: "help", Description: "使い方"},
	}); err != nil {
		c.log.Warn("set commands failed", logx.Err(err))
	}
}

func (c *Commands) wrap(a *Adapter, fn func(ctx context.Context, chatID int64) string) tele.HandlerFunc {
	return func(tc tele.Context) error {
		chat := tc.Chat()
		if chat == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		return a.SendText(ctx, chat.ID, fn(ctx, chat.ID))
	}
}

// Start subscribes chatID.
func (c *Commands) Start(ctx context.Context, chatID int64) string {
	if c.subs == nil {
		return replyStorageDisabled
	}
	added, err := c.subs.AddSubscriber(ctx, chatID)
	if err != nil {
		c.log.Error("subscribe failed", logx.Int64("chat_id", chatID), logx.Err(err))
		return replyFailed
	}
	if !added {
		return replyAlreadySubbed
	}
	c.log.Info("chat subscribed", logx.Int64("chat_id", chatID))
	return replySubscribed
}

// Stop unsubscribes chatID.
func (c *Commands) Stop(ctx context.Context, chatID int64) string {
	if c.subs == nil {
		return replyStorageDisabled
	}
	removed, err := c.subs.RemoveSubscriber(ctx, chatID)
	if err != nil {
		c.log.Error("unsubscribe failed", logx.Int64("chat_id", chatID), logx.Err(err))
		return replyFailed
	}
	if !removed {
		return replyNotSubscribed
	}
	c.log.Info("chat unsubscribed", logx.Int64("chat_id", chatID))
	return replyUnsubscribed
}

// Today replies with the text a broadcast would send now.
func (c *Commands) Today(ctx context.Context, chatID int64) string {
	sel := c.preview.Select(ctx, "")
	c.log.Debug("today previewed", logx.Int64("chat_id", chatID), logx.String("tier", sel.Tier.String()))
	return sel.Text
}
