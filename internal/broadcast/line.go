package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	logx "wisdombot/pkg/logx"
)

type LineConfig struct {
	ChannelAccessToken string
	// Endpoint overrides https://api.line.me. Tests point it at a local server.
	Endpoint string
	Timeout  time.Duration
}

// LineChannel broadcasts to every friend of the LINE official account.
type LineChannel struct {
	api     *messaging_api.MessagingApiAPI
	timeout time.Duration
	log     logx.Logger
}

func NewLine(cfg LineConfig, log logx.Logger) (*LineChannel, error) {
	token := strings.TrimSpace(cfg.ChannelAccessToken)
	if token == "" {
		return nil, errors.New("line: channel access token is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	var opts []messaging_api.MessagingApiAPIOption
	if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
		opts = append(opts, messaging_api.WithEndpoint(ep))
	}
	api, err := messaging_api.NewMessagingApiAPI(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("line: new client: %w", err)
	}
	return &LineChannel{api: api, timeout: cfg.Timeout, log: log.With(logx.String("comp", "line"))}, nil
}

func (c *LineChannel) Name() string { return "line" }

// Broadcast sends exactly one text message. It is not retried.
func (c *LineChannel) Broadcast(ctx context.Context, text string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req := &messaging_api.BroadcastRequest{
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	}
	start := time.Now()
	if _, err := c.api.WithContext(ctx).Broadcast(req, ""); err != nil {
		return err
	}
	c.log.Info("line broadcast sent", logx.Duration("took", time.Since(start)))
	return nil
}
