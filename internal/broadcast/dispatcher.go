package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wisdombot/internal/message"
	"wisdombot/internal/observability/metrics"
	"wisdombot/internal/storage"
	logx "wisdombot/pkg/logx"
)

// SuccessMessage is the fixed message of a successful Result.
const SuccessMessage = "Buddhist wisdom broadcast sent"

// Selector picks the text to send.
type Selector interface {
	Select(ctx context.Context, override string) message.Selection
}

// AuditSink records dispatch attempts. storage.Store satisfies it.
type AuditSink interface {
	AppendAudit(ctx context.Context, e storage.AuditEntry) error
}

type Result struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Content string       `json:"content"`
	Tier    message.Tier `json:"tier"`
	// Delivered and Failed are set when a Fanout failed on some channels.
	Delivered []string `json:"delivered,omitempty"`
	Failed    []string `json:"failed,omitempty"`
}

type Dispatcher struct {
	sel   Selector
	ch    Channel
	audit AuditSink
	log   logx.Logger
	now   func() time.Time
}

// NewDispatcher wires a selector to a channel. A nil channel makes every
// dispatch fail with ErrNoChannel; a nil audit sink disables auditing.
func NewDispatcher(sel Selector, ch Channel, audit AuditSink, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{sel: sel, ch: ch, audit: audit, log: log.With(logx.String("comp", "dispatcher")), now: time.Now}
}

// Dispatch selects the day's text and broadcasts it once. Selection always
// completes before delivery starts. Delivery errors are returned wrapped
// alongside a Result naming the channels that did get the text;
// there is no retry and no dedup at this level.
func (d *Dispatcher) Dispatch(ctx context.Context, override string) (Result, error) {
	start := d.now()
	sel := d.sel.Select(ctx, override)

	err := d.deliver(ctx, sel.Text)
	took := d.now().Sub(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ObserveBroadcast(sel.Tier.String(), status)
	d.appendAudit(ctx, sel, err, took)

	if err != nil {
		res := Result{Status: status, Message: err.Error(), Content: sel.Text, Tier: sel.Tier}
		var de *DeliveryError
		if errors.As(err, &de) {
			res.Delivered, res.Failed = de.Delivered, de.Failed
		}
		d.log.Error("broadcast failed",
			logx.String("tier", sel.Tier.String()),
			logx.String("delivered", strings.Join(res.Delivered, ",")),
			logx.Duration("took", took),
			logx.Err(err),
		)
		return res, fmt.Errorf("broadcast: %w", err)
	}
	d.log.Info("broadcast sent", logx.String("tier", sel.Tier.String()), logx.String("channels", d.channelName()), logx.Duration("took", took))
	return Result{Status: status, Message: SuccessMessage, Content: sel.Text, Tier: sel.Tier}, nil
}

func (d *Dispatcher) deliver(ctx context.Context, text string) error {
	if d.ch == nil {
		return ErrNoChannel
	}
	return d.ch.Broadcast(ctx, text)
}

func (d *Dispatcher) channelName() string {
	if d.ch == nil {
		return ""
	}
	return d.ch.Name()
}

func (d *Dispatcher) appendAudit(ctx context.Context, sel message.Selection, err error, took time.Duration) {
	if d.audit == nil {
		return
	}
	e := storage.AuditEntry{
		At:       d.now(),
		Tier:     sel.Tier.String(),
		Content:  sel.Text,
		Channels: d.channelName(),
		OK:       err == nil,
		TookMS:   took.Milliseconds(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	// The caller's context may already be cancelled; the audit write should still land.
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if aerr := d.audit.AppendAudit(actx, e); aerr != nil {
		d.log.Warn("audit append failed", logx.Err(aerr))
	}
}
