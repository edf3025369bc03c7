// Package broadcast delivers the daily message to subscribers.
//
// A Dispatcher selects the text and hands it to a Channel. Channels wrap one
// messaging backend each (LINE, Telegram); Fanout combines several.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wisdombot/internal/observability/metrics"
)

// ErrNoChannel is returned when no delivery channel is configured.
var ErrNoChannel = errors.New("no broadcast channel configured")

// Channel pushes one text message to all of its subscribers.
type Channel interface {
	Name() string
	Broadcast(ctx context.Context, text string) error
}

// DeliveryError reports a Fanout where at least one channel failed.
// Delivered lists the channels that did receive the text, so a caller can
// tell a partial failure from a total one and avoid resending to them.
type DeliveryError struct {
	Delivered []string
	Failed    []string
	Err       error
}

func (e *DeliveryError) Error() string {
	if len(e.Delivered) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (delivered: %s)", e.Err, strings.Join(e.Delivered, ","))
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Partial reports whether some channel succeeded.
func (e *DeliveryError) Partial() bool { return len(e.Delivered) > 0 }

// Fanout delivers to every channel in order. One channel failing does not
// stop the others; failures come back as a *DeliveryError.
type Fanout []Channel

func (f Fanout) Name() string {
	names := make([]string, 0, len(f))
	for _, c := range f {
		names = append(names, c.Name())
	}
	return strings.Join(names, ",")
}

func (f Fanout) Broadcast(ctx context.Context, text string) error {
	if len(f) == 0 {
		return ErrNoChannel
	}
	var (
		errs              []error
		delivered, failed []string
	)
	for _, c := range f {
		err := c.Broadcast(ctx, text)
		metrics.ObserveChannelSend(c.Name(), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			failed = append(failed, c.Name())
			continue
		}
		delivered = append(delivered, c.Name())
	}
	if len(errs) == 0 {
		return nil
	}
	return &DeliveryError{Delivered: delivered, Failed: failed, Err: errors.Join(errs...)}
}
