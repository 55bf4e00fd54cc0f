// Package mailqueue enqueues verification emails for the external mail relay.
package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"authsvc/internal/domain"
	"authsvc/internal/events"
	"authsvc/internal/observability/metrics"
	"authsvc/internal/observability/middleware"
	"authsvc/internal/service"

	"github.com/sethvargo/go-retry"
)

var _ service.EmailDispatcher = (*Dispatcher)(nil)

// Publisher delivers one message body to a named durable queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
	Backend() string
}

type Config struct {
	Queue    string        // e.g. "email_queue"
	Timeout  time.Duration // per attempt
	Attempts uint64        // total attempts, at least 1
	Backoff  time.Duration // base of the exponential backoff
}

type Dispatcher struct {
	pub Publisher
	cfg Config
}

func NewDispatcher(pub Publisher, cfg Config) *Dispatcher {
	if cfg.Attempts == 0 {
		cfg.Attempts = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 100 * time.Millisecond
	}
	return &Dispatcher{pub: pub, cfg: cfg}
}

// Dispatch publishes mail, retrying with exponential backoff. Attempts run
// one after another so messages for one account keep their order. Any
// failure, including a timeout, wraps domain.ErrChannelUnavailable.
func (d *Dispatcher) Dispatch(ctx context.Context, mail events.VerificationEmail) error {
	result := "success"
	defer func() {
		metrics.EmailDispatchTotal.WithLabelValues(d.pub.Backend(), result).Inc()
	}()

	body, err := json.Marshal(mail)
	if err != nil {
		result = "failure"
		return fmt.Errorf("encode verification email: %w", err)
	}

	backoff := retry.WithMaxRetries(d.cfg.Attempts-1, retry.NewExponential(d.cfg.Backoff))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		actx := ctx
		if d.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
			defer cancel()
		}
		if err := d.pub.Publish(actx, d.cfg.Queue, body); err != nil {
			slog.Warn("email publish attempt failed",
				"backend", d.pub.Backend(),
				"queue", d.cfg.Queue,
				"attempt", attempt,
				"error", err,
				"request_id", middleware.RequestIDFromContext(ctx),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		result = "failure"
		return fmt.Errorf("%w: %v", domain.ErrChannelUnavailable, err)
	}

	slog.Info("verification email queued",
		"backend", d.pub.Backend(),
		"queue", d.cfg.Queue,
		"to", mail.To,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)
	return nil
}
