// Package services holds the business operations behind the HTTP handlers:
// sessions, the user directory, the franchise hierarchy and the order
// pipeline. Every operation takes the caller as a *policy.Subject (nil for
// anonymous callers) and checks it against the authorization engine before
// touching storage.
package services

import (
	"context"
	"log/slog"
	"math"
	"time"

	"pizza-franchise-api/logger"
	"pizza-franchise-api/metrics"
	"pizza-franchise-api/policy"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Options is shared by every service constructor. Zero values get defaults.
type Options struct {
	// StoreTimeout bounds each storage round trip.
	StoreTimeout time.Duration
	Logger       *slog.Logger
	Metrics      metrics.Recorder
}

type env struct {
	timeout time.Duration
	logger  *slog.Logger
	metrics metrics.Recorder
}

func newEnv(opts Options) env {
	e := env{timeout: opts.StoreTimeout, logger: opts.Logger, metrics: opts.Metrics}
	if e.timeout <= 0 {
		e.timeout = 3 * time.Second
	}
	if e.logger == nil {
		e.logger = logger.Discard()
	}
	if e.metrics == nil {
		e.metrics = metrics.Nop{}
	}
	return e
}

func (e env) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.timeout)
}

// require authorizes and records the decision.
func (e env) require(s *policy.Subject, action policy.Action, res policy.Resource) error {
	d := policy.Authorize(s, action, res)
	e.metrics.RecordAuthzDecision(d.Rule, d.Allowed())
	if !d.Allowed() {
		var uid uint
		if s != nil {
			uid = s.UserID
		}
		e.logger.Debug("authorization denied",
			slog.Uint64("user_id", uint64(uid)),
			slog.String("action", string(action)),
			slog.String("resource", string(res.Kind)),
			slog.String("rule", d.Rule),
		)
	}
	return d.Err(s, action, res)
}

// Page is a normalized one-indexed page request.
type Page struct {
	Number int
	Limit  int
}

// NewPage clamps limit to [1, MaxPageSize], with DefaultPageSize for a
// non-positive limit, and number to [1, math.MaxInt/limit] so Offset cannot
// overflow.
func NewPage(number, limit int) Page {
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if number < 1 {
		number = 1
	}
	if number > math.MaxInt/limit {
		number = math.MaxInt / limit
	}
	return Page{Number: number, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}
