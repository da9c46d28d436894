package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/shopstream/storefront-sync/internal/graphql"
)

// Retry policy defaults, distinguishing transient failures (retried with
// backoff) from semantic rejections (surfaced immediately).
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 300 * time.Millisecond
	DefaultMaxDelay     = 3000 * time.Millisecond
)

// RetryConfig tunes the retry stage.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.MaxDelay < c.InitialDelay {
		c.MaxDelay = DefaultMaxDelay
	}
	return c
}

// RetryExhaustedError wraps the last failure after every attempt was spent.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}

type retryLink struct {
	next    Link
	cfg     RetryConfig
	pending *pendingSet
	logger  *slog.Logger
}

// Retry returns the retry middleware. It issues exactly one attempt for
// non-retryable failures and at most cfg.MaxAttempts otherwise, sleeping a
// jittered exponential backoff between attempts.
func Retry(cfg RetryConfig, logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	pending := newPendingSet()
	return func(next Link) Link {
		return &retryLink{next: next, cfg: cfg.withDefaults(), pending: pending, logger: logger}
	}
}

func (l *retryLink) Do(ctx context.Context, op *graphql.Operation) (*graphql.Response, error) {
	rec := l.pending.start(op)

	var (
		resp *graphql.Response
		err  error
	)
	for attempt := 0; attempt < l.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			l.pending.retry(rec)
			delay := backoff(attempt-1, l.cfg.InitialDelay, l.cfg.MaxDelay)
			l.logger.Debug("retrying operation",
				slog.String("operation", op.Name),
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
			)
			if err := sleep(ctx, delay); err != nil {
				l.pending.finish(rec, StateFailed)
				return nil, err
			}
		}

		resp, err = l.next.Do(ctx, op)
		if err == nil && resp.Err() == nil {
			l.pending.finish(rec, StateCompleted)
			return resp, nil
		}

		failure := err
		if failure == nil {
			failure = resp.Err()
		}
		if !retryable(failure) {
			state := StateFailed
			if graphql.IsAuthExpired(failure) {
				state = StateFailedAuth
			}
			l.pending.finish(rec, state)
			// GraphQL-level errors travel on the response so the caller
			// sees the full errors array.
			return resp, err
		}

		l.logger.Warn("operation attempt failed",
			slog.String("operation", op.Name),
			slog.Int("attempt", attempt+1),
			slog.String("error", failure.Error()),
		)
	}

	last := err
	if last == nil && resp != nil {
		last = resp.Err()
	}
	l.pending.finish(rec, StateFailed)
	return nil, &RetryExhaustedError{Attempts: l.cfg.MaxAttempts, Last: last}
}

// retryable classifies a failure. Semantic GraphQL codes and client-side
// context errors never retry; transient network and 5xx failures do.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rf *RefreshFailedError
	if errors.As(err, &rf) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	return graphql.Retryable(err)
}

// backoff doubles from initial, capped at max, with jitter added on top of
// the base so every delay stays within [initial, max].
func backoff(attempt int, initial, max time.Duration) time.Duration {
	base := initial << attempt
	if base <= 0 || base > max {
		base = max
	}
	jitter := time.Duration(rand.Int64N(int64(base/2) + 1))
	if base+jitter > max {
		return max
	}
	return base + jitter
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
