// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package docstore

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/danielhkuo/verivote/apperr"
)

// RetryPolicy bounds how hard a store call is retried.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// AttemptTimeout caps a single Read or Write. Zero means no per-attempt cap.
	AttemptTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		AttemptTimeout:  5 * time.Second,
	}
}

// Budget is the longest a single retried call can take: every attempt
// running to its timeout plus the widest randomized wait between attempts.
// Zero means unbounded.
func (p RetryPolicy) Budget() time.Duration {
	if p.AttemptTimeout <= 0 {
		return 0
	}
	attempts := max(p.MaxAttempts, 1)
	maxWait := p.MaxInterval
	if maxWait <= 0 {
		maxWait = DefaultRetryPolicy().MaxInterval
	}
	return time.Duration(attempts)*p.AttemptTimeout + time.Duration(attempts-1)*maxWait*3/2
}

type RetryOption func(*Retrying)

func WithLogger(logger *slog.Logger) RetryOption {
	return func(r *Retrying) {
		r.logger = logger
	}
}

// OnRetry registers a hook called before every retried attempt.
func OnRetry(fn func(op, collection string)) RetryOption {
	return func(r *Retrying) {
		r.onRetry = fn
	}
}

// Retrying wraps a Store and retries transient failures with exponential
// backoff. ErrNotFound, caller cancellation and client errors from the remote
// store are returned immediately.
type Retrying struct {
	next    Store
	policy  RetryPolicy
	logger  *slog.Logger
	onRetry func(op, collection string)
	retries atomic.Int64
}

func WithRetry(s Store, policy RetryPolicy, opts ...RetryOption) *Retrying {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = DefaultRetryPolicy().InitialInterval
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = DefaultRetryPolicy().MaxInterval
	}
	r := &Retrying{next: s, policy: policy}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = resolveLogger(r.logger)
	return r
}

// Retries reports how many retried attempts this store has made.
func (r *Retrying) Retries() int64 {
	return r.retries.Load()
}

func (r *Retrying) Read(ctx context.Context, collection string) ([]byte, error) {
	var doc []byte
	err := r.run(ctx, "read", collection, func(ctx context.Context) error {
		var err error
		doc, err = r.next.Read(ctx, collection)
		return err
	})
	return doc, err
}

func (r *Retrying) Write(ctx context.Context, collection string, doc []byte) error {
	return r.run(ctx, "write", collection, func(ctx context.Context) error {
		return r.next.Write(ctx, collection, doc)
	})
}

func (r *Retrying) Close() error {
	return r.next.Close()
}

func (r *Retrying) run(ctx context.Context, op, collection string, fn func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.MaxElapsedTime = 0

	attempts := 0
	var lastErr error
	operation := func() error {
		attempts++
		attemptCtx, cancel := r.attemptContext(ctx)
		defer cancel()

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}
		lastErr = err
		if permanent(ctx, err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.retries.Add(1)
		if r.onRetry != nil {
			r.onRetry(op, collection)
		}
		r.logger.Warn("store call failed, retrying",
			"op", op,
			"collection", collection,
			"attempt", attempts,
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.policy.MaxAttempts-1)), ctx)
	err := backoff.RetryNotify(operation, policy, notify)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if lastErr == nil {
		lastErr = err
	}
	return apperr.Wrap(apperr.KindStorage, lastErr, "%s %s failed after %d attempt(s)", op, collection, attempts)
}

func (r *Retrying) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.policy.AttemptTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.policy.AttemptTimeout)
}

func permanent(ctx context.Context, err error) bool {
	if errors.Is(err, ErrNotFound) || ctx.Err() != nil {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return false
		}
		return se.StatusCode < 500
	}
	return false
}
