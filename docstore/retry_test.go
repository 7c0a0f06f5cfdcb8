package docstore

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/verivote/apperr"
)

// scriptedStore fails the first n calls of each op with err.
type scriptedStore struct {
	Store
	mu       sync.Mutex
	failures map[string]int
	err      error
	calls    map[string]int
	block    bool
}

func newScripted(failReads, failWrites int, err error) *scriptedStore {
	return &scriptedStore{
		Store:    NewMemory(),
		failures: map[string]int{"read": failReads, "write": failWrites},
		err:      err,
		calls:    map[string]int{},
	}
}

func (s *scriptedStore) fail(op string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	if s.failures[op] > 0 {
		s.failures[op]--
		return true
	}
	return false
}

func (s *scriptedStore) Read(ctx context.Context, collection string) ([]byte, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.fail("read") {
		return nil, s.err
	}
	return s.Store.Read(ctx, collection)
}

func (s *scriptedStore) Write(ctx context.Context, collection string, doc []byte) error {
	if s.fail("write") {
		return s.err
	}
	return s.Store.Write(ctx, collection, doc)
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		AttemptTimeout:  time.Second,
	}
}

func TestWithRetry_RecoversFromTransientFailures(t *testing.T) {
	inner := newScripted(0, 2, errors.New("connection reset"))
	var hooked []string
	s := WithRetry(inner, fastPolicy(5), OnRetry(func(op, collection string) {
		hooked = append(hooked, op+":"+collection)
	}))

	require.NoError(t, s.Write(context.Background(), Votes, []byte(`[]`)))
	require.Equal(t, 3, inner.calls["write"])
	require.EqualValues(t, 2, s.Retries())
	require.Equal(t, []string{"write:votes", "write:votes"}, hooked)
}

func TestWithRetry_ExhaustionIsStorageError(t *testing.T) {
	cause := errors.New("connection reset")
	inner := newScripted(0, 10, cause)
	s := WithRetry(inner, fastPolicy(3))

	err := s.Write(context.Background(), Votes, []byte(`[]`))
	require.ErrorIs(t, err, apperr.ErrStorage)
	require.ErrorIs(t, err, cause)
	require.Equal(t, 3, inner.calls["write"])
}

func TestWithRetry_NotFoundIsNotRetried(t *testing.T) {
	inner := newScripted(0, 0, nil)
	s := WithRetry(inner, fastPolicy(5))

	_, err := s.Read(context.Background(), Voters)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, inner.calls["read"])
	require.Zero(t, s.Retries())
}

func TestWithRetry_ClientErrorIsNotRetried(t *testing.T) {
	inner := newScripted(0, 10, &StatusError{Op: "PUT", Collection: Votes, StatusCode: http.StatusUnauthorized})
	s := WithRetry(inner, fastPolicy(5))

	err := s.Write(context.Background(), Votes, []byte(`[]`))
	require.ErrorIs(t, err, apperr.ErrStorage)
	require.Equal(t, 1, inner.calls["write"])
}

func TestWithRetry_TooManyRequestsIsRetried(t *testing.T) {
	inner := newScripted(0, 1, &StatusError{Op: "PUT", Collection: Votes, StatusCode: http.StatusTooManyRequests})
	s := WithRetry(inner, fastPolicy(5))

	require.NoError(t, s.Write(context.Background(), Votes, []byte(`[]`)))
	require.Equal(t, 2, inner.calls["write"])
}

func TestWithRetry_AttemptTimeoutTriggersRetry(t *testing.T) {
	inner := newScripted(0, 0, nil)
	inner.block = true
	policy := fastPolicy(3)
	policy.AttemptTimeout = 10 * time.Millisecond
	s := WithRetry(inner, policy)

	_, err := s.Read(context.Background(), Votes)
	require.ErrorIs(t, err, apperr.ErrStorage)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.EqualValues(t, 2, s.Retries())
}

func TestRetryPolicy_Budget(t *testing.T) {
	policy := fastPolicy(3)
	policy.AttemptTimeout = 10 * time.Millisecond
	require.Equal(t, 30*time.Millisecond+2*7500*time.Microsecond, policy.Budget())

	policy.AttemptTimeout = 0
	require.Zero(t, policy.Budget())
}

func TestWithRetry_BudgetDeadlineAllowsEveryAttempt(t *testing.T) {
	inner := newScripted(0, 0, nil)
	inner.block = true
	policy := fastPolicy(3)
	policy.AttemptTimeout = 20 * time.Millisecond
	s := WithRetry(inner, policy)

	ctx, cancel := context.WithTimeout(context.Background(), policy.Budget())
	defer cancel()

	_, err := s.Read(ctx, Votes)
	require.Error(t, err)
	require.EqualValues(t, 2, s.Retries())
}

func TestWithRetry_CallerCancellationStopsRetrying(t *testing.T) {
	inner := newScripted(0, 0, nil)
	inner.block = true
	s := WithRetry(inner, fastPolicy(5))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Read(ctx, Votes)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotErrorIs(t, err, apperr.ErrStorage)
	require.Zero(t, s.Retries())
}
