package policy

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
)

// Store is the privileged lookup path used by the evaluator. Its
// implementations read storage directly and never call back into the
// evaluator. A missing profile is (nil, nil).
type Store interface {
	ProfileByLogin(ctx context.Context, loginID string) (*models.Profile, error)
	ProfileByID(ctx context.Context, id string) (*models.Profile, error)
	IsActiveParentOf(ctx context.Context, parentID, childID string) (bool, error)
	ActiveChildIDs(ctx context.Context, parentID string) ([]string, error)
}

// RetryingStore retries transient Store errors with exponential backoff.
// Context cancellation is never retried.
type RetryingStore struct {
	next           Store
	maxAttempts    uint
	initialBackoff time.Duration
}

// NewRetryingStore wraps next with at most maxAttempts tries per call.
func NewRetryingStore(next Store, maxAttempts int, initialBackoff time.Duration) *RetryingStore {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryingStore{next: next, maxAttempts: uint(maxAttempts), initialBackoff: initialBackoff}
}

func retry[T any](ctx context.Context, s *RetryingStore, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	if s.initialBackoff > 0 {
		b.InitialInterval = s.initialBackoff
	}
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(s.maxAttempts))
}

func (s *RetryingStore) ProfileByLogin(ctx context.Context, loginID string) (*models.Profile, error) {
	return retry(ctx, s, func() (*models.Profile, error) { return s.next.ProfileByLogin(ctx, loginID) })
}

func (s *RetryingStore) ProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	return retry(ctx, s, func() (*models.Profile, error) { return s.next.ProfileByID(ctx, id) })
}

func (s *RetryingStore) IsActiveParentOf(ctx context.Context, parentID, childID string) (bool, error) {
	return retry(ctx, s, func() (bool, error) { return s.next.IsActiveParentOf(ctx, parentID, childID) })
}

func (s *RetryingStore) ActiveChildIDs(ctx context.Context, parentID string) ([]string, error) {
	return retry(ctx, s, func() ([]string, error) { return s.next.ActiveChildIDs(ctx, parentID) })
}
