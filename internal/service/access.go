package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/policy"
)

var errNoProfile = errors.New("requester has no profile")

// resolve maps evaluator resolution failures onto the service taxonomy
func resolve(ctx context.Context, e *policy.Evaluator, req *policy.Requester) (policy.Identity, error) {
	id, err := e.Resolve(ctx, req)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, policy.ErrUnauthenticated), errors.Is(err, policy.ErrActAsDenied):
		return policy.Identity{}, errors.Join(ErrUnauthorized, err)
	default:
		return policy.Identity{}, fmt.Errorf("failed to resolve requester: %w", err)
	}
}

// resolveProfile is resolve for operations that need the requester to own a profile
func resolveProfile(ctx context.Context, e *policy.Evaluator, req *policy.Requester) (policy.Identity, error) {
	id, err := resolve(ctx, e, req)
	if err != nil {
		return id, err
	}
	if id.ProfileID == "" {
		return id, errors.Join(ErrNotFound, errNoProfile)
	}
	return id, nil
}

type access struct {
	table policy.Table
	op    policy.Operation
	row   policy.Row
}

// authorize checks every access in order and fails on the first denial
func authorize(ctx context.Context, e *policy.Evaluator, req *policy.Requester, checks ...access) error {
	for _, c := range checks {
		if !e.Allowed(ctx, req, c.table, c.op, c.row) {
			return AuthorizationError(c.table, c.op)
		}
	}
	return nil
}
