package policy

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
)

var (
	// ErrUnauthenticated is returned when a requester carries no login id.
	ErrUnauthenticated = errors.New("requester is not authenticated")

	// ErrActAsDenied is returned when the act-as profile is not an actively
	// linked child of the login's profile.
	ErrActAsDenied = errors.New("requester may not act as this profile")
)

// Evaluator applies a validated rule set.
type Evaluator struct {
	rules    map[Table]map[Operation]Rule
	ordered  []Rule
	store    Store
	identity Store
	log      *logger.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRules replaces the default rule set.
func WithRules(rules []Rule) Option {
	return func(e *Evaluator) { e.ordered = rules }
}

// WithResolveRetry retries transient identity lookups during resolution.
func WithResolveRetry(maxAttempts int, initialBackoff time.Duration) Option {
	return func(e *Evaluator) {
		e.identity = NewRetryingStore(e.store, maxAttempts, initialBackoff)
	}
}

// WithLogger sets the logger used for denials caused by failures.
func WithLogger(log *logger.Logger) Option {
	return func(e *Evaluator) { e.log = log }
}

// New builds an evaluator over store. It fails when the rule set consults
// a rule's own table.
func New(store Store, opts ...Option) (*Evaluator, error) {
	e := &Evaluator{
		store:    store,
		identity: store,
		ordered:  DefaultRules(),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := ValidateRules(e.ordered); err != nil {
		return nil, fmt.Errorf("invalid policy rules: %w", err)
	}

	e.rules = make(map[Table]map[Operation]Rule)
	for _, r := range e.ordered {
		if e.rules[r.Table] == nil {
			e.rules[r.Table] = make(map[Operation]Rule)
		}
		e.rules[r.Table][r.Operation] = r
	}
	return e, nil
}

// Rules returns the active rule set.
func (e *Evaluator) Rules() []Rule {
	return slices.Clone(e.ordered)
}

// Resolve maps the requester to a profile through the privileged store and
// caches the result on the requester. Later calls return the cached result.
func (e *Evaluator) Resolve(ctx context.Context, req *Requester) (Identity, error) {
	return req.resolve(ctx, func(ctx context.Context) (Identity, error) {
		if req.LoginID == "" {
			return Identity{}, ErrUnauthenticated
		}

		profile, err := e.identity.ProfileByLogin(ctx, req.LoginID)
		if err != nil {
			return Identity{}, fmt.Errorf("failed to resolve login: %w", err)
		}
		if profile == nil {
			if req.ActAs != "" {
				return Identity{}, ErrActAsDenied
			}
			return Identity{}, nil
		}

		var children []string
		if profile.IsAdult() {
			children, err = e.identity.ActiveChildIDs(ctx, profile.ID)
			if err != nil {
				return Identity{}, fmt.Errorf("failed to load linked children: %w", err)
			}
		}

		if req.ActAs == "" || req.ActAs == profile.ID {
			return Identity{
				ProfileID:      profile.ID,
				IsChild:        profile.IsChild,
				ConsentGiven:   profile.ConsentGiven,
				LinkedChildren: children,
			}, nil
		}

		if !slices.Contains(children, req.ActAs) {
			return Identity{}, ErrActAsDenied
		}
		child, err := e.identity.ProfileByID(ctx, req.ActAs)
		if err != nil {
			return Identity{}, fmt.Errorf("failed to resolve act-as profile: %w", err)
		}
		if child == nil || !child.IsChild {
			return Identity{}, ErrActAsDenied
		}
		return Identity{
			ProfileID:    child.ID,
			IsChild:      true,
			ConsentGiven: child.ConsentGiven,
			DelegateID:   profile.ID,
		}, nil
	})
}

type evalFrame struct {
	table  Table
	parent *evalFrame
}

type evalStackKey struct{}

func (f *evalFrame) contains(t Table) bool {
	for ; f != nil; f = f.parent {
		if f.table == t {
			return true
		}
	}
	return false
}

// Evaluate decides whether req may perform op on row of table.
func (e *Evaluator) Evaluate(ctx context.Context, req *Requester, table Table, op Operation, row Row) Result {
	stack, _ := ctx.Value(evalStackKey{}).(*evalFrame)
	if stack.contains(table) {
		e.log.Error("policy re-entered while evaluating table", "table", table, "operation", op)
		return Result{Decision: Deny, Reason: ReasonReentry}
	}

	rule, ok := e.rules[table][op]
	if !ok {
		return Result{Decision: Deny, Reason: ReasonNoRule}
	}

	identity, err := e.Resolve(ctx, req)
	if err != nil {
		if !errors.Is(err, ErrUnauthenticated) && !errors.Is(err, ErrActAsDenied) {
			e.log.Warn("policy could not resolve requester", "login_id", req.LoginID, "error", err)
		}
		return Result{Decision: Deny, Reason: ReasonUnresolved}
	}

	ctx = context.WithValue(ctx, evalStackKey{}, &evalFrame{table: table, parent: stack})
	check := Check{Identity: identity, LoginID: req.LoginID, Row: row, Store: e.store}

	for _, clause := range rule.AnyOf {
		held, err := clauseHolds(ctx, clause, check)
		if err != nil {
			e.log.Warn("policy lookup failed", "table", table, "operation", op, "clause", clause.Name, "error", err)
			return Result{Decision: Deny, Reason: ReasonLookupFailed}
		}
		if held {
			return Result{Decision: Allow, Clause: clause.Name}
		}
	}
	return Result{Decision: Deny, Reason: ReasonNoMatch}
}

func clauseHolds(ctx context.Context, clause Clause, check Check) (bool, error) {
	for _, p := range clause.Predicates {
		ok, err := p.Holds(ctx, check)
		if err != nil {
			return false, fmt.Errorf("%s: %w", p.Name, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Allowed is Evaluate reduced to a bool.
func (e *Evaluator) Allowed(ctx context.Context, req *Requester, table Table, op Operation, row Row) bool {
	return e.Evaluate(ctx, req, table, op, row).Allowed()
}

// FilterVisible returns the items req may SELECT, preserving order.
func FilterVisible[T any](ctx context.Context, e *Evaluator, req *Requester, table Table, items []T, rowOf func(T) Row) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if e.Allowed(ctx, req, table, OpSelect, rowOf(item)) {
			out = append(out, item)
		}
	}
	return out
}
