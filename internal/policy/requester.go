package policy

import (
	"context"
	"slices"
	"sync"
)

// Requester is the request-scoped identity a check is made for.
//
// It is built from the verified token's login id and the optional act-as
// profile id, then resolved at most once per request. The resolved fields
// must only be read after Resolve.
type Requester struct {
	LoginID string
	ActAs   string

	mu       sync.Mutex
	resolved bool
	err      error
	identity Identity
}

// Identity is the resolved view of a requester.
type Identity struct {
	// ProfileID is the profile the requester acts as. Empty when the login
	// has no profile yet.
	ProfileID    string
	IsChild      bool
	ConsentGiven bool

	// DelegateID is the parent profile acting on a child's behalf.
	DelegateID string

	// LinkedChildren are the children actively linked to the requester at
	// resolution time.
	LinkedChildren []string
}

// NewRequester creates an unresolved requester.
func NewRequester(loginID, actAs string) *Requester {
	return &Requester{LoginID: loginID, ActAs: actAs}
}

// ResolvedRequester creates a requester that is already resolved. Used by
// trusted internal callers and tests.
func ResolvedRequester(id Identity) *Requester {
	return &Requester{resolved: true, identity: id}
}

// Identity returns the cached resolution. ok is false before a successful
// resolution.
func (r *Requester) Identity() (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.resolved || r.err != nil {
		return Identity{}, false
	}
	return r.identity, true
}

// ProfileID returns the resolved profile id, or "" when unresolved.
func (r *Requester) ProfileID() string {
	id, _ := r.Identity()
	return id.ProfileID
}

// Delegated reports whether a parent is acting on a child's behalf.
func (r *Requester) Delegated() bool {
	id, _ := r.Identity()
	return id.DelegateID != ""
}

func (r *Requester) resolve(ctx context.Context, fn func(context.Context) (Identity, error)) (Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.resolved {
		r.identity, r.err = fn(ctx)
		r.resolved = true
	}
	return r.identity, r.err
}

func (id Identity) linkedTo(childID string) bool {
	return childID != "" && slices.Contains(id.LinkedChildren, childID)
}
