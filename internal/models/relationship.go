package models

import "time"

// RelationshipKind distinguishes the adult's role toward the child
type RelationshipKind string

const (
	KindParent   RelationshipKind = "parent"
	KindGuardian RelationshipKind = "guardian"
)

// Valid reports whether k is a known kind
func (k RelationshipKind) Valid() bool {
	return k == KindParent || k == KindGuardian
}

// Relationship links an adult profile to a child profile.
// At most one row exists per (parent, child) pair; unlinking only deactivates it.
type Relationship struct {
	ID           string           `json:"id"`
	ParentID     string           `json:"parent_id"`
	ChildID      string           `json:"child_id"`
	Kind         RelationshipKind `json:"kind"`
	Active       bool             `json:"active"`
	ConsentGiven bool             `json:"consent_given"`
	ConsentAt    *time.Time       `json:"consent_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
