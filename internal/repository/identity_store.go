package repository

import (
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/database"
)

// IdentityStore is the privileged lookup path for the policy evaluator.
// It reads profiles and relationships directly, bypassing every policy check.
type IdentityStore struct {
	*ProfileRepository
	*RelationshipRepository
}

// NewIdentityStore creates an identity store over db
func NewIdentityStore(db database.DBTX) *IdentityStore {
	return &IdentityStore{
		ProfileRepository:      NewProfileRepository(db),
		RelationshipRepository: NewRelationshipRepository(db),
	}
}
