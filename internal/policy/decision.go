package policy

// Table names a policy-gated table.
type Table string

const (
	TableProfiles           Table = "profiles"
	TableRelationships      Table = "relationships"
	TableExerciseSessions   Table = "exercise_sessions"
	TableProgress           Table = "progress"
	TableAdventureProgress  Table = "adventure_progress"
	TableEarnedAchievements Table = "earned_achievements"
)

// FamilyTables are the tables whose rows are owned by a single profile.
var FamilyTables = []Table{
	TableExerciseSessions,
	TableProgress,
	TableAdventureProgress,
	TableEarnedAchievements,
}

// Operation is the kind of access being checked.
type Operation string

const (
	OpSelect Operation = "SELECT"
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Operations lists every operation in a fixed order.
var Operations = []Operation{OpSelect, OpInsert, OpUpdate, OpDelete}

// Decision is the outcome of a policy check.
type Decision int

const (
	// Deny means the access is not permitted.
	Deny Decision = iota

	// Allow means the access is permitted.
	Allow
)

// String returns "allow" or "deny".
func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// DenyReason describes why a check was denied.
type DenyReason int

const (
	// ReasonNoRule means no rule exists for the table and operation.
	ReasonNoRule DenyReason = iota

	// ReasonNoMatch means a rule exists but none of its clauses held.
	ReasonNoMatch

	// ReasonUnresolved means the requester could not be resolved.
	ReasonUnresolved

	// ReasonLookupFailed means a predicate's storage lookup failed.
	ReasonLookupFailed

	// ReasonReentry means the evaluator was re-entered for a table it
	// was already evaluating.
	ReasonReentry
)

// String returns a human-readable reason.
func (r DenyReason) String() string {
	switch r {
	case ReasonNoRule:
		return "no rule for table and operation"
	case ReasonNoMatch:
		return "no clause matched"
	case ReasonUnresolved:
		return "requester unresolved"
	case ReasonLookupFailed:
		return "lookup failed"
	case ReasonReentry:
		return "re-entrant evaluation"
	default:
		return "unknown"
	}
}

// Result describes the outcome of a check and which clause allowed it.
type Result struct {
	Decision Decision

	// Reason is only meaningful when Decision is Deny.
	Reason DenyReason

	// Clause names the clause that allowed the access.
	Clause string
}

// Allowed reports whether the result is an Allow.
func (r Result) Allowed() bool {
	return r.Decision == Allow
}

// Row describes the target of a check. Which fields matter depends on the
// table: OwnerID is the owning profile (the profile itself for profiles, the
// adult for relationships); SubjectID is the child of a relationship. The
// remaining fields describe a row about to be inserted.
type Row struct {
	OwnerID   string
	SubjectID string

	LoginID      string
	IsChild      bool
	ConsentGiven bool
	Guardian     bool
}
