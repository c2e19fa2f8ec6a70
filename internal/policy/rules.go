package policy

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Check is the input to a predicate.
type Check struct {
	Identity Identity
	LoginID  string
	Row      Row
	Store    Store
}

// Predicate is one condition of a clause. Consults lists the tables the
// predicate reads through the Store while it runs; facts taken from the
// resolved Identity or the Row consult nothing.
type Predicate struct {
	Name     string
	Consults []Table
	Holds    func(ctx context.Context, c Check) (bool, error)
}

// Clause allows the access when all of its predicates hold.
type Clause struct {
	Name       string
	Predicates []Predicate
}

// Rule lists the clauses that may allow an operation on a table. A rule
// with no clauses never allows.
type Rule struct {
	Table     Table
	Operation Operation
	AnyOf     []Clause
}

// consults returns every table the rule reads, sorted and deduplicated.
func (r Rule) consults() []Table {
	var tables []Table
	for _, clause := range r.AnyOf {
		for _, p := range clause.Predicates {
			for _, t := range p.Consults {
				if !slices.Contains(tables, t) {
					tables = append(tables, t)
				}
			}
		}
	}
	slices.Sort(tables)
	return tables
}

// ValidateRules rejects duplicate rules and any rule that consults its own
// table.
func ValidateRules(rules []Rule) error {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		key := string(r.Table) + " " + string(r.Operation)
		if seen[key] {
			return fmt.Errorf("duplicate rule for %s", key)
		}
		seen[key] = true

		for _, clause := range r.AnyOf {
			if len(clause.Predicates) == 0 {
				return fmt.Errorf("rule %s: clause %q has no predicates", key, clause.Name)
			}
			for _, p := range clause.Predicates {
				if p.Holds == nil {
					return fmt.Errorf("rule %s: predicate %q has no check", key, p.Name)
				}
				if slices.Contains(p.Consults, r.Table) {
					return fmt.Errorf("rule %s: predicate %q consults its own table", key, p.Name)
				}
			}
		}
	}
	return nil
}

// Describe renders the rule set, one line per rule, in table order.
func Describe(rules []Rule) string {
	var b strings.Builder
	for _, r := range rules {
		fmt.Fprintf(&b, "%-20s %-6s ", r.Table, r.Operation)
		if len(r.AnyOf) == 0 {
			b.WriteString("never")
		}
		for i, clause := range r.AnyOf {
			if i > 0 {
				b.WriteString(" | ")
			}
			names := make([]string, 0, len(clause.Predicates))
			for _, p := range clause.Predicates {
				names = append(names, p.Name)
			}
			fmt.Fprintf(&b, "%s(%s)", clause.Name, strings.Join(names, " & "))
		}
		if consults := r.consults(); len(consults) > 0 {
			parts := make([]string, len(consults))
			for i, t := range consults {
				parts[i] = string(t)
			}
			fmt.Fprintf(&b, "  [consults %s]", strings.Join(parts, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

var (
	requesterOwnsRow = Predicate{
		Name: "owner",
		Holds: func(_ context.Context, c Check) (bool, error) {
			return c.Identity.ProfileID != "" && c.Row.OwnerID == c.Identity.ProfileID, nil
		},
	}

	requesterIsRowChild = Predicate{
		Name: "child",
		Holds: func(_ context.Context, c Check) (bool, error) {
			return c.Identity.ProfileID != "" && c.Row.SubjectID == c.Identity.ProfileID, nil
		},
	}

	requesterIsActiveParentOfOwner = Predicate{
		Name:     "active_parent",
		Consults: []Table{TableRelationships},
		Holds: func(ctx context.Context, c Check) (bool, error) {
			if c.Identity.ProfileID == "" || c.Identity.IsChild || c.Row.OwnerID == "" {
				return false, nil
			}
			return c.Store.IsActiveParentOf(ctx, c.Identity.ProfileID, c.Row.OwnerID)
		},
	}

	requesterIsAdult = Predicate{
		Name: "adult",
		Holds: func(_ context.Context, c Check) (bool, error) {
			return c.Identity.ProfileID != "" && !c.Identity.IsChild, nil
		},
	}

	requesterMayWrite = Predicate{
		Name: "consented",
		Holds: func(_ context.Context, c Check) (bool, error) {
			return c.Identity.ProfileID != "" && (!c.Identity.IsChild || c.Identity.ConsentGiven), nil
		},
	}

	selfRegistration = Predicate{
		Name: "login_match",
		Holds: func(_ context.Context, c Check) (bool, error) {
			return c.LoginID != "" &&
				c.Identity.ProfileID == "" &&
				c.Row.LoginID == c.LoginID &&
				!c.Row.IsChild, nil
		},
	}

	consentedChildRow = Predicate{
		Name: "consented_child",
		Holds: func(_ context.Context, c Check) (bool, error) {
			return c.Row.IsChild && c.Row.ConsentGiven && c.Row.LoginID == "", nil
		},
	}

	guardianRow = Predicate{
		Name: "guardian_row",
		Holds: func(_ context.Context, c Check) (bool, error) {
			return c.Row.Guardian, nil
		},
	}

	requesterLinkedToChild = Predicate{
		Name: "linked_to_child",
		Holds: func(_ context.Context, c Check) (bool, error) {
			return c.Identity.linkedTo(c.Row.SubjectID), nil
		},
	}
)

func clause(name string, preds ...Predicate) Clause {
	return Clause{Name: name, Predicates: preds}
}

// DefaultRules returns the rule set enforced by the application.
func DefaultRules() []Rule {
	rules := []Rule{
		{Table: TableProfiles, Operation: OpSelect, AnyOf: []Clause{
			clause("self", requesterOwnsRow),
			clause("parent", requesterIsActiveParentOfOwner),
		}},
		{Table: TableProfiles, Operation: OpInsert, AnyOf: []Clause{
			clause("self_registration", selfRegistration),
			clause("onboard_child", requesterIsAdult, consentedChildRow),
		}},
		{Table: TableProfiles, Operation: OpUpdate, AnyOf: []Clause{
			clause("self", requesterOwnsRow),
			clause("parent", requesterIsActiveParentOfOwner),
		}},
		{Table: TableProfiles, Operation: OpDelete, AnyOf: []Clause{
			clause("self", requesterOwnsRow, requesterIsAdult),
		}},

		{Table: TableRelationships, Operation: OpSelect, AnyOf: []Clause{
			clause("parent", requesterOwnsRow),
			clause("child", requesterIsRowChild),
			clause("co_parent", requesterIsAdult, requesterLinkedToChild),
		}},
		// New links come only from onboarding or from an adult already linked
		// to the child; an existing row is reactivated through UPDATE.
		{Table: TableRelationships, Operation: OpInsert, AnyOf: []Clause{
			clause("onboard_child", requesterOwnsRow, requesterIsAdult, consentedChildRow),
			clause("guardian_sponsor", requesterIsAdult, guardianRow, requesterLinkedToChild),
		}},
		{Table: TableRelationships, Operation: OpUpdate, AnyOf: []Clause{
			clause("parent", requesterOwnsRow, requesterIsAdult),
			clause("guardian_sponsor", requesterIsAdult, guardianRow, requesterLinkedToChild),
		}},
		{Table: TableRelationships, Operation: OpDelete},
	}

	for _, t := range FamilyTables {
		rules = append(rules,
			Rule{Table: t, Operation: OpSelect, AnyOf: []Clause{
				clause("owner", requesterOwnsRow),
				clause("parent", requesterIsActiveParentOfOwner),
			}},
			Rule{Table: t, Operation: OpInsert, AnyOf: []Clause{
				clause("owner", requesterOwnsRow, requesterMayWrite),
			}},
			Rule{Table: t, Operation: OpUpdate, AnyOf: []Clause{
				clause("owner", requesterOwnsRow, requesterMayWrite),
			}},
			Rule{Table: t, Operation: OpDelete, AnyOf: []Clause{
				clause("owner", requesterOwnsRow),
				clause("parent", requesterIsActiveParentOfOwner),
			}},
		)
	}
	return rules
}
