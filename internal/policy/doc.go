// Package policy decides whether a requester may read or write a row of a
// family-scoped table.
//
// Evaluation for (requester, table, operation, row):
//  1. Resolve the requester's login to a profile through the privileged
//     Store. The result is cached on the Requester for the rest of the
//     request. A lookup error denies.
//  2. Try each clause of the rule for (table, operation). A clause is a
//     conjunction of predicates; the first clause whose predicates all hold
//     allows the access.
//  3. No matching clause, or no rule at all, denies.
//
// Every predicate declares the tables it reads at evaluation time. A rule
// may only consult tables other than its own, and New rejects rule sets
// that break this. The Store lookups used by predicates bypass the
// evaluator entirely, so evaluating a rule can never re-enter the
// evaluator for the same table. A context-carried evaluation stack still
// detects re-entry at runtime and denies it.
//
// Denied reads are filtered out by callers rather than reported, so a row
// the requester may not see is indistinguishable from a missing row.
package policy
