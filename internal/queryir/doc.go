// Package queryir provides an abstract query representation for case
// worklists.
//
// The IR sits between callers that need lists of cases (the worklist
// views, the CLI list command) and the storage backend:
//
//	[worklist builders] → [Query IR] → [SQL backend]
//
// Queries read the projection columns the store keeps next to each case
// body. They never decide permissions: builders such as PickupCandidates
// return a superset, and the caller refines it with the workflow package.
//
// SUPPORTED FRAGMENT:
//   - Worklist(filter, limit), always ordered by case id
//   - Predicates: Equals, In, And, Or
//   - A closed field set; Validate rejects unknown fields and values of
//     the wrong kind
//
// EXCLUDED:
//   - NULLs (unset text columns hold "")
//   - Joins, aggregation and subqueries
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, which keeps type switches
// in backends exhaustive:
//
//	switch q := query.(type) {
//	case Worklist:
//	    // Handle worklist
//	default:
//	    // Impossible
//	}
package queryir
