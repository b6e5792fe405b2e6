// Package workflow implements the fascicolo approval workflow core.
//
// A case file (fascicolo) moves from DRAFT through intake, three parallel
// back-office validation branches (BO registry, BOF financial, BOU trade-in),
// fans back into APPROVED and then through delivery and delivery control
// until DELIVERED.
//
// The package is pure: no I/O, no goroutines, no wall clock. It exposes
// four pieces:
//
//   - State registry: the closed set of State codes and their groups.
//   - Permission oracle: Can(user, action, ctx), deny by default.
//   - Context builder: BuildContext(case, role), the role-relative view
//     of a case that the oracle reads.
//   - Transition engine: Apply(case, action, actor, at), copy-on-write.
//
// # Copy-on-write
//
// Apply never mutates its input. A transition returns a new *Case; an
// action that has no effect returns the very same pointer, so callers
// detect a no-op by identity:
//
//	next := workflow.Apply(c, workflow.ActionValidateBO, actor, now)
//	if next == c {
//	    // nothing happened
//	}
//
// # Guarding
//
// Apply evaluates Can against the actor's own context before touching the
// record. A denied action is a no-op, so a dispatch that bypasses the
// caller-side check still cannot move a case into an illegal state.
package workflow
