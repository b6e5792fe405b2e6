// Package engine implements the fascicolo workflow store object.
//
// The engine owns the collection of cases and is the only writer. It
// wraps the pure workflow core (Can, Apply) with sequencing,
// persistence, change notification and metrics.
//
// ARCHITECTURE:
//
// Single-Writer Loop:
// Dispatch and Create enqueue a request and wait on a reply channel.
// Run dequeues requests one at a time, so every mutation of the
// collection happens in one goroutine:
//
//  1. Read the current record
//  2. Ask the permission oracle; compute the next record with Apply
//  3. Take the next seq from the logical Clock
//  4. Persist the record and the audit event in one transaction
//  5. Install the new record pointer
//  6. Notify subscribers
//
// A failed write leaves the in-memory record untouched. Nothing is
// retried.
//
// Logical Clock:
// Audit events are ordered by seq, never by wall time. Restore resumes
// the clock after the last recorded event so seqs stay unique across
// restarts.
//
// Every dispatch against an existing case is recorded, including denied
// and no-op ones; the store can replay that log to rebuild each case.
package engine
