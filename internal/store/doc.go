// Package store provides SQLite-backed durable storage for cases and the
// dispatch audit log.
//
// Three tables:
//   - cases: the current record of each case, JSON body plus the columns
//     worklist queries filter on
//   - case_seeds: the record as first inserted
//   - case_events: one row per dispatch (applied, noop or denied)
//
// # Ordering
//
// Events are ordered by seq, a logical clock owned by the engine, never by
// timestamps. Every read orders by seq ASC, id COLLATE BINARY ASC (events)
// or id COLLATE BINARY ASC (cases) so results are identical across runs.
//
// # Replay
//
// Replaying a case re-applies its event log to the seed snapshot with
// workflow.Apply and compares each step's hash with the recorded one.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: Events must reference an existing case
package store
