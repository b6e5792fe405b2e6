// Package ir provides canonical serialization and content hashes for
// stored case records and audit events.
//
// ir imports nothing internal. Hashes are computed over RFC 8785
// canonical JSON so that the same record always produces the same hash,
// regardless of map ordering or Unicode normalization form.
//
// Key design constraints:
//   - NO float values anywhere; numbers must be integers
//   - Logical sequence numbers order events, never wall-clock timestamps
package ir
