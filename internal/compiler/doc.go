// Package compiler turns case fixtures into workflow cases.
//
// Fixtures are written in CUE or YAML with one top-level list:
//
//	cases: [{ id: "c1", workflow: overall: "S00", ... }]
//
// Both forms are unified with the embedded #Fixtures schema (schema.cue)
// through the CUE SDK, so field names, state codes, RFC 3339 times and
// progress bounds are checked before a case is decoded. Validate then
// checks the cross-field invariants of the workflow (E101-E107).
package compiler
