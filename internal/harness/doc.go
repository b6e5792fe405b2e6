// Package harness runs workflow scenarios against a real engine.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	fixtures:
//	  - ../fixtures/approved.cue
//	cases:
//	  - id: c1
//	    finanziamento: true
//	flow:
//	  - case: c1
//	    action: FASCICOLO.TAKE_COMM
//	    as: venditore
//	  - case: c1
//	    action: FASCICOLO.TAKE_BOF
//	    as: bof
//	    expect:
//	      outcome: denied
//	assertions:
//	  - type: trace_order
//	    actions: [FASCICOLO.TAKE_COMM, FASCICOLO.SEND_AS_COMM]
//	  - type: final_state
//	    case: c1
//	    expect: { overall: S02, progress: 55 }
//
// A flow step without expect must be applied. Expect can name the
// outcome (applied, noop, denied), the overall state after the step, or
// the dispatch error code.
//
// # Assertion Types
//
//   - trace_contains: a step with the action (and optional case, outcome) ran
//   - trace_order: applied actions appear in the given order
//   - trace_count: the action (with optional filters) ran exactly N times
//   - final_state: one row of a table (default cases) matches the expected columns
//   - available: the case is or is not in the pickup pool of a user
//
// # Deterministic Testing
//
// Every scenario runs in a fresh in-memory SQLite database with a logical
// clock starting at 1, timeline timestamps one minute apart from
// testutil.Epoch and request ids req-0001, req-0002, ... so traces are
// identical across runs and can be compared with golden files.
package harness
