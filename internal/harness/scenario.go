package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fascicolo/internal/store"
	"github.com/roach88/fascicolo/internal/workflow"
)

// Scenario defines a workflow test scenario: seed cases, run a flow of
// actions through the engine and assert on the trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixtures lists CUE or YAML fixture files (or directories) to seed.
	// Paths are relative to the base path given at load time.
	Fixtures []string `yaml:"fixtures,omitempty"`

	// Cases seeds fresh drafts inline.
	Cases []CaseSeed `yaml:"cases,omitempty"`

	// Flow contains the actions to dispatch, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count,
	// final_state, available
	Assertions []Assertion `yaml:"assertions"`
}

// CaseSeed describes a draft created before the flow.
type CaseSeed struct {
	ID            string `yaml:"id"`
	Number        string `yaml:"number,omitempty"`
	Finanziamento bool   `yaml:"finanziamento,omitempty"`
	Permuta       bool   `yaml:"permuta,omitempty"`
}

// FlowStep dispatches one action on one case.
type FlowStep struct {
	Case   string `yaml:"case"`
	Action string `yaml:"action"`

	// As is a username resolved through the demo directory.
	As string `yaml:"as,omitempty"`

	// User overrides As with an explicit identity.
	User *workflow.User `yaml:"user,omitempty"`

	// Expect is checked against the engine's answer. Nil expects an
	// applied outcome.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected dispatch outcome.
type ExpectClause struct {
	// Outcome is applied, noop or denied.
	Outcome string `yaml:"outcome,omitempty"`

	// Overall is the expected overall state after the step.
	Overall string `yaml:"overall,omitempty"`

	// Error is the expected dispatch error code, e.g. PERMISSION_DENIED.
	Error string `yaml:"error,omitempty"`
}

// Actor resolves the identity that performs the step.
func (s FlowStep) Actor() (workflow.User, error) {
	if s.User != nil {
		return *s.User, nil
	}
	u, ok := workflow.ResolveUser(s.As)
	if !ok {
		return workflow.User{}, fmt.Errorf("no actor: set as or user")
	}
	return u, nil
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a step with action (and case, outcome) is in the trace
	// - "trace_order": actions appear in order
	// - "trace_count": action appears exactly Count times
	// - "final_state": a row of a table matches Expect
	// - "available": the case is or is not in the pickup pool of As
	Type string `yaml:"type"`

	Action  string   `yaml:"action,omitempty"`
	Case    string   `yaml:"case,omitempty"`
	Outcome string   `yaml:"outcome,omitempty"`
	Actions []string `yaml:"actions,omitempty"`
	Count   int      `yaml:"count,omitempty"`

	// Table defaults to cases for final_state.
	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`

	As        string `yaml:"as,omitempty"`
	Available *bool  `yaml:"available,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertAvailable     = "available"
)

// LoadScenario reads and parses a scenario YAML file. Fixture paths are
// resolved against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving fixture paths relative to basePath.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	for i, p := range scenario.Fixtures {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Fixtures[i] = filepath.Join(basePath, p)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario without touching the filesystem.
// Fixture paths are left as written and not checked.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateShape(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks the shape and that fixture paths exist.
func validateScenario(s *Scenario) error {
	if err := validateShape(s); err != nil {
		return err
	}
	for _, p := range s.Fixtures {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("fixture not found: %s", p)
		}
	}
	return nil
}

func validateShape(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Fixtures) == 0 && len(s.Cases) == 0 {
		return fmt.Errorf("fixtures or cases are required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, c := range s.Cases {
		if c.ID == "" {
			return fmt.Errorf("cases[%d]: id is required", i)
		}
	}

	for i, step := range s.Flow {
		if step.Case == "" {
			return fmt.Errorf("flow[%d]: case is required", i)
		}
		if _, err := workflow.ParseAction(step.Action); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.As == "" && step.User == nil {
			return fmt.Errorf("flow[%d]: as or user is required", i)
		}
		if step.Expect != nil && step.Expect.Outcome != "" && !store.Outcome(step.Expect.Outcome).Valid() {
			return fmt.Errorf("flow[%d].expect: unknown outcome %q", i, step.Expect.Outcome)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertAvailable:
		if a.Case == "" || a.As == "" || a.Available == nil {
			return fmt.Errorf("assertions[%d]: case, as and available are required for available", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
