package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/fascicolo/internal/compiler"
	"github.com/roach88/fascicolo/internal/engine"
	"github.com/roach88/fascicolo/internal/store"
	"github.com/roach88/fascicolo/internal/testutil"
	"github.com/roach88/fascicolo/internal/workflow"
)

// StepInterval is the wall-clock distance between two dispatches in a
// scenario. Timeline timestamps start at testutil.Epoch.
const StepInterval = time.Minute

// Harness is the test execution engine.
// It runs scenarios against a real engine with a deterministic clock and
// request ids.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and engine
// 2. Compile fixtures and create inline drafts
// 3. Dispatch flow steps and check expect clauses
// 4. Evaluate assertions
//
// A returned error means the scenario could not run. Failed expectations
// are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	eng := engine.New(
		engine.WithStore(st),
		engine.WithLogger(logger),
		engine.WithNow(testutil.NewStepClock(testutil.Epoch, StepInterval).Now),
		engine.WithRequestIDs(testutil.NewSequenceGenerator("req")),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- eng.Run(ctx) }()
	defer func() {
		eng.Stop()
		<-runErr
	}()

	h := &Harness{store: st, engine: eng, logger: logger}

	if err := h.seed(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to seed cases: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
		Case:  eng.Get,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// seed creates fixture cases first, then inline drafts.
func (h *Harness) seed(ctx context.Context, scenario *Scenario) error {
	var cases []*workflow.Case

	if len(scenario.Fixtures) > 0 {
		comp, err := compiler.New()
		if err != nil {
			return err
		}
		for _, path := range scenario.Fixtures {
			got, err := comp.LoadPath(path)
			if err != nil {
				return err
			}
			cases = append(cases, got...)
		}
	}

	for _, seed := range scenario.Cases {
		number := seed.Number
		if number == "" {
			number = "2026/" + seed.ID
		}
		cases = append(cases, workflow.NewDraft(seed.ID, number, seed.Finanziamento, seed.Permuta, testutil.Epoch))
	}

	if errs := compiler.Validate(cases); len(errs) > 0 {
		return errs[0]
	}

	for _, c := range cases {
		if _, err := h.engine.Create(ctx, c); err != nil {
			return fmt.Errorf("create %s: %w", c.ID, err)
		}
	}
	return nil
}

// executeFlow dispatches every step and compares the engine's answer with
// the step's expect clause.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		actor, err := step.Actor()
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		res, dispatchErr := h.engine.Dispatch(ctx, engine.Command{
			CaseID: step.Case,
			Action: workflow.Action(step.Action),
			Actor:  actor,
		})

		code := engine.CodeOf(dispatchErr)
		var de *engine.DispatchError
		if dispatchErr != nil && !errors.As(dispatchErr, &de) {
			return fmt.Errorf("flow step %d: %w", i, dispatchErr)
		}
		if code == engine.ErrCodeEngineStopped || code == engine.ErrCodePersistFailed {
			return fmt.Errorf("flow step %d: %w", i, dispatchErr)
		}

		ev := TraceEvent{
			Seq:     res.Seq,
			Case:    step.Case,
			Action:  step.Action,
			Actor:   actor.ID,
			Role:    string(actor.Role),
			Outcome: string(res.Outcome),
			Error:   string(code),
		}
		if res.Case != nil {
			ev.Overall = string(workflow.ResolveOverall(res.Case))
		}
		result.AddTrace(ev)

		for _, msg := range checkExpect(i, step, ev) {
			result.AddError(msg)
		}

		h.logger.Info("flow step completed",
			"step", i,
			"case", step.Case,
			"action", step.Action,
			"outcome", ev.Outcome,
			"seq", ev.Seq,
		)
	}
	return nil
}

// checkExpect compares one trace event with its step's expectations.
// A step without expect must be applied.
func checkExpect(i int, step FlowStep, ev TraceEvent) []string {
	want := ExpectClause{Outcome: string(store.OutcomeApplied)}
	if step.Expect != nil {
		want = *step.Expect
		if want.Outcome == "" && want.Error == "" {
			want.Outcome = string(store.OutcomeApplied)
		}
	}

	var msgs []string
	if want.Outcome != "" && ev.Outcome != want.Outcome {
		msgs = append(msgs, fmt.Sprintf("flow[%d] %s on %s: expected outcome %s, got %q (error %q)",
			i, step.Action, step.Case, want.Outcome, ev.Outcome, ev.Error))
	}
	if want.Error != ev.Error && (want.Error != "" || want.Outcome != string(store.OutcomeDenied)) {
		msgs = append(msgs, fmt.Sprintf("flow[%d] %s on %s: expected error %q, got %q",
			i, step.Action, step.Case, want.Error, ev.Error))
	}
	if want.Overall != "" && ev.Overall != want.Overall {
		msgs = append(msgs, fmt.Sprintf("flow[%d] %s on %s: expected overall %s, got %s",
			i, step.Action, step.Case, want.Overall, ev.Overall))
	}
	return msgs
}
