package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fascicolo/internal/store"
	"github.com/roach88/fascicolo/internal/testutil"
	"github.com/roach88/fascicolo/internal/workflow"
)

func TestEngine_New(t *testing.T) {
	e := New()
	assert.Empty(t, e.Snapshot())
	assert.Equal(t, int64(0), e.clock.Current())
	assert.NotNil(t, e.metrics)
}

func TestEngine_LoadSnapshotGet(t *testing.T) {
	e := newTestEngine()
	b := testutil.DraftCase("F-2", false, false)
	a := testutil.DraftCase("F-1", false, false)
	e.Load([]*workflow.Case{b, nil, a, {}})

	snap := e.Snapshot()
	require.Len(t, snap, 2)
	assert.Same(t, a, snap[0])
	assert.Same(t, b, snap[1])

	got, ok := e.Get("F-2")
	require.True(t, ok)
	assert.Same(t, b, got)

	_, ok = e.Get("missing")
	assert.False(t, ok)
}

func TestEngine_DispatchApplies(t *testing.T) {
	e := newTestEngine()
	runEngine(t, e)
	before := createDraft(t, e, "F-1", false, false)

	res, err := e.Dispatch(context.Background(), Command{
		CaseID: "F-1", Action: workflow.ActionTakeComm, Actor: testutil.Salesperson,
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, store.OutcomeApplied, res.Outcome)
	assert.Equal(t, int64(1), res.Seq)
	assert.Equal(t, "req-0001", res.RequestID)
	assert.Equal(t, workflow.StateNew, res.Case.Workflow.Overall)

	cur, _ := e.Get("F-1")
	assert.Same(t, res.Case, cur)
	assert.NotSame(t, before, cur)
	assert.Equal(t, workflow.StateDraft, before.Workflow.Overall, "old record untouched")
}

func TestEngine_DispatchDenied(t *testing.T) {
	e := newTestEngine()
	runEngine(t, e)
	before := createDraft(t, e, "F-1", false, false)

	res, err := e.Dispatch(context.Background(), Command{
		CaseID: "F-1", Action: workflow.ActionTakeBO, Actor: testutil.BO,
	})
	require.Error(t, err)
	assert.True(t, IsDenied(err))
	assert.False(t, res.Applied)
	assert.Equal(t, store.OutcomeDenied, res.Outcome)
	assert.Same(t, before, res.Case)

	cur, _ := e.Get("F-1")
	assert.Same(t, before, cur)
}

func TestEngine_DispatchUnknownCase(t *testing.T) {
	e := newTestEngine()
	runEngine(t, e)

	_, err := e.Dispatch(context.Background(), Command{
		CaseID: "nope", Action: workflow.ActionTakeComm, Actor: testutil.Salesperson,
	})
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int64(0), e.clock.Current(), "no seq for unknown case")
}

func TestEngine_DispatchUnknownAction(t *testing.T) {
	e := newTestEngine()

	for _, a := range []workflow.Action{"", "FASCICOLO.NOPE", workflow.ActionViewAll} {
		_, err := e.Dispatch(context.Background(), Command{CaseID: "F-1", Action: a, Actor: testutil.Salesperson})
		assert.Equal(t, ErrCodeUnknownAction, CodeOf(err), "action %q", a)
	}
}

func TestEngine_FullLifecycle(t *testing.T) {
	e := newTestEngine()
	runEngine(t, e)
	createDraft(t, e, "F-1", true, true)

	res := dispatch(t, e, "F-1", testutil.Intake()...)
	res = dispatch(t, e, "F-1", testutil.ValidateAll(res.Case)...)
	assert.Equal(t, workflow.StateApproved, res.Case.Workflow.Overall)

	res = dispatch(t, e, "F-1", testutil.Deliver()...)
	assert.Equal(t, workflow.StateDelivered, res.Case.Workflow.Overall)
	assert.Equal(t, workflow.ProgressDelivered, res.Case.Progress)
	assert.Equal(t, int64(12), res.Seq)
}

func TestEngine_CreateDuplicate(t *testing.T) {
	e := newTestEngine()
	runEngine(t, e)
	createDraft(t, e, "F-1", false, false)

	_, err := e.Create(context.Background(), testutil.DraftCase("F-1", true, true))
	assert.Equal(t, ErrCodeCaseExists, CodeOf(err))

	_, err = e.Create(context.Background(), &workflow.Case{})
	assert.Equal(t, ErrCodeInvalidCase, CodeOf(err))
}

func TestEngine_CreateKeepsOwnCopy(t *testing.T) {
	e := newTestEngine()
	runEngine(t, e)

	input := testutil.DraftCase("F-1", false, false)
	got, err := e.Create(context.Background(), input)
	require.NoError(t, err)
	assert.NotSame(t, input, got)

	input.Number = "changed"
	cur, _ := e.Get("F-1")
	assert.NotEqual(t, "changed", cur.Number)
}

func TestEngine_Subscribe(t *testing.T) {
	e := newTestEngine()
	runEngine(t, e)

	var (
		mu      sync.Mutex
		changes []Change
	)
	unsubscribe := e.Subscribe(func(ch Change) {
		mu.Lock()
		changes = append(changes, ch)
		mu.Unlock()
	})

	created := createDraft(t, e, "F-1", false, false)
	res := dispatch(t, e, "F-1", testutil.Intake()[0])
	_, _ = e.Dispatch(context.Background(), Command{CaseID: "F-1", Action: workflow.ActionTakeBO, Actor: testutil.BO})

	unsubscribe()
	unsubscribe()
	dispatch(t, e, "F-1", testutil.Intake()[1])

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 2, "denied dispatch and post-unsubscribe change not delivered")
	assert.Nil(t, changes[0].Before)
	assert.Same(t, created, changes[0].After)
	assert.Same(t, created, changes[1].Before)
	assert.Same(t, res.Case, changes[1].After)
	assert.Equal(t, int64(1), changes[1].Seq)
}

func TestEngine_ConcurrentDispatchSerialized(t *testing.T) {
	e := newTestEngine()
	runEngine(t, e)
	createDraft(t, e, "F-1", false, false)

	const callers = 20
	var wg sync.WaitGroup
	applied := make(chan int64, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.Dispatch(context.Background(), Command{
				CaseID: "F-1", Action: workflow.ActionTakeComm, Actor: testutil.Salesperson,
			})
			if err == nil && res.Applied {
				applied <- res.Seq
			}
		}()
	}
	wg.Wait()
	close(applied)

	var n int
	for range applied {
		n++
	}
	assert.Equal(t, 1, n, "only the first TAKE_COMM on a draft applies")
	assert.Equal(t, int64(callers), e.clock.Current())
}

func TestEngine_StopRejectsNewWork(t *testing.T) {
	e := newTestEngine()
	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(context.Background()) }()

	createDraft(t, e, "F-1", false, false)
	e.Stop()
	require.NoError(t, <-errCh)

	_, err := e.Dispatch(context.Background(), Command{CaseID: "F-1", Action: workflow.ActionTakeComm, Actor: testutil.Salesperson})
	assert.True(t, IsStopped(err))
}

func TestEngine_RunStopsOnContext(t *testing.T) {
	e := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, err := e.Dispatch(context.Background(), Command{CaseID: "F-1", Action: workflow.ActionTakeComm, Actor: testutil.Salesperson})
	assert.True(t, IsStopped(err))
}

func TestEngine_DispatchHonoursCallerContext(t *testing.T) {
	e := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No Run loop: the request is queued but never answered.
	_, err := e.Dispatch(ctx, Command{CaseID: "F-1", Action: workflow.ActionTakeComm, Actor: testutil.Salesperson})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_StopDrainsQueue(t *testing.T) {
	e := newTestEngine()
	e.Load([]*workflow.Case{testutil.DraftCase("F-1", false, false)})

	replyCh := make(chan error, 1)
	go func() {
		_, err := e.Dispatch(context.Background(), Command{CaseID: "F-1", Action: workflow.ActionTakeComm, Actor: testutil.Salesperson})
		replyCh <- err
	}()
	require.Eventually(t, func() bool { return e.queue.Len() == 1 }, time.Second, time.Millisecond)

	e.Stop()
	require.NoError(t, e.Run(context.Background()))
	require.NoError(t, <-replyCh)

	cur, _ := e.Get("F-1")
	assert.Equal(t, workflow.StateNew, cur.Workflow.Overall)
}
