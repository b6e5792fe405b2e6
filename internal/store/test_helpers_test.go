package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fascicolo/internal/ir"
	"github.com/roach88/fascicolo/internal/testutil"
	"github.com/roach88/fascicolo/internal/workflow"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// recorder plays steps against a stored case the way the engine does:
// classify, hash, record.
type recorder struct {
	t     *testing.T
	s     *Store
	cur   *workflow.Case
	seq   int64
	clock *testutil.StepClock
}

func newRecorder(t *testing.T, s *Store, c *workflow.Case) *recorder {
	t.Helper()
	inserted, err := s.InsertCase(context.Background(), c)
	require.NoError(t, err)
	require.True(t, inserted)
	return &recorder{t: t, s: s, cur: c, clock: testutil.NewStepClock(testutil.Epoch.Add(time.Hour), time.Minute)}
}

func (r *recorder) play(steps ...testutil.Step) *workflow.Case {
	r.t.Helper()
	for _, st := range steps {
		r.seq++
		ev := r.event(st)
		next, outcome := replayStep(r.cur, ev)
		ev.Outcome = outcome
		ev.AfterHash = ir.MustCaseHash(next)
		require.NoError(r.t, r.s.RecordDispatch(context.Background(), next, ev))
		r.cur = next
	}
	return r.cur
}

func (r *recorder) event(st testutil.Step) CaseEvent {
	id, err := ir.EventID(r.cur.ID, r.seq, string(st.Action), st.Actor.ID)
	require.NoError(r.t, err)
	return CaseEvent{
		ID:         id,
		CaseID:     r.cur.ID,
		Seq:        r.seq,
		Action:     st.Action,
		Actor:      st.Actor,
		At:         r.clock.Now(),
		RequestID:  "req",
		BeforeHash: ir.MustCaseHash(r.cur),
	}
}
