package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fascicolo/internal/store"
	"github.com/roach88/fascicolo/internal/testutil"
	"github.com/roach88/fascicolo/internal/workflow"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestEngine builds an engine with deterministic clocks and ids and a
// discard logger.
func newTestEngine(opts ...EngineOption) *Engine {
	base := []EngineOption{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithNow(testutil.NewStepClock(testutil.Epoch.Add(time.Hour), time.Minute).Now),
		WithRequestIDs(testutil.NewSequenceGenerator("req")),
	}
	return New(append(base, opts...)...)
}

// runEngine starts e.Run and stops it at test cleanup.
func runEngine(t *testing.T, e *Engine) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(context.Background()) }()
	t.Cleanup(func() {
		e.Stop()
		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("engine did not stop")
		}
	})
}

func dispatch(t *testing.T, e *Engine, caseID string, steps ...testutil.Step) Result {
	t.Helper()
	var res Result
	for _, s := range steps {
		var err error
		res, err = e.Dispatch(context.Background(), Command{CaseID: caseID, Action: s.Action, Actor: s.Actor})
		require.NoError(t, err, "%s by %s", s.Action, s.Actor.Role)
		require.True(t, res.Applied, "%s by %s", s.Action, s.Actor.Role)
	}
	return res
}

func createDraft(t *testing.T, e *Engine, id string, fin, perm bool) *workflow.Case {
	t.Helper()
	c, err := e.Create(context.Background(), testutil.DraftCase(id, fin, perm))
	require.NoError(t, err)
	return c
}
