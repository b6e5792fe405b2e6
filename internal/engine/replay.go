package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/fascicolo/internal/store"
)

// ErrNoStore is returned by operations that need a store when the
// engine was built without one.
var ErrNoStore = errors.New("engine has no store")

// Restore loads every stored case and resumes the logical clock after
// the last recorded event, both read from one consistent snapshot. Call
// it before Run.
//
// Restore trusts the stored records. Use Verify to check them against
// the audit log.
func (e *Engine) Restore(ctx context.Context) error {
	if e.store == nil {
		return ErrNoStore
	}
	snap, err := e.store.ReadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	e.Load(snap.Cases)
	e.clock.AdvanceTo(snap.LastSeq)
	e.logger.Info("engine restored", "cases", len(snap.Cases), "seq", snap.LastSeq)
	return nil
}

// Verify replays the audit log of every stored case from its seed and
// returns the cases that diverge. An empty result means the stored
// records are exactly what the log produces.
func (e *Engine) Verify(ctx context.Context) ([]store.ReplayResult, error) {
	if e.store == nil {
		return nil, ErrNoStore
	}
	results, err := e.store.ReplayAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	bad := []store.ReplayResult{}
	for _, r := range results {
		if !r.OK() {
			e.logger.Warn("replay diverged", "case", r.CaseID, "mismatches", len(r.Mismatches))
			bad = append(bad, r)
		}
	}
	return bad, nil
}
