package store

import (
	"context"
	"fmt"

	"github.com/roach88/fascicolo/internal/ir"
	"github.com/roach88/fascicolo/internal/workflow"
)

// Mismatch describes one divergence found while replaying a case.
type Mismatch struct {
	Seq     int64  `json:"seq"`
	EventID string `json:"event_id,omitempty"`
	Reason  string `json:"reason"`
}

// ReplayResult is the outcome of re-applying a case's audit log to its
// seed snapshot.
type ReplayResult struct {
	CaseID     string         `json:"case_id"`
	Events     int            `json:"events"`
	Applied    int            `json:"applied"`
	SeedHash   string         `json:"seed_hash"`
	FinalHash  string         `json:"final_hash"`
	StoredHash string         `json:"stored_hash"`
	Mismatches []Mismatch     `json:"mismatches"`
	Case       *workflow.Case `json:"-"`
}

// OK reports whether replay reproduced every recorded step and the
// stored record.
func (r ReplayResult) OK() bool {
	return len(r.Mismatches) == 0
}

// ReplayCase rebuilds a case from its seed and audit log with
// workflow.Apply and checks every recorded outcome and hash.
//
// A divergence is reported in the result, not as an error. Errors are
// reserved for storage failures and unknown case ids (sql.ErrNoRows).
func (s *Store) ReplayCase(ctx context.Context, id string) (ReplayResult, error) {
	stored, err := s.ReadCaseRow(ctx, id)
	if err != nil {
		return ReplayResult{}, err
	}
	cur, seedHash, err := s.ReadSeed(ctx, id)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}
	events, err := s.ReadEvents(ctx, id)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}

	res := ReplayResult{
		CaseID:     id,
		Events:     len(events),
		SeedHash:   seedHash,
		StoredHash: stored.Hash,
		Mismatches: []Mismatch{},
	}

	curHash, err := ir.CaseHash(cur)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}
	if curHash != seedHash {
		res.Mismatches = append(res.Mismatches, Mismatch{
			Reason: fmt.Sprintf("seed rehashes to %s, recorded %s", curHash, seedHash),
		})
	}

	for _, ev := range events {
		if ev.BeforeHash != curHash {
			res.Mismatches = append(res.Mismatches, Mismatch{
				Seq:     ev.Seq,
				EventID: ev.ID,
				Reason:  fmt.Sprintf("before hash %s, replayed %s", ev.BeforeHash, curHash),
			})
		}

		next, outcome := replayStep(cur, ev)
		if outcome != ev.Outcome {
			res.Mismatches = append(res.Mismatches, Mismatch{
				Seq:     ev.Seq,
				EventID: ev.ID,
				Reason:  fmt.Sprintf("outcome %s, replayed %s", ev.Outcome, outcome),
			})
		}

		if outcome == OutcomeApplied {
			res.Applied++
			if curHash, err = ir.CaseHash(next); err != nil {
				return ReplayResult{}, fmt.Errorf("replay %s seq %d: %w", id, ev.Seq, err)
			}
		}
		if ev.AfterHash != curHash {
			res.Mismatches = append(res.Mismatches, Mismatch{
				Seq:     ev.Seq,
				EventID: ev.ID,
				Reason:  fmt.Sprintf("after hash %s, replayed %s", ev.AfterHash, curHash),
			})
		}
		cur = next
	}

	res.FinalHash = curHash
	res.Case = cur
	if curHash != stored.Hash {
		res.Mismatches = append(res.Mismatches, Mismatch{
			Reason: fmt.Sprintf("stored hash %s, replayed %s", stored.Hash, curHash),
		})
	}
	return res, nil
}

// ReplayAll replays every case in id order.
func (s *Store) ReplayAll(ctx context.Context) ([]ReplayResult, error) {
	ids, err := s.ListCaseIDs(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]ReplayResult, 0, len(ids))
	for _, id := range ids {
		res, err := s.ReplayCase(ctx, id)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// replayStep re-applies one event and classifies the result the way the
// engine does at dispatch time.
func replayStep(cur *workflow.Case, ev CaseEvent) (*workflow.Case, Outcome) {
	if !workflow.Can(ev.Actor, ev.Action, workflow.BuildContext(cur, ev.Actor.Role)) {
		return cur, OutcomeDenied
	}
	next := workflow.Apply(cur, ev.Action, ev.Actor, ev.At)
	if next == cur {
		return cur, OutcomeNoop
	}
	return next, OutcomeApplied
}
