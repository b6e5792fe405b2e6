package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/fascicolo/internal/workflow"
)

// ErrStaleCase is returned when an applied dispatch was computed from a
// record that is no longer the stored one, or whose row does not exist.
var ErrStaleCase = errors.New("stored case changed or missing")

// InsertCase stores a new case together with its seed snapshot.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: inserting an id that
// already exists leaves both the record and its seed untouched and
// reports inserted=false.
func (s *Store) InsertCase(ctx context.Context, c *workflow.Case) (inserted bool, err error) {
	body, hash, err := marshalCase(c)
	if err != nil {
		return false, fmt.Errorf("insert case: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	args := append([]any{c.ID}, projection(c)...)
	args = append(args, body, hash)
	result, err := tx.ExecContext(ctx, `
		INSERT INTO cases
		(id, number, overall, bo, bof, bou, owner_id,
		 in_charge_bo, in_charge_bof, in_charge_bou, in_charge_delivery, in_charge_vrc,
		 progress, body, hash, version, updated_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0)
		ON CONFLICT(id) DO NOTHING
	`, args...)
	if err != nil {
		return false, fmt.Errorf("insert case %s: %w", c.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO case_seeds (case_id, body, hash)
		VALUES (?, ?, ?)
		ON CONFLICT(case_id) DO NOTHING
	`, c.ID, body, hash); err != nil {
		return false, fmt.Errorf("insert seed %s: %w", c.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return true, nil
}

// RecordDispatch appends ev to the audit log and, when the outcome is
// OutcomeApplied, replaces the stored record with next. Both writes
// happen in one transaction.
//
// next is ignored for noop and denied outcomes. An applied outcome only
// replaces the row whose hash is still ev.BeforeHash; otherwise nothing
// is written and ErrStaleCase is returned. Re-recording an event id that
// already exists is a no-op.
func (s *Store) RecordDispatch(ctx context.Context, next *workflow.Case, ev CaseEvent) error {
	if !ev.Outcome.Valid() {
		return fmt.Errorf("record dispatch: invalid outcome %q", ev.Outcome)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO case_events
		(id, case_id, seq, action, actor_id, actor_role, actor_name, outcome, at, request_id, before_hash, after_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.ID,
		ev.CaseID,
		ev.Seq,
		string(ev.Action),
		ev.Actor.ID,
		string(ev.Actor.Role),
		ev.Actor.Name,
		string(ev.Outcome),
		formatTime(ev.At),
		ev.RequestID,
		ev.BeforeHash,
		ev.AfterHash,
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", ev.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		// Already recorded.
		return nil
	}

	if ev.Outcome == OutcomeApplied {
		if err := updateCase(ctx, tx, next, ev.Seq, ev.BeforeHash); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func updateCase(ctx context.Context, tx *sql.Tx, c *workflow.Case, seq int64, beforeHash string) error {
	if c == nil {
		return fmt.Errorf("update case: nil record")
	}
	body, hash, err := marshalCase(c)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}

	args := projection(c)[1:]
	args = append(args, body, hash, seq, c.ID, beforeHash)
	result, err := tx.ExecContext(ctx, `
		UPDATE cases SET
			overall = ?, bo = ?, bof = ?, bou = ?, owner_id = ?,
			in_charge_bo = ?, in_charge_bof = ?, in_charge_bou = ?,
			in_charge_delivery = ?, in_charge_vrc = ?,
			progress = ?, body = ?, hash = ?,
			version = version + 1, updated_seq = ?
		WHERE id = ? AND hash = ?
	`, args...)
	if err != nil {
		return fmt.Errorf("update case %s: %w", c.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("update case %s: %w", c.ID, ErrStaleCase)
	}
	return nil
}

// projection returns the queryable columns of c in schema order,
// starting with number.
func projection(c *workflow.Case) []any {
	return []any{
		c.Number,
		string(workflow.ResolveOverall(c)),
		string(c.Workflow.BO),
		string(c.Workflow.BOF),
		string(c.Workflow.BOU),
		workflow.NormalizeOwner(c.OwnerID),
		c.InChargeBO,
		c.InChargeBOF,
		c.InChargeBOU,
		c.InChargeDelivery,
		c.InChargeVRC,
		c.Progress,
	}
}
