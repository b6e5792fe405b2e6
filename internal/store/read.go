package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/fascicolo/internal/workflow"
)

// CaseRow is a stored case with its bookkeeping columns.
type CaseRow struct {
	Case       *workflow.Case
	Hash       string
	Version    int64
	UpdatedSeq int64
}

// ReadCase retrieves a single case by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCase(ctx context.Context, id string) (*workflow.Case, error) {
	row, err := s.ReadCaseRow(ctx, id)
	if err != nil {
		return nil, err
	}
	return row.Case, nil
}

// ReadCaseRow retrieves a case and its hash, version and last seq.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCaseRow(ctx context.Context, id string) (CaseRow, error) {
	var (
		r    CaseRow
		body string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT body, hash, version, updated_seq
		FROM cases
		WHERE id = ?
	`, id).Scan(&body, &r.Hash, &r.Version, &r.UpdatedSeq)
	if err != nil {
		return CaseRow{}, err
	}
	c, err := unmarshalCase(body)
	if err != nil {
		return CaseRow{}, fmt.Errorf("read case %s: %w", id, err)
	}
	r.Case = c
	return r, nil
}

// ReadSeed retrieves the snapshot of a case as first inserted.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSeed(ctx context.Context, id string) (*workflow.Case, string, error) {
	var body, hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT body, hash FROM case_seeds WHERE case_id = ?
	`, id).Scan(&body, &hash)
	if err != nil {
		return nil, "", err
	}
	c, err := unmarshalCase(body)
	if err != nil {
		return nil, "", fmt.Errorf("read seed %s: %w", id, err)
	}
	return c, hash, nil
}

// ReadAllCases returns every stored case ordered by id.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ReadAllCases(ctx context.Context) ([]*workflow.Case, error) {
	return queryCases(ctx, s.db, allCasesSQL)
}

const allCasesSQL = `
	SELECT body FROM cases
	ORDER BY id COLLATE BINARY ASC
`

// Snapshot is every stored case together with the last audit seq, read
// from one consistent view of the database.
type Snapshot struct {
	Cases   []*workflow.Case
	LastSeq int64
}

// ReadSnapshot reads all cases and the last seq inside one read
// transaction, so no dispatch recorded by another process can fall
// between the two reads.
func (s *Store) ReadSnapshot(ctx context.Context) (Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	cases, err := queryCases(ctx, tx, allCasesSQL)
	if err != nil {
		return Snapshot{}, err
	}
	seq, err := lastSeq(ctx, tx)
	if err != nil {
		return Snapshot{}, err
	}
	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit transaction: %w", err)
	}
	return Snapshot{Cases: cases, LastSeq: seq}, nil
}

// QueryCases runs a query whose single result column is the case body,
// typically one produced by querysql. Callers supply the ORDER BY.
func (s *Store) QueryCases(ctx context.Context, query string, args ...any) ([]*workflow.Case, error) {
	return queryCases(ctx, s.db, query, args...)
}

// queryer is the read surface shared by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCases(ctx context.Context, q queryer, query string, args ...any) ([]*workflow.Case, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	cases := []*workflow.Case{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		c, err := unmarshalCase(body)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}

// ListCaseIDs returns all case ids in binary order.
func (s *Store) ListCaseIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM cases ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list case ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan case id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case ids: %w", err)
	}
	return ids, nil
}

// ReadEvents returns the audit log of one case, or of every case when
// caseID is empty. Results are ordered by seq ASC, id COLLATE BINARY ASC.
func (s *Store) ReadEvents(ctx context.Context, caseID string) ([]CaseEvent, error) {
	query := `
		SELECT id, case_id, seq, action, actor_id, actor_role, actor_name, outcome, at, request_id, before_hash, after_hash
		FROM case_events`
	var args []any
	if caseID != "" {
		query += ` WHERE case_id = ?`
		args = append(args, caseID)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []CaseEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// LastSeq returns the highest seq in the audit log, or 0 when empty.
// Used to resume the engine's logical clock.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	return lastSeq(ctx, s.db)
}

func lastSeq(ctx context.Context, q queryer) (int64, error) {
	var seq int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM case_events
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}

func scanEvent(rows *sql.Rows) (CaseEvent, error) {
	var (
		ev                        CaseEvent
		action, role, outcome, at string
	)
	err := rows.Scan(
		&ev.ID,
		&ev.CaseID,
		&ev.Seq,
		&action,
		&ev.Actor.ID,
		&role,
		&ev.Actor.Name,
		&outcome,
		&at,
		&ev.RequestID,
		&ev.BeforeHash,
		&ev.AfterHash,
	)
	if err != nil {
		return CaseEvent{}, fmt.Errorf("scan event: %w", err)
	}
	ev.Action = workflow.Action(action)
	ev.Actor.Role = workflow.Role(role)
	ev.Outcome = Outcome(outcome)
	if ev.At, err = parseTime(at); err != nil {
		return CaseEvent{}, fmt.Errorf("scan event %s: %w", ev.ID, err)
	}
	return ev, nil
}

// Query runs a raw read query. The caller closes the rows.
// Values must be passed as args, never interpolated.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}
