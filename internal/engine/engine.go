package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/roach88/fascicolo/internal/ir"
	"github.com/roach88/fascicolo/internal/store"
	"github.com/roach88/fascicolo/internal/workflow"
)

// Command asks the engine to apply one action to one case.
type Command struct {
	CaseID string
	Action workflow.Action
	Actor  workflow.User

	// RequestID correlates the command in logs and the audit log.
	// Generated when empty.
	RequestID string
}

// Result describes a processed command.
type Result struct {
	CaseID    string
	Action    workflow.Action
	Outcome   store.Outcome
	Applied   bool
	Seq       int64
	RequestID string

	// Case is the record after processing: the new record when Applied,
	// otherwise the unchanged current one.
	Case *workflow.Case
}

// Change is delivered to subscribers after a record is replaced.
// Before is nil for a created case.
type Change struct {
	CaseID string
	Before *workflow.Case
	After  *workflow.Case
	Seq    int64
}

// Engine is the workflow store object: it owns the case collection and
// serializes every mutation through a single Run goroutine.
//
// A dispatch is read current, compute next, persist, replace, notify.
// Records are never mutated in place; a change installs a new pointer, so
// holders of an old record keep a consistent snapshot and subscribers can
// detect change by pointer identity.
//
// Thread-safety model:
//   - Dispatch(), Create(): safe from any goroutine, block until processed
//   - Snapshot(), Get(), Subscribe(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Engine struct {
	mu    sync.RWMutex
	cases map[string]*workflow.Case

	store   *store.Store
	clock   *Clock
	now     func() time.Time
	ids     RequestIDGenerator
	logger  *slog.Logger
	meter   metric.Meter
	metrics *metrics

	queue    *requestQueue
	done     chan struct{}
	doneOnce sync.Once

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithStore persists every change and audit event to s.
// Without a store the engine is purely in-memory.
func WithStore(s *store.Store) EngineOption {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMeter sets the meter for engine metrics. Default: the global
// provider's meter, a no-op until one is installed.
func WithMeter(m metric.Meter) EngineOption {
	return func(e *Engine) {
		e.meter = m
	}
}

// WithClock sets the logical clock. Used to resume after a known seq.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithNow sets the wall clock used for timeline timestamps.
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRequestIDs sets the generator for missing request ids.
func WithRequestIDs(g RequestIDGenerator) EngineOption {
	return func(e *Engine) {
		e.ids = g
	}
}

// New creates an empty Engine. Call Load or Restore to fill it and Run
// to start processing.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		cases:  make(map[string]*workflow.Case),
		clock:  NewClock(),
		now:    time.Now,
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
		queue:  newRequestQueue(),
		done:   make(chan struct{}),
		subs:   make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.metrics = newMetrics(e.meter)
	return e
}

// Load replaces the in-memory collection with cases. Nothing is
// persisted. Nil records and records without an id are skipped; on
// duplicate ids the last one wins.
func (e *Engine) Load(cases []*workflow.Case) {
	next := make(map[string]*workflow.Case, len(cases))
	for _, c := range cases {
		if c == nil || c.ID == "" {
			continue
		}
		next[c.ID] = c
	}

	e.mu.Lock()
	prev := len(e.cases)
	e.cases = next
	e.mu.Unlock()

	e.metrics.cases.Add(context.Background(), int64(len(next)-prev))
	e.logger.Debug("cases loaded", "count", len(next))
}

// Snapshot returns every current record ordered by id.
// The records are shared and must not be modified.
func (e *Engine) Snapshot() []*workflow.Case {
	e.mu.RLock()
	out := make([]*workflow.Case, 0, len(e.cases))
	for _, c := range e.cases {
		out = append(out, c)
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the current record of a case.
// The record is shared and must not be modified.
func (e *Engine) Get(id string) (*workflow.Case, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.cases[id]
	return c, ok
}

// Subscribe registers fn to be called after every record replacement.
// fn runs on the Run goroutine and must not call Dispatch or Create.
// The returned function unregisters fn; it is safe to call twice.
func (e *Engine) Subscribe(fn func(Change)) (unsubscribe func()) {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

// Dispatch submits cmd to the Run loop and waits for the outcome.
//
// A denied command returns the current record in Result and a
// PERMISSION_DENIED error. If ctx ends first, ctx.Err() is returned;
// the command may still be processed.
func (e *Engine) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	if !cmd.Action.IsTransition() {
		return Result{CaseID: cmd.CaseID, Action: cmd.Action}, newUnknownActionError(cmd)
	}
	if cmd.RequestID == "" {
		cmd.RequestID = e.ids.Generate()
	}
	return e.submit(ctx, request{kind: requestDispatch, cmd: cmd})
}

// Create adds a new case and persists it with its seed snapshot.
// The engine keeps its own copy of c.
func (e *Engine) Create(ctx context.Context, c *workflow.Case) (*workflow.Case, error) {
	if c == nil || c.ID == "" {
		return nil, &DispatchError{Code: ErrCodeInvalidCase, Message: "case needs an id"}
	}
	res, err := e.submit(ctx, request{kind: requestCreate, create: c.Clone(), cmd: Command{CaseID: c.ID}})
	return res.Case, err
}

func (e *Engine) submit(ctx context.Context, r request) (Result, error) {
	r.reply = make(chan reply, 1)
	if !e.queue.Enqueue(r) {
		return Result{}, newStoppedError(r.cmd.CaseID, r.cmd.Action)
	}
	select {
	case rep := <-r.reply:
		return rep.result, rep.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-e.done:
		// Run may have answered just before exiting.
		select {
		case rep := <-r.reply:
			return rep.result, rep.err
		default:
			return Result{}, newStoppedError(r.cmd.CaseID, r.cmd.Action)
		}
	}
}

// Run starts the single-writer loop.
// Blocks until ctx is cancelled or Stop() is called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// After Stop(), requests already queued are processed before Run
// returns. After ctx cancellation they are answered with
// ENGINE_STOPPED.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "cases", len(e.Snapshot()), "seq", e.clock.Current())
	defer e.doneOnce.Do(func() { close(e.done) })

	for {
		if r, ok := e.queue.TryDequeue(); ok {
			r.reply <- e.process(ctx, r)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue.
			if e.queue.Len() == 0 && e.isClosed() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue, which will cause Run() to return once drained.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) isClosed() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

// process handles one request.
// CRITICAL: Called only from Run() goroutine - single-writer guarantee.
func (e *Engine) process(ctx context.Context, r request) reply {
	switch r.kind {
	case requestDispatch:
		res, err := e.dispatch(ctx, r.cmd)
		return reply{result: res, err: err}
	case requestCreate:
		c, err := e.create(ctx, r.create)
		return reply{result: Result{CaseID: r.create.ID, Case: c}, err: err}
	default:
		return reply{err: fmt.Errorf("unknown request kind: %d", r.kind)}
	}
}

func (e *Engine) dispatch(ctx context.Context, cmd Command) (Result, error) {
	start := time.Now()
	res := Result{CaseID: cmd.CaseID, Action: cmd.Action, RequestID: cmd.RequestID}

	cur, ok := e.Get(cmd.CaseID)
	if !ok {
		e.logger.Info("dispatch to unknown case",
			"case", cmd.CaseID, "action", cmd.Action, "request_id", cmd.RequestID)
		return res, newNotFoundError(cmd.CaseID, cmd.Action)
	}

	at := e.now().UTC()
	next := cur
	res.Outcome = store.OutcomeDenied
	if workflow.Can(cmd.Actor, cmd.Action, workflow.BuildContext(cur, cmd.Actor.Role)) {
		next = workflow.Apply(cur, cmd.Action, cmd.Actor, at)
		res.Outcome = store.OutcomeNoop
		if next != cur {
			res.Outcome = store.OutcomeApplied
		}
	}
	res.Seq = e.clock.Next()

	if e.store != nil {
		if err := e.persistDispatch(ctx, cur, next, cmd, res, at); err != nil {
			e.metrics.recordFailure(ctx, "dispatch")
			e.logger.Error("persist dispatch failed",
				"case", cmd.CaseID, "action", cmd.Action, "seq", res.Seq,
				"request_id", cmd.RequestID, "error", err)
			res.Case = cur
			return res, newPersistError(cmd.CaseID, cmd.Action, err)
		}
	}

	e.metrics.recordDispatch(ctx, cmd.Action, res.Outcome, start)
	res.Case = next

	switch res.Outcome {
	case store.OutcomeDenied:
		e.logger.Info("dispatch denied",
			"case", cmd.CaseID, "action", cmd.Action, "role", cmd.Actor.Role,
			"user", cmd.Actor.ID, "state", workflow.BuildContext(cur, cmd.Actor.Role).State,
			"seq", res.Seq, "request_id", cmd.RequestID)
		return res, newDeniedError(cmd)
	case store.OutcomeNoop:
		e.logger.Debug("dispatch had no effect",
			"case", cmd.CaseID, "action", cmd.Action, "seq", res.Seq, "request_id", cmd.RequestID)
		return res, nil
	}

	res.Applied = true
	e.replace(next)
	e.logger.Debug("dispatch applied",
		"case", cmd.CaseID, "action", cmd.Action, "overall", next.Workflow.Overall,
		"seq", res.Seq, "request_id", cmd.RequestID)
	e.notify(Change{CaseID: cmd.CaseID, Before: cur, After: next, Seq: res.Seq})
	return res, nil
}

func (e *Engine) persistDispatch(ctx context.Context, cur, next *workflow.Case, cmd Command, res Result, at time.Time) error {
	before, err := ir.CaseHash(cur)
	if err != nil {
		return err
	}
	after := before
	if next != cur {
		if after, err = ir.CaseHash(next); err != nil {
			return err
		}
	}
	id, err := ir.EventID(cmd.CaseID, res.Seq, string(cmd.Action), cmd.Actor.ID)
	if err != nil {
		return err
	}
	return e.store.RecordDispatch(ctx, next, store.CaseEvent{
		ID:         id,
		CaseID:     cmd.CaseID,
		Seq:        res.Seq,
		Action:     cmd.Action,
		Actor:      cmd.Actor,
		Outcome:    res.Outcome,
		At:         at,
		RequestID:  cmd.RequestID,
		BeforeHash: before,
		AfterHash:  after,
	})
}

func (e *Engine) create(ctx context.Context, c *workflow.Case) (*workflow.Case, error) {
	if _, exists := e.Get(c.ID); exists {
		return nil, &DispatchError{Code: ErrCodeCaseExists, Message: "case id already in use", CaseID: c.ID}
	}
	if e.store != nil {
		inserted, err := e.store.InsertCase(ctx, c)
		if err != nil {
			e.metrics.recordFailure(ctx, "create")
			e.logger.Error("persist create failed", "case", c.ID, "error", err)
			return nil, newPersistError(c.ID, "", err)
		}
		if !inserted {
			return nil, &DispatchError{Code: ErrCodeCaseExists, Message: "case id already stored", CaseID: c.ID}
		}
	}

	e.replace(c)
	e.metrics.cases.Add(ctx, 1)
	e.logger.Debug("case created", "case", c.ID, "overall", workflow.ResolveOverall(c))
	e.notify(Change{CaseID: c.ID, After: c, Seq: e.clock.Current()})
	return c, nil
}

func (e *Engine) replace(c *workflow.Case) {
	e.mu.Lock()
	e.cases[c.ID] = c
	e.mu.Unlock()
}

func (e *Engine) notify(ch Change) {
	e.subMu.Lock()
	ids := make([]int, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, e.subs[id])
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}
