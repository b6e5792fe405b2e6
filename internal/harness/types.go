package harness

// TraceEvent is one processed flow step as recorded by the engine.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Case    string `json:"case"`
	Action  string `json:"action"`
	Actor   string `json:"actor"`
	Role    string `json:"role"`
	Outcome string `json:"outcome"`
	Overall string `json:"overall"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and assertion matches.
	Pass bool `json:"pass"`

	// Trace holds one event per flow step in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
