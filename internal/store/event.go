package store

import (
	"time"

	"github.com/roach88/fascicolo/internal/workflow"
)

// Outcome classifies a dispatch in the audit log.
type Outcome string

const (
	// OutcomeApplied means the action produced a new record.
	OutcomeApplied Outcome = "applied"
	// OutcomeNoop means the action was permitted but changed nothing.
	OutcomeNoop Outcome = "noop"
	// OutcomeDenied means the permission oracle refused the action.
	OutcomeDenied Outcome = "denied"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeApplied, OutcomeNoop, OutcomeDenied:
		return true
	}
	return false
}

// CaseEvent is one row of the dispatch audit log.
//
// BeforeHash and AfterHash are content hashes of the case record around
// the dispatch; they are equal unless Outcome is OutcomeApplied.
type CaseEvent struct {
	ID         string          `json:"id"`
	CaseID     string          `json:"case_id"`
	Seq        int64           `json:"seq"`
	Action     workflow.Action `json:"action"`
	Actor      workflow.User   `json:"actor"`
	Outcome    Outcome         `json:"outcome"`
	At         time.Time       `json:"at"`
	RequestID  string          `json:"request_id,omitempty"`
	BeforeHash string          `json:"before_hash"`
	AfterHash  string          `json:"after_hash"`
}
