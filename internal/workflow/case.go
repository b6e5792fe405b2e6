package workflow

import "time"

// Workflow holds the overall state and one state per validation branch.
// BOF and BOU are unset when the branch is not part of the case.
type Workflow struct {
	Overall State `json:"overall,omitempty" yaml:"overall,omitempty"`
	BO      State `json:"bo,omitempty" yaml:"bo,omitempty"`
	BOF     State `json:"bof,omitempty" yaml:"bof,omitempty"`
	BOU     State `json:"bou,omitempty" yaml:"bou,omitempty"`
}

// Branch returns the raw state stored for a branch area.
func (w Workflow) Branch(a Area) State {
	switch a {
	case AreaBO:
		return w.BO
	case AreaBOF:
		return w.BOF
	case AreaBOU:
		return w.BOU
	default:
		return StateUnset
	}
}

func (w *Workflow) setBranch(a Area, s State) {
	switch a {
	case AreaBO:
		w.BO = s
	case AreaBOF:
		w.BOF = s
	case AreaBOU:
		w.BOU = s
	}
}

// TimelineEntry is one line of the append-only case history.
type TimelineEntry struct {
	At    time.Time `json:"at" yaml:"at"`
	Actor string    `json:"actor" yaml:"actor"`
	Event string    `json:"event" yaml:"event"`
}

// NoteKindReopen flags notes written by the reopen handshake.
const NoteKindReopen = "reopen"

// Note is a free-text annotation on a case.
type Note struct {
	ID     string    `json:"id" yaml:"id"`
	At     time.Time `json:"at" yaml:"at"`
	Author string    `json:"author" yaml:"author"`
	Text   string    `json:"text" yaml:"text"`
	Kind   string    `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// Case is the workflow-relevant subset of a fascicolo.
//
// In-charge fields hold the possessor's user id; "" means unclaimed.
// HasFinanziamento and HasPermuta are nil on records that predate the
// explicit flags.
type Case struct {
	ID     string `json:"id" yaml:"id"`
	Number string `json:"numero,omitempty" yaml:"numero,omitempty"`

	Workflow     Workflow `json:"workflow" yaml:"workflow"`
	LegacyStatus string   `json:"stato,omitempty" yaml:"stato,omitempty"`

	HasFinanziamento *bool `json:"hasFinanziamento,omitempty" yaml:"hasFinanziamento,omitempty"`
	HasPermuta       *bool `json:"hasPermuta,omitempty" yaml:"hasPermuta,omitempty"`

	OwnerID  string `json:"ownerId,omitempty" yaml:"ownerId,omitempty"`
	Assignee string `json:"assegnatario,omitempty" yaml:"assegnatario,omitempty"`

	InChargeBO       string `json:"inChargeBO,omitempty" yaml:"inChargeBO,omitempty"`
	InChargeBOF      string `json:"inChargeBOF,omitempty" yaml:"inChargeBOF,omitempty"`
	InChargeBOU      string `json:"inChargeBOU,omitempty" yaml:"inChargeBOU,omitempty"`
	InChargeDelivery string `json:"inChargeDelivery,omitempty" yaml:"inChargeDelivery,omitempty"`
	InChargeVRC      string `json:"inChargeVRC,omitempty" yaml:"inChargeVRC,omitempty"`

	LastInChargeBO       string `json:"lastInChargeBO,omitempty" yaml:"lastInChargeBO,omitempty"`
	LastInChargeBOF      string `json:"lastInChargeBOF,omitempty" yaml:"lastInChargeBOF,omitempty"`
	LastInChargeBOU      string `json:"lastInChargeBOU,omitempty" yaml:"lastInChargeBOU,omitempty"`
	LastInChargeDelivery string `json:"lastInChargeDelivery,omitempty" yaml:"lastInChargeDelivery,omitempty"`
	LastInChargeVRC      string `json:"lastInChargeVRC,omitempty" yaml:"lastInChargeVRC,omitempty"`

	DeliverySentToVRC bool `json:"deliverySentToVRC,omitempty" yaml:"deliverySentToVRC,omitempty"`
	Progress          int  `json:"progress" yaml:"progress"`

	Timeline []TimelineEntry `json:"timeline,omitempty" yaml:"timeline,omitempty"`
	Notes    []Note          `json:"note,omitempty" yaml:"note,omitempty"`

	ReopenProposed bool `json:"reopenProposed,omitempty" yaml:"reopenProposed,omitempty"`
	ReopenCycle    bool `json:"reopenCycle,omitempty" yaml:"reopenCycle,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// NewDraft returns a case in DRAFT with BO and every flagged branch at
// DRAFT.
func NewDraft(id, number string, hasFinanziamento, hasPermuta bool, at time.Time) *Case {
	c := &Case{
		ID:               id,
		Number:           number,
		HasFinanziamento: Bool(hasFinanziamento),
		HasPermuta:       Bool(hasPermuta),
		CreatedAt:        at,
		UpdatedAt:        at,
	}
	c.Workflow.Overall = StateDraft
	c.Workflow.BO = StateDraft
	if hasFinanziamento {
		c.Workflow.BOF = StateDraft
	}
	if hasPermuta {
		c.Workflow.BOU = StateDraft
	}
	c.LegacyStatus = LegacyStatusFor(StateDraft)
	return c
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Clone returns a deep copy of c.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	if c.HasFinanziamento != nil {
		out.HasFinanziamento = Bool(*c.HasFinanziamento)
	}
	if c.HasPermuta != nil {
		out.HasPermuta = Bool(*c.HasPermuta)
	}
	if c.Timeline != nil {
		out.Timeline = append([]TimelineEntry(nil), c.Timeline...)
	}
	if c.Notes != nil {
		out.Notes = append([]Note(nil), c.Notes...)
	}
	return &out
}

// InCharge returns the current possessor of an area, or "".
func (c *Case) InCharge(a Area) string {
	switch a {
	case AreaBO:
		return c.InChargeBO
	case AreaBOF:
		return c.InChargeBOF
	case AreaBOU:
		return c.InChargeBOU
	case AreaDelivery:
		return c.InChargeDelivery
	case AreaVRC:
		return c.InChargeVRC
	default:
		return ""
	}
}

// LastInCharge returns the remembered last possessor of an area, or "".
func (c *Case) LastInCharge(a Area) string {
	switch a {
	case AreaBO:
		return c.LastInChargeBO
	case AreaBOF:
		return c.LastInChargeBOF
	case AreaBOU:
		return c.LastInChargeBOU
	case AreaDelivery:
		return c.LastInChargeDelivery
	case AreaVRC:
		return c.LastInChargeVRC
	default:
		return ""
	}
}

func (c *Case) setInCharge(a Area, id string) {
	switch a {
	case AreaBO:
		c.InChargeBO = id
	case AreaBOF:
		c.InChargeBOF = id
	case AreaBOU:
		c.InChargeBOU = id
	case AreaDelivery:
		c.InChargeDelivery = id
	case AreaVRC:
		c.InChargeVRC = id
	}
}

func (c *Case) setLastInCharge(a Area, id string) {
	switch a {
	case AreaBO:
		c.LastInChargeBO = id
	case AreaBOF:
		c.LastInChargeBOF = id
	case AreaBOU:
		c.LastInChargeBOU = id
	case AreaDelivery:
		c.LastInChargeDelivery = id
	case AreaVRC:
		c.LastInChargeVRC = id
	}
}

// Legacy macro status labels ("stato").
const (
	LegacyDraft     = "Bozza"
	LegacyCompiling = "In compilazione"
	LegacyApproving = "In approvazione"
	LegacySigned    = "Firmato"
	LegacyCancelled = "Annullato"
)

// LegacyStatusFor derives the macro status label from an overall state.
func LegacyStatusFor(overall State) string {
	switch overall {
	case StateUnset, StateDraft:
		return LegacyDraft
	case StateNew:
		return LegacyCompiling
	case StateApproved, StateDelivered:
		return LegacySigned
	default:
		return LegacyApproving
	}
}

// overallFromLegacy maps a macro status back to a lifecycle code for
// records that never carried workflow.overall.
func overallFromLegacy(stato string) State {
	switch stato {
	case LegacyCompiling:
		return StateNew
	case LegacyApproving:
		return StateAwaitingPickupBO
	case LegacySigned:
		return StateApproved
	default:
		return StateDraft
	}
}

// ResolveOverall returns the overall state of c, falling back to the
// legacy macro status when workflow.overall is missing.
func ResolveOverall(c *Case) State {
	if c == nil {
		return StateUnset
	}
	if c.Workflow.Overall != StateUnset {
		return c.Workflow.Overall
	}
	return overallFromLegacy(c.LegacyStatus)
}
