package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SystemActor is the timeline author of automatic steps.
const SystemActor = "Sistema"

// EventApproved is the timeline event written by the fan-in.
const EventApproved = "Fascicolo approvato (tutti i rami validati)"

// Progress floors written by the transitions.
const (
	ProgressTaken     = 10
	ProgressSubmitted = 55
	ProgressValidated = 70
	ProgressReopenMax = 75
	ProgressApproved  = 85
	ProgressDelivery  = 90
	ProgressDelivered = 100
)

var branchTitles = map[Area]string{
	AreaBO:  "BO Anagrafico",
	AreaBOF: "BO Finanziario",
	AreaBOU: "BO Permuta",
}

// noteSpace seeds the name-based UUIDs of notes.
var noteSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:fascicolo:note"))

// Apply performs action on behalf of actor at the given instant.
//
// The input is never modified. When the action is not a transition, the
// actor has no role, or Can denies it on the actor's own view of c, the
// very same pointer is returned. Otherwise the result is a new record
// with exactly one timeline entry for the actor, plus the system entry
// when the last active branch validates.
func Apply(c *Case, action Action, actor User, at time.Time) *Case {
	if c == nil || actor.Role == "" || !action.IsTransition() {
		return c
	}
	if !Can(actor, action, BuildContext(c, actor.Role)) {
		return c
	}

	t := &transition{next: c.Clone(), actor: actor, at: at}
	t.next.Workflow.Overall = ResolveOverall(c)

	if ba, ok := branchActions[action]; ok {
		t.branch(ba)
	} else {
		switch action {
		case ActionTakeComm:
			t.takeComm()
		case ActionSendAsComm:
			t.sendAsComm()
		case ActionRequestReopen:
			t.requestReopen()
		case ActionReopen:
			t.reopen()
		case ActionDeliveryTake:
			t.deliveryTake()
		case ActionDeliverySendToVRC:
			t.sendToVRC()
		case ActionVRCTake:
			t.vrcTake()
		case ActionVRCRequestFix:
			t.vrcRequestFix()
		case ActionVRCValidate:
			t.vrcValidate()
		default:
			return c
		}
	}

	t.next.UpdatedAt = at
	t.next.LegacyStatus = LegacyStatusFor(t.next.Workflow.Overall)
	return t.next
}

// transition accumulates the changes of one Apply call on a private copy.
type transition struct {
	next  *Case
	actor User
	at    time.Time
}

func (t *transition) log(event string) {
	t.logAs(t.actor.DisplayName(), event)
}

func (t *transition) logAs(actor, event string) {
	t.next.Timeline = append(t.next.Timeline, TimelineEntry{At: t.at, Actor: actor, Event: event})
}

func (t *transition) note(text, kind string) {
	seq := len(t.next.Notes)
	id := uuid.NewSHA1(noteSpace, []byte(fmt.Sprintf("%s/%d", t.next.ID, seq)))
	t.next.Notes = append(t.next.Notes, Note{
		ID:     id.String(),
		At:     t.at,
		Author: t.actor.DisplayName(),
		Text:   text,
		Kind:   kind,
	})
}

func (t *transition) raiseProgress(floor int) {
	if t.next.Progress < floor {
		t.next.Progress = floor
	}
}

func (t *transition) setOverall(s State) {
	t.next.Workflow.Overall = s
}

func (t *transition) takeComm() {
	t.setOverall(StateNew)
	for _, b := range Branches {
		if AreaActive(t.next, b) {
			t.next.Workflow.setBranch(b, StateNew)
		}
	}
	t.next.OwnerID = t.actor.ID
	if t.actor.Name != "" {
		t.next.Assignee = t.actor.Name
	}
	t.raiseProgress(ProgressTaken)
	t.log("Presa in carico (venditore)")
}

// sendAsComm fans the case out. Activity is judged after overall moves
// to back-office pickup, so flagless records open every branch. Every
// reopened branch goes back to the pool with no holder.
func (t *transition) sendAsComm() {
	t.setOverall(StateAwaitingPickupBO)
	for _, b := range Branches {
		if !AreaActive(t.next, b) {
			continue
		}
		set, _ := BranchStates(b)
		t.next.Workflow.setBranch(b, set.AwaitingPickup)
		t.next.setInCharge(b, "")
	}
	t.raiseProgress(ProgressSubmitted)
	t.log("Inviato ai BackOffice")
}

func (t *transition) branch(ba branchAction) {
	set, _ := BranchStates(ba.area)
	title := branchTitles[ba.area]
	switch ba.verb {
	case verbTake:
		t.next.Workflow.setBranch(ba.area, set.InReview)
		t.next.setInCharge(ba.area, t.actor.ID)
		t.next.setLastInCharge(ba.area, t.actor.ID)
		t.log(title + ": preso in carico")
	case verbRequestReview:
		t.next.Workflow.setBranch(ba.area, set.NeedsRevision)
		t.next.setInCharge(ba.area, "")
		t.log(title + ": richieste integrazioni")
	case verbValidate:
		t.next.Workflow.setBranch(ba.area, set.Validated)
		t.next.setInCharge(ba.area, "")
		t.raiseProgress(ProgressValidated)
		t.log(title + ": validato")
		t.fanIn()
	}
}

// fanIn approves the case once every active branch is validated.
func (t *transition) fanIn() {
	if t.next.Workflow.Overall == StateApproved || !AllActiveValidated(t.next) {
		return
	}
	t.setOverall(StateApproved)
	t.raiseProgress(ProgressApproved)
	t.logAs(SystemActor, EventApproved)
}

// AllActiveValidated reports whether every active branch of c is VALIDATED.
func AllActiveValidated(c *Case) bool {
	for _, b := range Branches {
		if !AreaActive(c, b) {
			continue
		}
		set, _ := BranchStates(b)
		if ResolveBranchState(c, b) != set.Validated {
			return false
		}
	}
	return true
}

func (t *transition) requestReopen() {
	t.next.ReopenProposed = true
	t.log("Proposta riapertura (venditore)")
	t.note("Richiesta riapertura del fascicolo.", NoteKindReopen)
}

func (t *transition) reopen() {
	accepting, ok := t.actor.Role.BackOfficeArea()
	if !ok {
		return
	}
	t.setOverall(StateAwaitingPickupBO)
	for _, b := range Branches {
		set, _ := BranchStates(b)
		switch {
		case b == accepting:
			t.next.Workflow.setBranch(b, set.InReview)
			t.next.setInCharge(b, t.actor.ID)
			t.next.setLastInCharge(b, t.actor.ID)
		case AreaActive(t.next, b):
			t.next.Workflow.setBranch(b, set.Validated)
			t.next.setInCharge(b, "")
		default:
			t.next.setInCharge(b, "")
		}
	}
	t.next.Progress = min(max(t.next.Progress, ProgressSubmitted), ProgressReopenMax)
	t.next.ReopenProposed = false
	t.next.ReopenCycle = true
	t.log("Riapertura accettata (ritorno in validazione)")
	t.note("Riapertura accettata: riavviata la validazione.", NoteKindReopen)
}

func (t *transition) deliveryTake() {
	t.setOverall(StateReadyForDelivery)
	t.next.InChargeDelivery = t.actor.ID
	t.next.LastInChargeDelivery = t.actor.ID
	t.next.DeliverySentToVRC = false
	t.raiseProgress(ProgressDelivery)
	t.log("Operatore consegna: presa in carico")
}

// sendToVRC routes a case returning from a fix straight back to the
// control agent who asked for it. First submissions go to the pool.
func (t *transition) sendToVRC() {
	returning := t.next.Workflow.Overall == StateDeliveryNeedsRevision && t.next.LastInChargeVRC != ""
	t.next.InChargeDelivery = ""
	t.next.DeliverySentToVRC = true
	if returning {
		t.setOverall(StateDeliveryInReview)
		t.next.InChargeVRC = t.next.LastInChargeVRC
		t.log("Reinviato a Controllo consegna (ritorno diretto)")
		return
	}
	t.setOverall(StateAwaitingDeliveryControlPickup)
	t.next.InChargeVRC = ""
	t.log("Inviato a Controllo consegna")
}

func (t *transition) vrcTake() {
	t.setOverall(StateDeliveryInReview)
	t.next.InChargeVRC = t.actor.ID
	t.next.LastInChargeVRC = t.actor.ID
	t.log("Controllo consegna: preso in carico")
}

func (t *transition) vrcRequestFix() {
	t.setOverall(StateDeliveryNeedsRevision)
	t.next.InChargeVRC = ""
	t.next.InChargeDelivery = t.next.LastInChargeDelivery
	t.next.DeliverySentToVRC = false
	t.log("Controllo consegna: richieste integrazioni")
}

func (t *transition) vrcValidate() {
	t.setOverall(StateDelivered)
	t.next.Progress = ProgressDelivered
	t.log("Consegna completata")
}
