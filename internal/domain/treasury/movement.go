package treasury

import (
	"time"

	"github.com/google/uuid"
)

// CheckMovement is one immutable line of a check's history
type CheckMovement struct {
	ID            uuid.UUID
	CheckID       uuid.UUID
	Action        MovementAction
	FromState     CheckState
	ToState       CheckState
	ReferenceKind ReferenceKind
	ReferenceID   *uuid.UUID
	Date          time.Time
	Notes         string
	ActorID       *uuid.UUID
	CreatedAt     time.Time
}

// MovementReference is the typed reference recorded on a movement
type MovementReference struct {
	Kind ReferenceKind
	ID   *uuid.UUID
}

// NoReference is the reference of movements that point at nothing
var NoReference = MovementReference{Kind: ReferenceNone}

// RefTo builds a reference of the given kind, collapsing nil ids to NoReference
func RefTo(kind ReferenceKind, id *uuid.UUID) MovementReference {
	if id == nil || *id == uuid.Nil {
		return NoReference
	}
	v := *id
	return MovementReference{Kind: kind, ID: &v}
}

func newMovement(checkID uuid.UUID, action MovementAction, from, to CheckState, ref MovementReference, date time.Time, notes string, actor *uuid.UUID) *CheckMovement {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return &CheckMovement{
		ID:            uuid.New(),
		CheckID:       checkID,
		Action:        action,
		FromState:     from,
		ToState:       to,
		ReferenceKind: ref.Kind,
		ReferenceID:   ref.ID,
		Date:          date,
		Notes:         notes,
		ActorID:       actor,
		CreatedAt:     time.Now().UTC(),
	}
}
