package shared

import "github.com/google/uuid"

// Actor identifies the user performing a mutation. It feeds audit columns,
// movement rows and the audit log.
type Actor struct {
	UserID   uuid.UUID
	Username string
}

// IDPtr returns the user id as a pointer, nil for an unknown actor
func (a *Actor) IDPtr() *uuid.UUID {
	if a == nil || a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

// Name returns a printable name for audit lines
func (a *Actor) Name() string {
	if a == nil {
		return "system"
	}
	if a.Username != "" {
		return a.Username
	}
	if a.UserID != uuid.Nil {
		return a.UserID.String()
	}
	return "system"
}
