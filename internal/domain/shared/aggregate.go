package shared

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Audit
	Version int
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// MarkModified bumps version and timestamps after a state change
func (a *BaseAggregateRoot) MarkModified(actor *Actor) {
	a.Touch()
	a.IncrementVersion()
	if actor != nil {
		id := actor.UserID
		a.UpdatedBy = &id
	}
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot(actor *Actor) BaseAggregateRoot {
	root := BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
	if actor != nil {
		id := actor.UserID
		root.Audit = NewAudit(&id)
	}
	return root
}
