package treasury

// Direction tells whether a check was received from a customer or issued to a supplier
type Direction string

const (
	DirectionReceived Direction = "received"
	DirectionIssued   Direction = "issued"
)

// IsValid checks if the direction is known
func (d Direction) IsValid() bool {
	switch d {
	case DirectionReceived, DirectionIssued:
		return true
	}
	return false
}

// InitialState returns the state a new check of this direction starts in
func (d Direction) InitialState() CheckState {
	switch d {
	case DirectionReceived:
		return CheckStateInPortfolio
	case DirectionIssued:
		return CheckStateRegistered
	}
	return ""
}

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// Channel is one of the two parallel bookkeeping channels
type Channel string

const (
	ChannelC1 Channel = "C1"
	ChannelC2 Channel = "C2"
)

// IsValid checks if the channel is known
func (c Channel) IsValid() bool {
	switch c {
	case ChannelC1, ChannelC2:
		return true
	}
	return false
}

// Format distinguishes paper checks from electronic ones
type Format string

const (
	FormatPhysical   Format = "physical"
	FormatElectronic Format = "electronic"
)

// IsValid checks if the format is known
func (f Format) IsValid() bool {
	switch f {
	case FormatPhysical, FormatElectronic:
		return true
	}
	return false
}

// CheckState is the lifecycle state of a check
type CheckState string

const (
	CheckStateRegistered        CheckState = "registered"
	CheckStateInPortfolio       CheckState = "in_portfolio"
	CheckStateAppliedToPurchase CheckState = "applied_to_purchase"
	CheckStateEndorsed          CheckState = "endorsed"
	CheckStateDeposited         CheckState = "deposited"
	CheckStateAccredited        CheckState = "accredited"
	CheckStateRejected          CheckState = "rejected"
	CheckStateVoided            CheckState = "voided"
	CheckStateDelivered         CheckState = "delivered"
	CheckStateCleared           CheckState = "cleared"
)

// AllCheckStates lists every state, in lifecycle order
var AllCheckStates = []CheckState{
	CheckStateRegistered,
	CheckStateInPortfolio,
	CheckStateAppliedToPurchase,
	CheckStateEndorsed,
	CheckStateDeposited,
	CheckStateAccredited,
	CheckStateRejected,
	CheckStateVoided,
	CheckStateDelivered,
	CheckStateCleared,
}

// IsValid checks if the state is known
func (s CheckState) IsValid() bool {
	switch s {
	case CheckStateRegistered, CheckStateInPortfolio, CheckStateAppliedToPurchase,
		CheckStateEndorsed, CheckStateDeposited, CheckStateAccredited,
		CheckStateRejected, CheckStateVoided, CheckStateDelivered, CheckStateCleared:
		return true
	}
	return false
}

// IsTerminal returns true if no further transition is possible in this core
func (s CheckState) IsTerminal() bool {
	switch s {
	case CheckStateAccredited, CheckStateCleared, CheckStateVoided, CheckStateRejected:
		return true
	case CheckStateRegistered, CheckStateInPortfolio, CheckStateAppliedToPurchase,
		CheckStateEndorsed, CheckStateDeposited, CheckStateDelivered:
		return false
	}
	return false
}

// String returns the string representation of CheckState
func (s CheckState) String() string {
	return string(s)
}

// CheckbookState is the lifecycle state of a checkbook
type CheckbookState string

const (
	CheckbookStateActive    CheckbookState = "active"
	CheckbookStateExhausted CheckbookState = "exhausted"
	CheckbookStateBlocked   CheckbookState = "blocked"
	CheckbookStateVoided    CheckbookState = "voided"
)

// IsValid checks if the state is known
func (s CheckbookState) IsValid() bool {
	switch s {
	case CheckbookStateActive, CheckbookStateExhausted, CheckbookStateBlocked, CheckbookStateVoided:
		return true
	}
	return false
}

// CanIssue returns true if serials can still be assigned from the checkbook
func (s CheckbookState) CanIssue() bool {
	return s == CheckbookStateActive
}

// MovementAction names what happened to a check in a movement row
type MovementAction string

const (
	ActionCreated           MovementAction = "created"
	ActionDeposited         MovementAction = "deposited"
	ActionAccredited        MovementAction = "accredited"
	ActionRejected          MovementAction = "rejected"
	ActionAppliedToSupplier MovementAction = "applied_to_supplier"
	ActionDelivered         MovementAction = "delivered"
	ActionCleared           MovementAction = "cleared"
	ActionVoided            MovementAction = "voided"
)

// IsValid checks if the action is known
func (a MovementAction) IsValid() bool {
	switch a {
	case ActionCreated, ActionDeposited, ActionAccredited, ActionRejected,
		ActionAppliedToSupplier, ActionDelivered, ActionCleared, ActionVoided:
		return true
	}
	return false
}

// ReferenceKind types the free-form reference attached to a movement
type ReferenceKind string

const (
	ReferenceNone        ReferenceKind = "none"
	ReferenceBankAccount ReferenceKind = "bank_account"
	ReferenceSupplier    ReferenceKind = "supplier"
	ReferenceCustomer    ReferenceKind = "customer"
	ReferencePurchase    ReferenceKind = "purchase"
	ReferencePayment     ReferenceKind = "payment"
	ReferenceDelivery    ReferenceKind = "delivery"
)

// IsValid checks if the reference kind is known
func (k ReferenceKind) IsValid() bool {
	switch k {
	case ReferenceNone, ReferenceBankAccount, ReferenceSupplier, ReferenceCustomer,
		ReferencePurchase, ReferencePayment, ReferenceDelivery:
		return true
	}
	return false
}

// ProjectionSign is the direction of an expected cash movement
type ProjectionSign string

const (
	SignInflow  ProjectionSign = "inflow"
	SignOutflow ProjectionSign = "outflow"
)

// IsValid checks if the sign is known
func (s ProjectionSign) IsValid() bool {
	switch s {
	case SignInflow, SignOutflow:
		return true
	}
	return false
}

// ProjectionOrigin names the kind of document a projection row mirrors
type ProjectionOrigin string

// OriginCheck is the only origin produced by this service
const OriginCheck ProjectionOrigin = "check"

// LedgerReferenceKind types the document a bank ledger entry points back to
type LedgerReferenceKind string

// LedgerReferenceCheck links a ledger entry to a check
const LedgerReferenceCheck LedgerReferenceKind = "check"
