package treasury

import (
	"fmt"
	"slices"

	"github.com/erp/treasury/internal/domain/shared"
)

// Transition is a named lifecycle operation on a check
type Transition string

const (
	TransitionDeposit         Transition = "deposit"
	TransitionAccredit        Transition = "accredit"
	TransitionReject          Transition = "reject"
	TransitionApplyToSupplier Transition = "apply_to_supplier"
	TransitionDeliver         Transition = "deliver"
	TransitionClear           Transition = "clear"
	TransitionVoid            Transition = "void"
)

// AllTransitions lists every transition
var AllTransitions = []Transition{
	TransitionDeposit,
	TransitionAccredit,
	TransitionReject,
	TransitionApplyToSupplier,
	TransitionDeliver,
	TransitionClear,
	TransitionVoid,
}

// IsValid checks if the transition is known
func (t Transition) IsValid() bool {
	return slices.Contains(AllTransitions, t)
}

// String returns the string representation of Transition
func (t Transition) String() string {
	return string(t)
}

// Target returns the state a check lands in after the transition
func (t Transition) Target() CheckState {
	switch t {
	case TransitionDeposit:
		return CheckStateDeposited
	case TransitionAccredit:
		return CheckStateAccredited
	case TransitionReject:
		return CheckStateRejected
	case TransitionApplyToSupplier:
		return CheckStateAppliedToPurchase
	case TransitionDeliver:
		return CheckStateDelivered
	case TransitionClear:
		return CheckStateCleared
	case TransitionVoid:
		return CheckStateVoided
	}
	return ""
}

// Action returns the movement action recorded when the transition succeeds
func (t Transition) Action() MovementAction {
	switch t {
	case TransitionDeposit:
		return ActionDeposited
	case TransitionAccredit:
		return ActionAccredited
	case TransitionReject:
		return ActionRejected
	case TransitionApplyToSupplier:
		return ActionAppliedToSupplier
	case TransitionDeliver:
		return ActionDelivered
	case TransitionClear:
		return ActionCleared
	case TransitionVoid:
		return ActionVoided
	}
	return ""
}

// AllowedFrom returns the source states from which t may fire for a check of
// the given direction. An empty slice means the transition does not apply to
// that direction at all.
func AllowedFrom(t Transition, d Direction) []CheckState {
	switch t {
	case TransitionDeposit:
		if d == DirectionReceived {
			return []CheckState{CheckStateRegistered, CheckStateInPortfolio, CheckStateEndorsed, CheckStateAppliedToPurchase}
		}
		return nil
	case TransitionAccredit, TransitionReject:
		if d == DirectionReceived {
			return []CheckState{CheckStateDeposited}
		}
		return nil
	case TransitionApplyToSupplier:
		return []CheckState{CheckStateRegistered, CheckStateInPortfolio}
	case TransitionDeliver:
		switch d {
		case DirectionReceived:
			return []CheckState{CheckStateRegistered, CheckStateInPortfolio}
		case DirectionIssued:
			return []CheckState{CheckStateRegistered, CheckStateInPortfolio, CheckStateAppliedToPurchase}
		}
		return nil
	case TransitionClear:
		if d == DirectionIssued {
			return []CheckState{CheckStateDelivered}
		}
		return nil
	case TransitionVoid:
		switch d {
		case DirectionReceived:
			return []CheckState{CheckStateRegistered, CheckStateInPortfolio, CheckStateAppliedToPurchase, CheckStateEndorsed}
		case DirectionIssued:
			return []CheckState{CheckStateRegistered, CheckStateDelivered}
		}
		return nil
	}
	return nil
}

// CanTransition reports whether t may fire from state for direction d
func CanTransition(t Transition, d Direction, state CheckState) bool {
	return slices.Contains(AllowedFrom(t, d), state)
}

// guardTransition returns INVALID_STATE_TRANSITION when t may not fire
func guardTransition(t Transition, d Direction, state CheckState) error {
	if !t.IsValid() {
		return shared.NewValidationError("transition", fmt.Sprintf("Unknown transition %q", t))
	}
	allowed := AllowedFrom(t, d)
	if slices.Contains(allowed, state) {
		return nil
	}
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = s.String()
	}
	err := shared.NewInvalidTransitionError(state.String(), t.String(), names)
	if len(allowed) == 0 {
		err = err.WithDetail("direction", d.String())
		err.Message = fmt.Sprintf("Cannot %s a %s check", t, d)
	}
	return err
}
