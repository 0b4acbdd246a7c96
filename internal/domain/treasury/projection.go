package treasury

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashFlowProjection is the expected, not yet realized cash effect of an open
// check. There is at most one per check.
type CashFlowProjection struct {
	ID          uuid.UUID
	Origin      ProjectionOrigin
	CheckID     uuid.UUID
	Sign        ProjectionSign
	Date        time.Time
	Amount      decimal.Decimal
	Channel     Channel
	Description string
	UpdatedAt   time.Time
}

// SignedAmount returns the amount with outflows negated
func (p *CashFlowProjection) SignedAmount() decimal.Decimal {
	if p.Sign == SignOutflow {
		return p.Amount.Neg()
	}
	return p.Amount
}

// DeriveProjection computes the projection a check should have in its current
// state. It returns nil when no future cash event is pending. The result only
// depends on the check, so calling it after every mutation keeps the
// projection table consistent.
func DeriveProjection(c *Check) *CashFlowProjection {
	sign, date, ok := pendingCashEvent(c)
	if !ok {
		return nil
	}
	return &CashFlowProjection{
		ID:          uuid.New(),
		Origin:      OriginCheck,
		CheckID:     c.ID,
		Sign:        sign,
		Date:        *date,
		Amount:      c.Amount,
		Channel:     c.Channel,
		Description: projectionDescription(c),
		UpdatedAt:   time.Now().UTC(),
	}
}

// HasPendingCashEvent reports whether the check should have a projection row
func HasPendingCashEvent(c *Check) bool {
	_, _, ok := pendingCashEvent(c)
	return ok
}

func pendingCashEvent(c *Check) (ProjectionSign, *time.Time, bool) {
	switch c.Direction {
	case DirectionReceived:
		switch c.State {
		case CheckStateRegistered, CheckStateInPortfolio, CheckStateDeposited:
			if c.ExpectedCollectionDate != nil {
				return SignInflow, c.ExpectedCollectionDate, true
			}
		case CheckStateAppliedToPurchase, CheckStateEndorsed, CheckStateDelivered,
			CheckStateAccredited, CheckStateRejected, CheckStateVoided, CheckStateCleared:
		}
	case DirectionIssued:
		switch c.State {
		case CheckStateRegistered, CheckStateAppliedToPurchase, CheckStateDelivered:
			if c.DueDate != nil {
				return SignOutflow, c.DueDate, true
			}
		case CheckStateInPortfolio, CheckStateEndorsed, CheckStateDeposited,
			CheckStateAccredited, CheckStateRejected, CheckStateVoided, CheckStateCleared:
		}
	}
	return "", nil, false
}

func projectionDescription(c *Check) string {
	switch c.Direction {
	case DirectionReceived:
		return fmt.Sprintf("Check #%d to collect", c.SerialNumber)
	case DirectionIssued:
		if c.PayeeName != "" {
			return fmt.Sprintf("Check #%d to pay %s", c.SerialNumber, c.PayeeName)
		}
		return fmt.Sprintf("Check #%d to pay", c.SerialNumber)
	}
	return fmt.Sprintf("Check #%d", c.SerialNumber)
}
