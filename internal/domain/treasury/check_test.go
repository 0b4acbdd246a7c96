package treasury

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testActor = &shared.Actor{UserID: uuid.New(), Username: "cashier"}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newReceived(t *testing.T, expected *time.Time) *Check {
	t.Helper()
	c, m, err := NewCheck(NewCheckInput{
		Direction: DirectionReceived,
		CheckDetails: CheckDetails{
			Channel:                ChannelC1,
			Format:                 FormatPhysical,
			BankID:                 uuid.New(),
			SerialNumber:           1001,
			Amount:                 decimal.NewFromInt(10000),
			ExpectedCollectionDate: expected,
		},
	}, testActor)
	require.NoError(t, err)
	require.NotNil(t, m)
	return c
}

func newIssued(t *testing.T, due *time.Time) *Check {
	t.Helper()
	checkbookID := uuid.New()
	supplierID := uuid.New()
	c, _, err := NewCheck(NewCheckInput{
		Direction:   DirectionIssued,
		CheckbookID: &checkbookID,
		CheckDetails: CheckDetails{
			Channel:      ChannelC2,
			Format:       FormatPhysical,
			BankID:       uuid.New(),
			SerialNumber: 100,
			Amount:       decimal.NewFromInt(2500),
			DueDate:      due,
			SupplierID:   &supplierID,
			PayeeName:    "ACME Supplies",
		},
	}, testActor)
	require.NoError(t, err)
	return c
}

func transitionCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func TestNewCheck(t *testing.T) {
	t.Run("received check starts in portfolio", func(t *testing.T) {
		c := newReceived(t, nil)
		assert.Equal(t, CheckStateInPortfolio, c.State)
		assert.Equal(t, 1, c.Version)
		assert.Equal(t, testActor.UserID, *c.CreatedBy)
	})

	t.Run("issued check starts registered", func(t *testing.T) {
		c := newIssued(t, nil)
		assert.Equal(t, CheckStateRegistered, c.State)
		require.NotNil(t, c.CheckbookID)
	})

	t.Run("created movement", func(t *testing.T) {
		customer := uuid.New()
		c, m, err := NewCheck(NewCheckInput{
			Direction: DirectionReceived,
			CheckDetails: CheckDetails{
				Channel: ChannelC1, Format: FormatElectronic, BankID: uuid.New(),
				SerialNumber: 5, Amount: decimal.NewFromInt(1), CustomerID: &customer,
			},
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, ActionCreated, m.Action)
		assert.Equal(t, c.ID, m.CheckID)
		assert.Equal(t, CheckStateInPortfolio, m.ToState)
		assert.Equal(t, ReferenceCustomer, m.ReferenceKind)
		assert.Equal(t, customer, *m.ReferenceID)
		assert.Nil(t, m.ActorID)
	})

	invalid := []struct {
		name  string
		mut   func(in *NewCheckInput)
		field string
	}{
		{"unknown direction", func(in *NewCheckInput) { in.Direction = "sideways" }, "direction"},
		{"issued without checkbook", func(in *NewCheckInput) { in.Direction = DirectionIssued }, "checkbook_id"},
		{"bad channel", func(in *NewCheckInput) { in.Channel = "C3" }, "channel"},
		{"bad format", func(in *NewCheckInput) { in.Format = "paper" }, "format"},
		{"missing bank", func(in *NewCheckInput) { in.BankID = uuid.Nil }, "bank_id"},
		{"zero serial", func(in *NewCheckInput) { in.SerialNumber = 0 }, "serial_number"},
		{"negative amount", func(in *NewCheckInput) { in.Amount = decimal.NewFromInt(-1) }, "amount"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			in := NewCheckInput{
				Direction: DirectionReceived,
				CheckDetails: CheckDetails{
					Channel: ChannelC1, Format: FormatPhysical, BankID: uuid.New(),
					SerialNumber: 1, Amount: decimal.Zero,
				},
			}
			tt.mut(&in)
			_, _, err := NewCheck(in, testActor)
			require.Error(t, err)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, shared.CodeValidation, de.Code)
			assert.Equal(t, tt.field, de.Details["field"])
		})
	}
}

func TestReceivedLifecycle(t *testing.T) {
	c := newReceived(t, nil)
	assert.Nil(t, DeriveProjection(c))

	account := uuid.New()
	collect := day(2026, 11, 20)
	res, err := c.Deposit(DepositInput{BankAccountID: account, Date: day(2026, 11, 1), ExpectedCollectionDate: &collect}, testActor)
	require.NoError(t, err)
	assert.Equal(t, CheckStateDeposited, c.State)
	assert.Equal(t, ActionDeposited, res.Movement.Action)
	assert.Equal(t, CheckStateInPortfolio, res.Movement.FromState)
	assert.Equal(t, ReferenceBankAccount, res.Movement.ReferenceKind)
	assert.Equal(t, account, *res.Movement.ReferenceID)
	assert.Nil(t, res.LedgerEntry)

	p := DeriveProjection(c)
	require.NotNil(t, p)
	assert.Equal(t, SignInflow, p.Sign)
	assert.Equal(t, collect, p.Date)
	assert.True(t, decimal.NewFromInt(10000).Equal(p.Amount))

	res, err = c.Accredit(AccreditInput{BankAccountID: account, Date: day(2026, 11, 21)}, testActor)
	require.NoError(t, err)
	assert.Equal(t, CheckStateAccredited, c.State)
	require.NotNil(t, res.LedgerEntry)
	assert.True(t, decimal.NewFromInt(10000).Equal(res.LedgerEntry.Credit))
	assert.True(t, res.LedgerEntry.Debit.IsZero())
	assert.Equal(t, c.ID, res.LedgerEntry.ReferenceID)
	assert.Nil(t, DeriveProjection(c))

	t.Run("second accredit fails", func(t *testing.T) {
		_, err := c.Accredit(AccreditInput{BankAccountID: account}, testActor)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "accredited", de.Details["current_state"])
		assert.Equal(t, "accredit", de.Details["requested_transition"])
	})
}

func TestDepositDefaultsExpectedCollectionDate(t *testing.T) {
	c := newReceived(t, nil)
	deposit := day(2026, 10, 5)
	_, err := c.Deposit(DepositInput{BankAccountID: uuid.New(), Date: deposit}, testActor)
	require.NoError(t, err)
	require.NotNil(t, c.ExpectedCollectionDate)
	assert.Equal(t, deposit, *c.ExpectedCollectionDate)
}

func TestTransitionPreconditions(t *testing.T) {
	t.Run("deposit requires account", func(t *testing.T) {
		c := newReceived(t, nil)
		_, err := c.Deposit(DepositInput{}, testActor)
		assert.Equal(t, shared.CodeValidation, transitionCode(err))
		assert.Equal(t, CheckStateInPortfolio, c.State)
	})

	t.Run("reject requires reason", func(t *testing.T) {
		c := newReceived(t, nil)
		_, err := c.Deposit(DepositInput{BankAccountID: uuid.New()}, testActor)
		require.NoError(t, err)
		_, err = c.Reject(RejectInput{Reason: "  "}, testActor)
		assert.Equal(t, shared.CodeValidation, transitionCode(err))
		res, err := c.Reject(RejectInput{Reason: "insufficient funds"}, testActor)
		require.NoError(t, err)
		assert.Equal(t, CheckStateRejected, c.State)
		assert.Equal(t, "insufficient funds", c.StateReason)
		assert.Equal(t, ActionRejected, res.Movement.Action)
		assert.Nil(t, DeriveProjection(c))
	})

	t.Run("apply requires supplier", func(t *testing.T) {
		c := newReceived(t, nil)
		_, err := c.ApplyToSupplier(ApplyToSupplierInput{}, testActor)
		assert.Equal(t, shared.CodeValidation, transitionCode(err))
	})

	t.Run("void requires reason", func(t *testing.T) {
		c := newIssued(t, nil)
		_, err := c.Void(VoidInput{}, testActor)
		assert.Equal(t, shared.CodeValidation, transitionCode(err))
	})

	t.Run("deliver issued without supplier", func(t *testing.T) {
		checkbookID := uuid.New()
		c, _, err := NewCheck(NewCheckInput{
			Direction:   DirectionIssued,
			CheckbookID: &checkbookID,
			CheckDetails: CheckDetails{
				Channel: ChannelC1, Format: FormatPhysical, BankID: uuid.New(),
				SerialNumber: 9, Amount: decimal.NewFromInt(5),
			},
		}, testActor)
		require.NoError(t, err)
		_, err = c.Deliver(DeliverInput{}, testActor)
		assert.Equal(t, shared.CodeValidation, transitionCode(err))

		supplier := uuid.New()
		_, err = c.Deliver(DeliverInput{SupplierID: &supplier}, testActor)
		require.NoError(t, err)
		assert.Equal(t, CheckStateDelivered, c.State)
	})

	t.Run("clear requires account", func(t *testing.T) {
		c := newIssued(t, nil)
		_, err := c.Deliver(DeliverInput{}, testActor)
		require.NoError(t, err)
		_, err = c.Clear(ClearInput{}, testActor)
		assert.Equal(t, shared.CodeValidation, transitionCode(err))
	})
}

func TestIssuedLifecycle(t *testing.T) {
	due := day(2026, 12, 1)
	c := newIssued(t, &due)

	p := DeriveProjection(c)
	require.NotNil(t, p)
	assert.Equal(t, SignOutflow, p.Sign)
	assert.Equal(t, due, p.Date)
	assert.Equal(t, "Check #100 to pay ACME Supplies", p.Description)

	purchase := uuid.New()
	res, err := c.ApplyToSupplier(ApplyToSupplierInput{SupplierID: *c.SupplierID, PurchaseID: &purchase}, testActor)
	require.NoError(t, err)
	assert.Equal(t, ReferencePurchase, res.Movement.ReferenceKind)
	assert.NotNil(t, DeriveProjection(c), "issued checks keep their outflow when applied")

	res, err = c.Deliver(DeliverInput{}, testActor)
	require.NoError(t, err)
	assert.Equal(t, ReferenceSupplier, res.Movement.ReferenceKind)
	assert.Equal(t, CheckStateDelivered, c.State)

	account := uuid.New()
	res, err = c.Clear(ClearInput{BankAccountID: account, Date: due}, testActor)
	require.NoError(t, err)
	assert.Equal(t, CheckStateCleared, c.State)
	require.NotNil(t, res.LedgerEntry)
	assert.True(t, decimal.NewFromInt(2500).Equal(res.LedgerEntry.Debit))
	assert.True(t, res.LedgerEntry.Credit.IsZero())
	assert.Nil(t, DeriveProjection(c))
}

func TestReferenceKindsByDirection(t *testing.T) {
	supplier := uuid.New()

	t.Run("received apply records a payment", func(t *testing.T) {
		c := newReceived(t, nil)
		res, err := c.ApplyToSupplier(ApplyToSupplierInput{SupplierID: supplier}, testActor)
		require.NoError(t, err)
		assert.Equal(t, ReferencePayment, res.Movement.ReferenceKind)
		assert.Equal(t, supplier, *res.Movement.ReferenceID)
	})

	t.Run("received deliver records a delivery", func(t *testing.T) {
		c := newReceived(t, nil)
		res, err := c.Deliver(DeliverInput{SupplierID: &supplier}, testActor)
		require.NoError(t, err)
		assert.Equal(t, ReferenceDelivery, res.Movement.ReferenceKind)
	})

	t.Run("issued apply without purchase references the supplier", func(t *testing.T) {
		c := newIssued(t, nil)
		res, err := c.ApplyToSupplier(ApplyToSupplierInput{SupplierID: supplier}, testActor)
		require.NoError(t, err)
		assert.Equal(t, ReferenceSupplier, res.Movement.ReferenceKind)
	})
}

// Every (transition, direction, state) combination either fires into the
// transition's target or fails with INVALID_STATE_TRANSITION without mutating.
func TestTransitionTable(t *testing.T) {
	for _, tr := range AllTransitions {
		for _, dir := range []Direction{DirectionReceived, DirectionIssued} {
			for _, state := range AllCheckStates {
				name := string(tr) + "/" + string(dir) + "/" + string(state)
				t.Run(name, func(t *testing.T) {
					var c *Check
					if dir == DirectionReceived {
						c = newReceived(t, nil)
					} else {
						c = newIssued(t, nil)
					}
					c.State = state
					version := c.Version

					res, err := fireForTest(c, tr)
					if CanTransition(tr, dir, state) {
						require.NoError(t, err)
						assert.Equal(t, tr.Target(), c.State)
						assert.Equal(t, tr.Action(), res.Movement.Action)
						assert.Equal(t, state, res.Movement.FromState)
						assert.Equal(t, version+1, c.Version)
						return
					}
					require.Error(t, err)
					assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
					assert.Equal(t, state, c.State)
					assert.Equal(t, version, c.Version)
				})
			}
		}
	}
}

func fireForTest(c *Check, tr Transition) (*TransitionResult, error) {
	account := uuid.New()
	supplier := uuid.New()
	switch tr {
	case TransitionDeposit:
		return c.Deposit(DepositInput{BankAccountID: account}, testActor)
	case TransitionAccredit:
		return c.Accredit(AccreditInput{BankAccountID: account}, testActor)
	case TransitionReject:
		return c.Reject(RejectInput{Reason: "bounced"}, testActor)
	case TransitionApplyToSupplier:
		return c.ApplyToSupplier(ApplyToSupplierInput{SupplierID: supplier}, testActor)
	case TransitionDeliver:
		return c.Deliver(DeliverInput{SupplierID: &supplier}, testActor)
	case TransitionClear:
		return c.Clear(ClearInput{BankAccountID: account}, testActor)
	case TransitionVoid:
		return c.Void(VoidInput{Reason: "printing error"}, testActor)
	}
	return nil, errors.New("unknown transition")
}

func TestUpdate(t *testing.T) {
	c := newReceived(t, nil)
	d := CheckDetails{
		Channel: ChannelC2, Format: FormatPhysical, BankID: c.BankID,
		SerialNumber: c.SerialNumber, Amount: decimal.NewFromInt(12000),
	}
	assert.False(t, c.IdentityChanged(d))
	require.NoError(t, c.Update(d, testActor))
	assert.Equal(t, ChannelC2, c.Channel)
	assert.Equal(t, 2, c.Version)

	d.SerialNumber = 2002
	assert.True(t, c.IdentityChanged(d))

	c.State = CheckStateVoided
	err := c.Update(d, testActor)
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestUpdate_DepositedKeepsExpectedCollectionDate(t *testing.T) {
	collect := day(2026, 11, 15)
	c := newReceived(t, &collect)
	_, err := c.Deposit(DepositInput{BankAccountID: uuid.New(), Date: day(2026, 11, 1)}, testActor)
	require.NoError(t, err)

	d := CheckDetails{
		Channel: c.Channel, Format: c.Format, BankID: c.BankID,
		SerialNumber: c.SerialNumber, Amount: decimal.NewFromInt(10500),
	}
	require.NoError(t, c.Update(d, testActor))
	require.NotNil(t, c.ExpectedCollectionDate)
	assert.Equal(t, collect, *c.ExpectedCollectionDate)

	p := DeriveProjection(c)
	require.NotNil(t, p)
	assert.Equal(t, collect, p.Date)
	assert.True(t, decimal.NewFromInt(10500).Equal(p.Amount))

	// Before the deposit the date stays optional
	pending := newReceived(t, &collect)
	require.NoError(t, pending.Update(d, testActor))
	assert.Nil(t, pending.ExpectedCollectionDate)
	assert.Nil(t, DeriveProjection(pending))
}

// A projection exists exactly for states that still imply a pending cash event.
func TestProjectionMatchesState(t *testing.T) {
	collect := day(2026, 11, 15)
	for _, state := range AllCheckStates {
		t.Run("received/"+string(state), func(t *testing.T) {
			c := newReceived(t, &collect)
			c.State = state
			want := state == CheckStateRegistered || state == CheckStateInPortfolio || state == CheckStateDeposited
			assert.Equal(t, want, DeriveProjection(c) != nil)
			assert.Equal(t, want, HasPendingCashEvent(c))
		})
		t.Run("issued/"+string(state), func(t *testing.T) {
			c := newIssued(t, &collect)
			c.State = state
			want := state == CheckStateRegistered || state == CheckStateAppliedToPurchase || state == CheckStateDelivered
			assert.Equal(t, want, DeriveProjection(c) != nil)
		})
	}

	for _, terminal := range []CheckState{CheckStateAccredited, CheckStateCleared, CheckStateVoided, CheckStateRejected} {
		c := newReceived(t, &collect)
		c.State = terminal
		assert.Nil(t, DeriveProjection(c), terminal)
	}
}
