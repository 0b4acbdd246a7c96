package treasury

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Check is a payment instrument received from a customer or issued to a
// supplier. State only changes through the transition methods below.
type Check struct {
	shared.BaseAggregateRoot
	Direction              Direction
	Channel                Channel
	Format                 Format
	BankID                 uuid.UUID
	CheckbookID            *uuid.UUID
	SerialNumber           int64
	Amount                 decimal.Decimal
	IssueDate              *time.Time
	DueDate                *time.Time
	ExpectedCollectionDate *time.Time
	CustomerID             *uuid.UUID
	SupplierID             *uuid.UUID
	SaleID                 *uuid.UUID
	PurchaseID             *uuid.UUID
	PayeeName              string
	State                  CheckState
	StateReason            string
	Notes                  string
}

// CheckDetails are the editable attributes of a check
type CheckDetails struct {
	Channel                Channel
	Format                 Format
	BankID                 uuid.UUID
	SerialNumber           int64
	Amount                 decimal.Decimal
	IssueDate              *time.Time
	DueDate                *time.Time
	ExpectedCollectionDate *time.Time
	CustomerID             *uuid.UUID
	SupplierID             *uuid.UUID
	SaleID                 *uuid.UUID
	PurchaseID             *uuid.UUID
	PayeeName              string
	Notes                  string
}

// NewCheckInput carries everything needed to register a check. For issued
// checks BankID and SerialNumber are resolved from the checkbook beforehand.
type NewCheckInput struct {
	CheckDetails
	Direction   Direction
	CheckbookID *uuid.UUID
}

// TransitionResult collects the side effects produced by a transition
type TransitionResult struct {
	Movement    *CheckMovement
	LedgerEntry *BankLedgerEntry
}

// NewCheck validates input, puts the check in its direction's initial state
// and returns the "created" movement.
func NewCheck(in NewCheckInput, actor *shared.Actor) (*Check, *CheckMovement, error) {
	if !in.Direction.IsValid() {
		return nil, nil, shared.NewValidationError("direction", fmt.Sprintf("Invalid direction %q", in.Direction))
	}
	if in.Direction == DirectionIssued && (in.CheckbookID == nil || *in.CheckbookID == uuid.Nil) {
		return nil, nil, shared.NewValidationError("checkbook_id", "Issued checks require a checkbook")
	}
	if err := validateDetails(in.CheckDetails); err != nil {
		return nil, nil, err
	}

	c := &Check{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(actor),
		Direction:         in.Direction,
		State:             in.Direction.InitialState(),
	}
	if in.CheckbookID != nil {
		id := *in.CheckbookID
		c.CheckbookID = &id
	}
	c.setDetails(in.CheckDetails)

	ref := NoReference
	switch c.Direction {
	case DirectionReceived:
		ref = RefTo(ReferenceCustomer, c.CustomerID)
	case DirectionIssued:
		ref = RefTo(ReferenceSupplier, c.SupplierID)
	}
	m := newMovement(c.ID, ActionCreated, "", c.State, ref, c.CreatedAt, c.Notes, actor.IDPtr())
	return c, m, nil
}

func validateDetails(d CheckDetails) error {
	if !d.Channel.IsValid() {
		return shared.NewValidationError("channel", fmt.Sprintf("Invalid channel %q", d.Channel))
	}
	if !d.Format.IsValid() {
		return shared.NewValidationError("format", fmt.Sprintf("Invalid format %q", d.Format))
	}
	if d.BankID == uuid.Nil {
		return shared.NewValidationError("bank_id", "Bank is required")
	}
	if d.SerialNumber <= 0 {
		return shared.NewValidationError("serial_number", "Serial number must be positive")
	}
	if d.Amount.IsNegative() {
		return shared.NewValidationError("amount", "Amount cannot be negative")
	}
	return nil
}

func (c *Check) setDetails(d CheckDetails) {
	c.Channel = d.Channel
	c.Format = d.Format
	c.BankID = d.BankID
	c.SerialNumber = d.SerialNumber
	c.Amount = d.Amount
	c.IssueDate = d.IssueDate
	c.DueDate = d.DueDate
	c.ExpectedCollectionDate = d.ExpectedCollectionDate
	c.CustomerID = d.CustomerID
	c.SupplierID = d.SupplierID
	c.SaleID = d.SaleID
	c.PurchaseID = d.PurchaseID
	c.PayeeName = strings.TrimSpace(d.PayeeName)
	c.Notes = d.Notes
}

// IdentityChanged reports whether d changes the (bank, serial, format) key
func (c *Check) IdentityChanged(d CheckDetails) bool {
	return c.BankID != d.BankID || c.SerialNumber != d.SerialNumber || c.Format != d.Format
}

// EnsureEditable refuses edits once the check reached a terminal state
func (c *Check) EnsureEditable() error {
	if c.State.IsTerminal() {
		return shared.NewInvalidTransitionError(c.State.String(), "update", nil).
			WithDetail("reason", "terminal checks cannot be edited")
	}
	return nil
}

// Update replaces the editable attributes of a non-terminal check. A deposited
// received check keeps its expected-collection date when d omits it, since its
// inflow projection is dated by it.
func (c *Check) Update(d CheckDetails, actor *shared.Actor) error {
	if err := c.EnsureEditable(); err != nil {
		return err
	}
	if err := validateDetails(d); err != nil {
		return err
	}
	if c.Direction == DirectionReceived && c.State == CheckStateDeposited && d.ExpectedCollectionDate == nil {
		d.ExpectedCollectionDate = c.ExpectedCollectionDate
	}
	c.setDetails(d)
	c.MarkModified(actor)
	return nil
}

// fire moves the check to t's target after the guard passed
func (c *Check) fire(t Transition, ref MovementReference, date time.Time, notes string, actor *shared.Actor) *CheckMovement {
	from := c.State
	c.State = t.Target()
	c.MarkModified(actor)
	return newMovement(c.ID, t.Action(), from, c.State, ref, date, notes, actor.IDPtr())
}

// DepositInput carries the fields of a deposit request
type DepositInput struct {
	BankAccountID          uuid.UUID
	Date                   time.Time
	ExpectedCollectionDate *time.Time
	Notes                  string
}

// Deposit sends a received check to the bank. The expected-collection date
// falls back to the deposit date so the inflow projection always has a date.
func (c *Check) Deposit(in DepositInput, actor *shared.Actor) (*TransitionResult, error) {
	if err := guardTransition(TransitionDeposit, c.Direction, c.State); err != nil {
		return nil, err
	}
	if in.BankAccountID == uuid.Nil {
		return nil, shared.NewValidationError("bank_account_id", "Deposit requires a destination bank account")
	}
	date := dateOrNow(in.Date)
	expected := in.ExpectedCollectionDate
	if expected == nil {
		if c.ExpectedCollectionDate != nil {
			expected = c.ExpectedCollectionDate
		} else {
			expected = &date
		}
	}
	v := *expected
	c.ExpectedCollectionDate = &v
	c.StateReason = ""

	account := in.BankAccountID
	m := c.fire(TransitionDeposit, RefTo(ReferenceBankAccount, &account), date, in.Notes, actor)
	return &TransitionResult{Movement: m}, nil
}

// AccreditInput carries the fields of an accreditation; BankAccountID is the
// resolved destination account.
type AccreditInput struct {
	BankAccountID uuid.UUID
	Date          time.Time
	Notes         string
}

// Accredit confirms a deposited check was credited and produces the credit
// ledger entry.
func (c *Check) Accredit(in AccreditInput, actor *shared.Actor) (*TransitionResult, error) {
	if err := guardTransition(TransitionAccredit, c.Direction, c.State); err != nil {
		return nil, err
	}
	if in.BankAccountID == uuid.Nil {
		return nil, shared.NewValidationError("bank_account_id", "No destination bank account for accreditation")
	}
	date := dateOrNow(in.Date)
	entry, err := NewBankLedgerEntry(in.BankAccountID, date,
		fmt.Sprintf("Accreditation of check #%d", c.SerialNumber),
		decimal.Zero, c.Amount, c.ID, actor.IDPtr())
	if err != nil {
		return nil, err
	}
	account := in.BankAccountID
	m := c.fire(TransitionAccredit, RefTo(ReferenceBankAccount, &account), date, in.Notes, actor)
	return &TransitionResult{Movement: m, LedgerEntry: entry}, nil
}

// RejectInput carries the fields of a rejection
type RejectInput struct {
	Reason string
	Date   time.Time
}

// Reject records that the bank bounced a deposited check
func (c *Check) Reject(in RejectInput, actor *shared.Actor) (*TransitionResult, error) {
	if err := guardTransition(TransitionReject, c.Direction, c.State); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, shared.NewValidationError("reason", "Rejection requires a reason")
	}
	c.StateReason = reason
	m := c.fire(TransitionReject, NoReference, dateOrNow(in.Date), reason, actor)
	return &TransitionResult{Movement: m}, nil
}

// ApplyToSupplierInput carries the fields of a supplier application
type ApplyToSupplierInput struct {
	SupplierID uuid.UUID
	PurchaseID *uuid.UUID
	Date       time.Time
	Notes      string
}

// ApplyToSupplier hands the check to a supplier against a purchase. Received
// checks are recorded as a payment reference; issued checks reference the
// purchase, or the supplier when no purchase is given.
func (c *Check) ApplyToSupplier(in ApplyToSupplierInput, actor *shared.Actor) (*TransitionResult, error) {
	if err := guardTransition(TransitionApplyToSupplier, c.Direction, c.State); err != nil {
		return nil, err
	}
	if in.SupplierID == uuid.Nil {
		return nil, shared.NewValidationError("supplier_id", "Applying a check requires a supplier")
	}
	supplier := in.SupplierID
	c.SupplierID = &supplier
	if in.PurchaseID != nil {
		p := *in.PurchaseID
		c.PurchaseID = &p
	}

	var ref MovementReference
	switch c.Direction {
	case DirectionReceived:
		ref = RefTo(ReferencePayment, firstID(c.PurchaseID, &supplier))
	case DirectionIssued:
		if c.PurchaseID != nil {
			ref = RefTo(ReferencePurchase, c.PurchaseID)
		} else {
			ref = RefTo(ReferenceSupplier, &supplier)
		}
	}
	m := c.fire(TransitionApplyToSupplier, ref, dateOrNow(in.Date), in.Notes, actor)
	return &TransitionResult{Movement: m}, nil
}

// DeliverInput carries the fields of a delivery
type DeliverInput struct {
	SupplierID *uuid.UUID
	Recipient  string
	Date       time.Time
	Notes      string
}

// Deliver hands the physical check over. An issued check needs a supplier,
// either already linked or given now.
func (c *Check) Deliver(in DeliverInput, actor *shared.Actor) (*TransitionResult, error) {
	if err := guardTransition(TransitionDeliver, c.Direction, c.State); err != nil {
		return nil, err
	}
	if in.SupplierID != nil && *in.SupplierID != uuid.Nil {
		s := *in.SupplierID
		c.SupplierID = &s
	}
	if c.Direction == DirectionIssued && c.SupplierID == nil {
		return nil, shared.NewValidationError("supplier_id", "Delivering an issued check requires a supplier")
	}
	if r := strings.TrimSpace(in.Recipient); r != "" {
		c.PayeeName = r
	}

	var ref MovementReference
	switch c.Direction {
	case DirectionReceived:
		ref = RefTo(ReferenceDelivery, c.SupplierID)
		if ref.Kind == ReferenceNone {
			ref = MovementReference{Kind: ReferenceDelivery}
		}
	case DirectionIssued:
		ref = RefTo(ReferenceSupplier, c.SupplierID)
	}
	m := c.fire(TransitionDeliver, ref, dateOrNow(in.Date), in.Notes, actor)
	return &TransitionResult{Movement: m}, nil
}

// ClearInput carries the fields of a clearing; BankAccountID is the
// checkbook's account.
type ClearInput struct {
	BankAccountID uuid.UUID
	Date          time.Time
	Notes         string
}

// Clear records that a delivered issued check was debited from our account
func (c *Check) Clear(in ClearInput, actor *shared.Actor) (*TransitionResult, error) {
	if err := guardTransition(TransitionClear, c.Direction, c.State); err != nil {
		return nil, err
	}
	if in.BankAccountID == uuid.Nil {
		return nil, shared.NewValidationError("bank_account_id", "Clearing requires the checkbook's bank account")
	}
	date := dateOrNow(in.Date)
	entry, err := NewBankLedgerEntry(in.BankAccountID, date,
		fmt.Sprintf("Clearing of check #%d", c.SerialNumber),
		c.Amount, decimal.Zero, c.ID, actor.IDPtr())
	if err != nil {
		return nil, err
	}
	account := in.BankAccountID
	m := c.fire(TransitionClear, RefTo(ReferenceBankAccount, &account), date, in.Notes, actor)
	return &TransitionResult{Movement: m, LedgerEntry: entry}, nil
}

// VoidInput carries the fields of a void
type VoidInput struct {
	Reason string
	Date   time.Time
}

// Void cancels the check; the row is kept
func (c *Check) Void(in VoidInput, actor *shared.Actor) (*TransitionResult, error) {
	if err := guardTransition(TransitionVoid, c.Direction, c.State); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, shared.NewValidationError("reason", "Voiding requires a reason")
	}
	c.StateReason = reason
	m := c.fire(TransitionVoid, NoReference, dateOrNow(in.Date), reason, actor)
	return &TransitionResult{Movement: m}, nil
}

func dateOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func firstID(ids ...*uuid.UUID) *uuid.UUID {
	for _, id := range ids {
		if id != nil && *id != uuid.Nil {
			return id
		}
	}
	return nil
}
