package treasury

import (
	"fmt"
	"strings"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
)

// Checkbook is a contiguous block of serial numbers belonging to one bank account
type Checkbook struct {
	shared.BaseAggregateRoot
	BankAccountID uuid.UUID
	BankID        uuid.UUID
	Description   string
	RangeStart    int64
	RangeEnd      int64
	NextNumber    int64
	State         CheckbookState
	StateReason   string
}

// CheckbookInput carries the editable attributes of a checkbook
type CheckbookInput struct {
	BankAccountID uuid.UUID
	BankID        uuid.UUID
	Description   string
	RangeStart    int64
	RangeEnd      int64
	NextNumber    int64

	// LastIssued is the highest serial already issued from the checkbook, zero
	// when none. Only Update reads it.
	LastIssued int64
}

// NewCheckbook validates the range and creates an active checkbook. Overlap
// with sibling checkbooks is checked by the caller under the account lease.
func NewCheckbook(in CheckbookInput, actor *shared.Actor) (*Checkbook, error) {
	if in.BankAccountID == uuid.Nil {
		return nil, shared.NewValidationError("bank_account_id", "Bank account is required")
	}
	if in.NextNumber == 0 {
		in.NextNumber = in.RangeStart
	}
	if err := ValidateRange(in.RangeStart, in.RangeEnd, in.NextNumber); err != nil {
		return nil, err
	}
	return &Checkbook{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(actor),
		BankAccountID:     in.BankAccountID,
		BankID:            in.BankID,
		Description:       strings.TrimSpace(in.Description),
		RangeStart:        in.RangeStart,
		RangeEnd:          in.RangeEnd,
		NextNumber:        in.NextNumber,
		State:             CheckbookStateActive,
	}, nil
}

// Range returns the serial range of the checkbook
func (b *Checkbook) Range() SerialRange {
	return SerialRange{CheckbookID: b.ID, Start: b.RangeStart, End: b.RangeEnd}
}

// Remaining returns how many serials can still be issued
func (b *Checkbook) Remaining() int64 {
	if !b.State.CanIssue() {
		return 0
	}
	return b.RangeEnd - b.NextNumber + 1
}

// Update edits description and range. The bank account cannot change.
//
// Without an explicit next number the cursor is kept, moved past the highest
// issued serial when needed. An exhausted checkbook whose range was extended
// becomes active again; an explicit next number must lie above every issued
// serial.
func (b *Checkbook) Update(in CheckbookInput, actor *shared.Actor) error {
	if b.State == CheckbookStateVoided {
		return shared.NewConflictError("CHECKBOOK_VOIDED", "A voided checkbook cannot be edited", map[string]any{"checkbook_id": b.ID.String()})
	}
	if in.BankAccountID != uuid.Nil && in.BankAccountID != b.BankAccountID {
		return shared.NewValidationError("bank_account_id", "The bank account of a checkbook cannot be changed")
	}

	next := in.NextNumber
	// An exhausted cursor points at the last issued serial, so echoing it back
	// counts as not choosing one.
	if next == 0 || (b.State == CheckbookStateExhausted && next == b.NextNumber) {
		next = b.NextNumber
		if b.State == CheckbookStateExhausted {
			next = in.RangeStart
		}
		if next <= in.LastIssued {
			next = in.LastIssued + 1
		}
	} else if next <= in.LastIssued {
		err := shared.NewValidationError("next_number",
			fmt.Sprintf("Next number %d was already issued; serials up to %d are taken", next, in.LastIssued))
		return err.WithDetail("reason", ReasonNextAlreadyIssued)
	}

	exhausted := false
	if next > in.RangeEnd && in.LastIssued >= in.RangeEnd && in.RangeEnd > 0 {
		next = in.RangeEnd
		exhausted = true
	}
	if err := ValidateRange(in.RangeStart, in.RangeEnd, next); err != nil {
		return err
	}

	b.Description = strings.TrimSpace(in.Description)
	b.RangeStart = in.RangeStart
	b.RangeEnd = in.RangeEnd
	b.NextNumber = next
	switch {
	case exhausted:
		b.State = CheckbookStateExhausted
	case b.State == CheckbookStateExhausted:
		b.State = CheckbookStateActive
	}
	b.MarkModified(actor)
	return nil
}

// AssignSerial hands out the next serial number and advances the cursor.
// Issuing the last serial of the range exhausts the checkbook.
func (b *Checkbook) AssignSerial(actor *shared.Actor) (int64, error) {
	if !b.State.CanIssue() {
		return 0, shared.NewConflictError("CHECKBOOK_NOT_ACTIVE",
			fmt.Sprintf("Checkbook is %s and cannot issue checks", b.State),
			map[string]any{"checkbook_id": b.ID.String(), "state": string(b.State)})
	}
	serial := b.NextNumber
	b.advancePast(serial)
	b.MarkModified(actor)
	return serial, nil
}

// ReserveSerial accepts an explicitly chosen serial, which must lie inside the
// range, and moves the cursor past it when needed.
func (b *Checkbook) ReserveSerial(serial int64, actor *shared.Actor) error {
	if !b.State.CanIssue() {
		return shared.NewConflictError("CHECKBOOK_NOT_ACTIVE",
			fmt.Sprintf("Checkbook is %s and cannot issue checks", b.State),
			map[string]any{"checkbook_id": b.ID.String(), "state": string(b.State)})
	}
	if !b.Range().Contains(serial) {
		err := shared.NewValidationError("serial_number",
			fmt.Sprintf("Serial %d is outside checkbook range [%d,%d]", serial, b.RangeStart, b.RangeEnd))
		return err.WithDetail("reason", ReasonSerialOutOfBook)
	}
	if serial >= b.NextNumber {
		b.advancePast(serial)
		b.MarkModified(actor)
	}
	return nil
}

func (b *Checkbook) advancePast(serial int64) {
	if serial >= b.RangeEnd {
		b.NextNumber = b.RangeEnd
		b.State = CheckbookStateExhausted
		return
	}
	b.NextNumber = serial + 1
}

// Block stops the checkbook from issuing serials
func (b *Checkbook) Block(reason string, actor *shared.Actor) error {
	if b.State == CheckbookStateVoided {
		return shared.NewConflictError("CHECKBOOK_VOIDED", "A voided checkbook cannot be blocked", map[string]any{"checkbook_id": b.ID.String()})
	}
	b.State = CheckbookStateBlocked
	b.StateReason = strings.TrimSpace(reason)
	b.MarkModified(actor)
	return nil
}

// Void retires the checkbook while keeping its row and its checks
func (b *Checkbook) Void(reason string, actor *shared.Actor) error {
	if b.State == CheckbookStateVoided {
		return shared.NewConflictError("CHECKBOOK_VOIDED", "Checkbook is already voided", map[string]any{"checkbook_id": b.ID.String()})
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewValidationError("reason", "Voiding a checkbook requires a reason")
	}
	b.State = CheckbookStateVoided
	b.StateReason = reason
	b.MarkModified(actor)
	return nil
}
