package treasury

import (
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankLedgerEntry is a settled bank-account line. Exactly one of Debit and
// Credit is positive; the other is zero.
type BankLedgerEntry struct {
	ID            uuid.UUID
	BankAccountID uuid.UUID
	Date          time.Time
	Description   string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	ReferenceKind LedgerReferenceKind
	ReferenceID   uuid.UUID
	ActorID       *uuid.UUID
	CreatedAt     time.Time
}

// NewBankLedgerEntry validates the debit xor credit rule and builds an entry
// referencing a check.
func NewBankLedgerEntry(accountID uuid.UUID, date time.Time, description string, debit, credit decimal.Decimal, checkID uuid.UUID, actor *uuid.UUID) (*BankLedgerEntry, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewValidationError("bank_account_id", "Ledger entry requires a bank account")
	}
	if debit.IsNegative() || credit.IsNegative() {
		return nil, shared.NewValidationError("amount", "Ledger amounts cannot be negative")
	}
	if debit.IsPositive() == credit.IsPositive() {
		return nil, shared.NewValidationError("amount", "Exactly one of debit or credit must be greater than zero")
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return &BankLedgerEntry{
		ID:            uuid.New(),
		BankAccountID: accountID,
		Date:          date,
		Description:   description,
		Debit:         debit,
		Credit:        credit,
		ReferenceKind: LedgerReferenceCheck,
		ReferenceID:   checkID,
		ActorID:       actor,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// IsBalancedSide reports whether the entry satisfies the debit xor credit rule
func (e *BankLedgerEntry) IsBalancedSide() bool {
	return e.Debit.IsPositive() != e.Credit.IsPositive() &&
		!e.Debit.IsNegative() && !e.Credit.IsNegative()
}

// Amount returns the signed effect on the account balance
func (e *BankLedgerEntry) Amount() decimal.Decimal {
	return e.Credit.Sub(e.Debit)
}
