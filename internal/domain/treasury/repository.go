package treasury

import (
	"context"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckFilter narrows check listings
type CheckFilter struct {
	shared.Filter
	Direction   *Direction
	State       *CheckState
	Channel     *Channel
	BankID      *uuid.UUID
	CheckbookID *uuid.UUID
	DueFrom     *time.Time
	DueTo       *time.Time
	Search      string
}

// CheckRepository persists checks
type CheckRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Check, error)
	// FindByIDForUpdate loads the check holding an exclusive lease on its row
	// until the surrounding unit of work ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Check, error)
	FindByIdentity(ctx context.Context, bankID uuid.UUID, serial int64, format Format) (*Check, error)
	FindAll(ctx context.Context, filter CheckFilter) ([]Check, int64, error)
	CountByCheckbook(ctx context.Context, checkbookID uuid.UUID) (int64, error)
	SerialBoundsByCheckbook(ctx context.Context, checkbookID uuid.UUID) (minSerial, maxSerial int64, found bool, err error)
	Create(ctx context.Context, check *Check) error
	Save(ctx context.Context, check *Check) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CheckbookFilter narrows checkbook listings
type CheckbookFilter struct {
	shared.Filter
	BankAccountID *uuid.UUID
	State         *CheckbookState
}

// CheckbookRepository persists checkbooks
type CheckbookRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Checkbook, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Checkbook, error)
	FindAll(ctx context.Context, filter CheckbookFilter) ([]Checkbook, int64, error)
	// LockRangesByBankAccount locks every checkbook of the account and returns
	// their ranges ordered by start.
	LockRangesByBankAccount(ctx context.Context, bankAccountID uuid.UUID) ([]SerialRange, error)
	FindRangesByBankAccount(ctx context.Context, bankAccountID uuid.UUID) ([]SerialRange, error)
	Create(ctx context.Context, checkbook *Checkbook) error
	Save(ctx context.Context, checkbook *Checkbook) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MovementRepository is the append-only check history
type MovementRepository interface {
	Append(ctx context.Context, movement *CheckMovement) error
	ListByCheck(ctx context.Context, checkID uuid.UUID) ([]CheckMovement, error)
	CountByCheck(ctx context.Context, checkID uuid.UUID) (int64, error)
	LastByAction(ctx context.Context, checkID uuid.UUID, action MovementAction) (*CheckMovement, error)
	// DeleteByCheck removes the history of a check that is physically deleted
	DeleteByCheck(ctx context.Context, checkID uuid.UUID) error
}

// ProjectionFilter narrows cash-flow listings
type ProjectionFilter struct {
	shared.Filter
	From    *time.Time
	To      *time.Time
	Channel *Channel
	Sign    *ProjectionSign
}

// ProjectionRepository stores at most one projection per check
type ProjectionRepository interface {
	Upsert(ctx context.Context, projection *CashFlowProjection) error
	Delete(ctx context.Context, checkID uuid.UUID) error
	FindByCheck(ctx context.Context, checkID uuid.UUID) (*CashFlowProjection, error)
	FindAll(ctx context.Context, filter ProjectionFilter) ([]CashFlowProjection, int64, error)
	// Totals sums inflows and outflows over every row matching filter,
	// ignoring pagination.
	Totals(ctx context.Context, filter ProjectionFilter) (inflow, outflow decimal.Decimal, err error)
}

// LedgerFilter narrows bank ledger listings
type LedgerFilter struct {
	shared.Filter
	BankAccountID uuid.UUID
	From          *time.Time
	To            *time.Time
}

// BankLedgerRepository appends settled bank-account lines
type BankLedgerRepository interface {
	Append(ctx context.Context, entry *BankLedgerEntry) error
	CountByCheck(ctx context.Context, checkID uuid.UUID) (int64, error)
	ListByCheck(ctx context.Context, checkID uuid.UUID) ([]BankLedgerEntry, error)
	FindAll(ctx context.Context, filter LedgerFilter) ([]BankLedgerEntry, int64, error)
}
