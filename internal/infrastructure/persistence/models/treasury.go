package models

import (
	"time"

	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckModel is the persistence model for the Check aggregate root.
// (bank_id, serial_number, format) is unique.
type CheckModel struct {
	AggregateModel
	Direction              treasury.Direction  `gorm:"type:varchar(10);not null;index"`
	Channel                treasury.Channel    `gorm:"type:varchar(4);not null"`
	Format                 treasury.Format     `gorm:"type:varchar(12);not null;uniqueIndex:idx_treasury_check_identity,priority:3"`
	BankID                 uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_treasury_check_identity,priority:1"`
	CheckbookID            *uuid.UUID          `gorm:"type:uuid;index"`
	SerialNumber           int64               `gorm:"not null;uniqueIndex:idx_treasury_check_identity,priority:2"`
	Amount                 decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	IssueDate              *time.Time          `gorm:"type:date"`
	DueDate                *time.Time          `gorm:"type:date;index"`
	ExpectedCollectionDate *time.Time          `gorm:"type:date"`
	CustomerID             *uuid.UUID          `gorm:"type:uuid;index"`
	SupplierID             *uuid.UUID          `gorm:"type:uuid;index"`
	SaleID                 *uuid.UUID          `gorm:"type:uuid"`
	PurchaseID             *uuid.UUID          `gorm:"type:uuid"`
	PayeeName              string              `gorm:"type:varchar(200)"`
	State                  treasury.CheckState `gorm:"type:varchar(24);not null;index"`
	StateReason            string              `gorm:"type:varchar(500)"`
	Notes                  string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CheckModel) TableName() string {
	return "treasury_checks"
}

// ToDomain converts the persistence model to a domain Check
func (m *CheckModel) ToDomain() *treasury.Check {
	return &treasury.Check{
		BaseAggregateRoot:      m.ToDomainAggregateRoot(),
		Direction:              m.Direction,
		Channel:                m.Channel,
		Format:                 m.Format,
		BankID:                 m.BankID,
		CheckbookID:            m.CheckbookID,
		SerialNumber:           m.SerialNumber,
		Amount:                 m.Amount,
		IssueDate:              m.IssueDate,
		DueDate:                m.DueDate,
		ExpectedCollectionDate: m.ExpectedCollectionDate,
		CustomerID:             m.CustomerID,
		SupplierID:             m.SupplierID,
		SaleID:                 m.SaleID,
		PurchaseID:             m.PurchaseID,
		PayeeName:              m.PayeeName,
		State:                  m.State,
		StateReason:            m.StateReason,
		Notes:                  m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Check
func (m *CheckModel) FromDomain(c *treasury.Check) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Direction = c.Direction
	m.Channel = c.Channel
	m.Format = c.Format
	m.BankID = c.BankID
	m.CheckbookID = c.CheckbookID
	m.SerialNumber = c.SerialNumber
	m.Amount = c.Amount
	m.IssueDate = c.IssueDate
	m.DueDate = c.DueDate
	m.ExpectedCollectionDate = c.ExpectedCollectionDate
	m.CustomerID = c.CustomerID
	m.SupplierID = c.SupplierID
	m.SaleID = c.SaleID
	m.PurchaseID = c.PurchaseID
	m.PayeeName = c.PayeeName
	m.State = c.State
	m.StateReason = c.StateReason
	m.Notes = c.Notes
}

// CheckModelFromDomain creates a new persistence model from a domain Check
func CheckModelFromDomain(c *treasury.Check) *CheckModel {
	m := &CheckModel{}
	m.FromDomain(c)
	return m
}

// CheckbookModel is the persistence model for the Checkbook aggregate root
type CheckbookModel struct {
	AggregateModel
	BankAccountID uuid.UUID               `gorm:"type:uuid;not null;index:idx_treasury_checkbook_account_range,priority:1"`
	BankID        uuid.UUID               `gorm:"type:uuid;not null"`
	Description   string                  `gorm:"type:varchar(200)"`
	RangeStart    int64                   `gorm:"not null;index:idx_treasury_checkbook_account_range,priority:2"`
	RangeEnd      int64                   `gorm:"not null"`
	NextNumber    int64                   `gorm:"not null"`
	State         treasury.CheckbookState `gorm:"type:varchar(12);not null;default:'active';index"`
	StateReason   string                  `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (CheckbookModel) TableName() string {
	return "treasury_checkbooks"
}

// ToDomain converts the persistence model to a domain Checkbook
func (m *CheckbookModel) ToDomain() *treasury.Checkbook {
	return &treasury.Checkbook{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		BankAccountID:     m.BankAccountID,
		BankID:            m.BankID,
		Description:       m.Description,
		RangeStart:        m.RangeStart,
		RangeEnd:          m.RangeEnd,
		NextNumber:        m.NextNumber,
		State:             m.State,
		StateReason:       m.StateReason,
	}
}

// FromDomain populates the persistence model from a domain Checkbook
func (m *CheckbookModel) FromDomain(b *treasury.Checkbook) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.BankAccountID = b.BankAccountID
	m.BankID = b.BankID
	m.Description = b.Description
	m.RangeStart = b.RangeStart
	m.RangeEnd = b.RangeEnd
	m.NextNumber = b.NextNumber
	m.State = b.State
	m.StateReason = b.StateReason
}

// CheckbookModelFromDomain creates a new persistence model from a domain Checkbook
func CheckbookModelFromDomain(b *treasury.Checkbook) *CheckbookModel {
	m := &CheckbookModel{}
	m.FromDomain(b)
	return m
}

// CheckMovementModel is one append-only row of a check's history
type CheckMovementModel struct {
	ID            uuid.UUID               `gorm:"type:uuid;primary_key"`
	CheckID       uuid.UUID               `gorm:"type:uuid;not null;index:idx_treasury_movement_check,priority:1"`
	Action        treasury.MovementAction `gorm:"type:varchar(24);not null"`
	FromState     treasury.CheckState     `gorm:"type:varchar(24)"`
	ToState       treasury.CheckState     `gorm:"type:varchar(24);not null"`
	ReferenceKind treasury.ReferenceKind  `gorm:"type:varchar(16);not null;default:'none'"`
	ReferenceID   *uuid.UUID              `gorm:"type:uuid"`
	Date          time.Time               `gorm:"not null"`
	Notes         string                  `gorm:"type:text"`
	ActorID       *uuid.UUID              `gorm:"type:uuid"`
	CreatedAt     time.Time               `gorm:"not null;index:idx_treasury_movement_check,priority:2"`
}

// TableName returns the table name for GORM
func (CheckMovementModel) TableName() string {
	return "treasury_check_movements"
}

// ToDomain converts the persistence model to a domain CheckMovement
func (m *CheckMovementModel) ToDomain() *treasury.CheckMovement {
	return &treasury.CheckMovement{
		ID:            m.ID,
		CheckID:       m.CheckID,
		Action:        m.Action,
		FromState:     m.FromState,
		ToState:       m.ToState,
		ReferenceKind: m.ReferenceKind,
		ReferenceID:   m.ReferenceID,
		Date:          m.Date,
		Notes:         m.Notes,
		ActorID:       m.ActorID,
		CreatedAt:     m.CreatedAt,
	}
}

// CheckMovementModelFromDomain creates a new persistence model from a domain CheckMovement
func CheckMovementModelFromDomain(mv *treasury.CheckMovement) *CheckMovementModel {
	return &CheckMovementModel{
		ID:            mv.ID,
		CheckID:       mv.CheckID,
		Action:        mv.Action,
		FromState:     mv.FromState,
		ToState:       mv.ToState,
		ReferenceKind: mv.ReferenceKind,
		ReferenceID:   mv.ReferenceID,
		Date:          mv.Date,
		Notes:         mv.Notes,
		ActorID:       mv.ActorID,
		CreatedAt:     mv.CreatedAt,
	}
}

// CashFlowProjectionModel is the projection row; (origin, check_id) is unique
type CashFlowProjectionModel struct {
	ID          uuid.UUID                 `gorm:"type:uuid;primary_key"`
	Origin      treasury.ProjectionOrigin `gorm:"type:varchar(16);not null;uniqueIndex:idx_treasury_projection_origin,priority:1"`
	CheckID     uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_treasury_projection_origin,priority:2"`
	Sign        treasury.ProjectionSign   `gorm:"type:varchar(8);not null"`
	Date        time.Time                 `gorm:"type:date;not null;index"`
	Amount      decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	Channel     treasury.Channel          `gorm:"type:varchar(4);not null"`
	Description string                    `gorm:"type:varchar(300)"`
	UpdatedAt   time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CashFlowProjectionModel) TableName() string {
	return "treasury_cash_flow_projections"
}

// ToDomain converts the persistence model to a domain CashFlowProjection
func (m *CashFlowProjectionModel) ToDomain() *treasury.CashFlowProjection {
	return &treasury.CashFlowProjection{
		ID:          m.ID,
		Origin:      m.Origin,
		CheckID:     m.CheckID,
		Sign:        m.Sign,
		Date:        m.Date,
		Amount:      m.Amount,
		Channel:     m.Channel,
		Description: m.Description,
		UpdatedAt:   m.UpdatedAt,
	}
}

// CashFlowProjectionModelFromDomain creates a new persistence model from a domain projection
func CashFlowProjectionModelFromDomain(p *treasury.CashFlowProjection) *CashFlowProjectionModel {
	return &CashFlowProjectionModel{
		ID:          p.ID,
		Origin:      p.Origin,
		CheckID:     p.CheckID,
		Sign:        p.Sign,
		Date:        p.Date,
		Amount:      p.Amount,
		Channel:     p.Channel,
		Description: p.Description,
		UpdatedAt:   p.UpdatedAt,
	}
}

// BankLedgerEntryModel is an immutable bank-account line
type BankLedgerEntryModel struct {
	ID            uuid.UUID                    `gorm:"type:uuid;primary_key"`
	BankAccountID uuid.UUID                    `gorm:"type:uuid;not null;index:idx_treasury_ledger_account_date,priority:1"`
	Date          time.Time                    `gorm:"type:date;not null;index:idx_treasury_ledger_account_date,priority:2"`
	Description   string                       `gorm:"type:varchar(300)"`
	Debit         decimal.Decimal              `gorm:"type:decimal(18,2);not null;default:0"`
	Credit        decimal.Decimal              `gorm:"type:decimal(18,2);not null;default:0"`
	ReferenceKind treasury.LedgerReferenceKind `gorm:"type:varchar(16);not null"`
	ReferenceID   uuid.UUID                    `gorm:"type:uuid;not null;index"`
	ActorID       *uuid.UUID                   `gorm:"type:uuid"`
	CreatedAt     time.Time                    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BankLedgerEntryModel) TableName() string {
	return "treasury_bank_ledger_entries"
}

// ToDomain converts the persistence model to a domain BankLedgerEntry
func (m *BankLedgerEntryModel) ToDomain() *treasury.BankLedgerEntry {
	return &treasury.BankLedgerEntry{
		ID:            m.ID,
		BankAccountID: m.BankAccountID,
		Date:          m.Date,
		Description:   m.Description,
		Debit:         m.Debit,
		Credit:        m.Credit,
		ReferenceKind: m.ReferenceKind,
		ReferenceID:   m.ReferenceID,
		ActorID:       m.ActorID,
		CreatedAt:     m.CreatedAt,
	}
}

// BankLedgerEntryModelFromDomain creates a new persistence model from a domain ledger entry
func BankLedgerEntryModelFromDomain(e *treasury.BankLedgerEntry) *BankLedgerEntryModel {
	return &BankLedgerEntryModel{
		ID:            e.ID,
		BankAccountID: e.BankAccountID,
		Date:          e.Date,
		Description:   e.Description,
		Debit:         e.Debit,
		Credit:        e.Credit,
		ReferenceKind: e.ReferenceKind,
		ReferenceID:   e.ReferenceID,
		ActorID:       e.ActorID,
		CreatedAt:     e.CreatedAt,
	}
}

// TreasuryModels lists the models owned by the treasury, in dependency order
func TreasuryModels() []any {
	return []any{
		&CheckbookModel{},
		&CheckModel{},
		&CheckMovementModel{},
		&CashFlowProjectionModel{},
		&BankLedgerEntryModel{},
	}
}
