package treasury

import (
	"time"

	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCheckRequest carries the fields of a new check. Issued checks name a
// checkbook and may leave SerialNumber zero to take the next free serial.
type CreateCheckRequest struct {
	Direction              treasury.Direction
	Channel                treasury.Channel
	Format                 treasury.Format
	BankID                 *uuid.UUID
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
	Notes                  string
}

// UpdateCheckRequest replaces the editable fields of a check
type UpdateCheckRequest struct {
	Channel                treasury.Channel
	Format                 treasury.Format
	BankID                 *uuid.UUID
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

// DeleteCheckRequest asks for a physical delete, or a void when forced
type DeleteCheckRequest struct {
	Force  bool
	Reason string
}

// DeleteCheckResult tells the caller what a delete request turned into
type DeleteCheckResult struct {
	Deleted bool           `json:"deleted"`
	Voided  bool           `json:"voided"`
	Check   *CheckResponse `json:"check,omitempty"`
}

// DepositRequest carries the fields of a deposit
type DepositRequest struct {
	BankAccountID          uuid.UUID
	Date                   time.Time
	ExpectedCollectionDate *time.Time
	Notes                  string
}

// AccreditRequest carries the fields of an accreditation. Without an account
// the one from the deposit movement is used.
type AccreditRequest struct {
	BankAccountID *uuid.UUID
	Date          time.Time
	Notes         string
}

// RejectRequest carries the fields of a rejection
type RejectRequest struct {
	Reason string
	Date   time.Time
}

// ApplyToSupplierRequest carries the fields of a supplier application
type ApplyToSupplierRequest struct {
	SupplierID uuid.UUID
	PurchaseID *uuid.UUID
	Date       time.Time
	Notes      string
}

// DeliverRequest carries the fields of a delivery
type DeliverRequest struct {
	SupplierID *uuid.UUID
	Recipient  string
	Date       time.Time
	Notes      string
}

// ClearRequest carries the fields of a clearing
type ClearRequest struct {
	Date  time.Time
	Notes string
}

// VoidRequest carries the fields of a void
type VoidRequest struct {
	Reason string
	Date   time.Time
}

// CreateCheckbookRequest creates a checkbook. When RangeStart is zero the
// range is suggested from Length and PreferredStart.
type CreateCheckbookRequest struct {
	BankAccountID  uuid.UUID
	Description    string
	RangeStart     int64
	RangeEnd       int64
	NextNumber     int64
	Length         int64
	PreferredStart *int64
}

// UpdateCheckbookRequest edits a checkbook
type UpdateCheckbookRequest struct {
	Description string
	RangeStart  int64
	RangeEnd    int64
	NextNumber  int64
}

// DeleteCheckbookRequest asks for a delete, or a void when forced
type DeleteCheckbookRequest struct {
	Force  bool
	Reason string
}

// DeleteCheckbookResult tells the caller what a delete request turned into
type DeleteCheckbookResult struct {
	Deleted   bool               `json:"deleted"`
	Voided    bool               `json:"voided"`
	Checkbook *CheckbookResponse `json:"checkbook,omitempty"`
}

// CheckResponse represents a check in API responses
type CheckResponse struct {
	ID                     uuid.UUID           `json:"id"`
	Direction              treasury.Direction  `json:"direction"`
	Channel                treasury.Channel    `json:"channel"`
	Format                 treasury.Format     `json:"format"`
	BankID                 uuid.UUID           `json:"bank_id"`
	CheckbookID            *uuid.UUID          `json:"checkbook_id,omitempty"`
	SerialNumber           int64               `json:"serial_number"`
	Amount                 decimal.Decimal     `json:"amount"`
	IssueDate              *time.Time          `json:"issue_date,omitempty"`
	DueDate                *time.Time          `json:"due_date,omitempty"`
	ExpectedCollectionDate *time.Time          `json:"expected_collection_date,omitempty"`
	CustomerID             *uuid.UUID          `json:"customer_id,omitempty"`
	SupplierID             *uuid.UUID          `json:"supplier_id,omitempty"`
	SaleID                 *uuid.UUID          `json:"sale_id,omitempty"`
	PurchaseID             *uuid.UUID          `json:"purchase_id,omitempty"`
	PayeeName              string              `json:"payee_name,omitempty"`
	State                  treasury.CheckState `json:"state"`
	StateReason            string              `json:"state_reason,omitempty"`
	Notes                  string              `json:"notes,omitempty"`
	IsTerminal             bool                `json:"is_terminal"`
	CreatedBy              *uuid.UUID          `json:"created_by,omitempty"`
	UpdatedBy              *uuid.UUID          `json:"updated_by,omitempty"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
	Version                int                 `json:"version"`
}

// ToCheckResponse converts a domain check to a response
func ToCheckResponse(c *treasury.Check) CheckResponse {
	return CheckResponse{
		ID:                     c.ID,
		Direction:              c.Direction,
		Channel:                c.Channel,
		Format:                 c.Format,
		BankID:                 c.BankID,
		CheckbookID:            c.CheckbookID,
		SerialNumber:           c.SerialNumber,
		Amount:                 c.Amount,
		IssueDate:              c.IssueDate,
		DueDate:                c.DueDate,
		ExpectedCollectionDate: c.ExpectedCollectionDate,
		CustomerID:             c.CustomerID,
		SupplierID:             c.SupplierID,
		SaleID:                 c.SaleID,
		PurchaseID:             c.PurchaseID,
		PayeeName:              c.PayeeName,
		State:                  c.State,
		StateReason:            c.StateReason,
		Notes:                  c.Notes,
		IsTerminal:             c.State.IsTerminal(),
		CreatedBy:              c.CreatedBy,
		UpdatedBy:              c.UpdatedBy,
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
		Version:                c.Version,
	}
}

// CheckbookResponse represents a checkbook in API responses
type CheckbookResponse struct {
	ID            uuid.UUID               `json:"id"`
	BankAccountID uuid.UUID               `json:"bank_account_id"`
	BankID        uuid.UUID               `json:"bank_id"`
	Description   string                  `json:"description"`
	RangeStart    int64                   `json:"range_start"`
	RangeEnd      int64                   `json:"range_end"`
	NextNumber    int64                   `json:"next_number"`
	Remaining     int64                   `json:"remaining"`
	State         treasury.CheckbookState `json:"state"`
	StateReason   string                  `json:"state_reason,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	Version       int                     `json:"version"`
}

// ToCheckbookResponse converts a domain checkbook to a response
func ToCheckbookResponse(b *treasury.Checkbook) CheckbookResponse {
	return CheckbookResponse{
		ID:            b.ID,
		BankAccountID: b.BankAccountID,
		BankID:        b.BankID,
		Description:   b.Description,
		RangeStart:    b.RangeStart,
		RangeEnd:      b.RangeEnd,
		NextNumber:    b.NextNumber,
		Remaining:     b.Remaining(),
		State:         b.State,
		StateReason:   b.StateReason,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		Version:       b.Version,
	}
}

// MovementResponse represents a check movement in API responses
type MovementResponse struct {
	ID            uuid.UUID               `json:"id"`
	CheckID       uuid.UUID               `json:"check_id"`
	Action        treasury.MovementAction `json:"action"`
	FromState     treasury.CheckState     `json:"from_state,omitempty"`
	ToState       treasury.CheckState     `json:"to_state"`
	ReferenceKind treasury.ReferenceKind  `json:"reference_kind"`
	ReferenceID   *uuid.UUID              `json:"reference_id,omitempty"`
	Date          time.Time               `json:"date"`
	Notes         string                  `json:"notes,omitempty"`
	ActorID       *uuid.UUID              `json:"actor_id,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// ToMovementResponse converts a domain movement to a response
func ToMovementResponse(m *treasury.CheckMovement) MovementResponse {
	return MovementResponse{
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

// ProjectionResponse represents a cash-flow projection in API responses
type ProjectionResponse struct {
	ID           uuid.UUID                 `json:"id"`
	Origin       treasury.ProjectionOrigin `json:"origin"`
	CheckID      uuid.UUID                 `json:"check_id"`
	Sign         treasury.ProjectionSign   `json:"sign"`
	Date         time.Time                 `json:"date"`
	Amount       decimal.Decimal           `json:"amount"`
	SignedAmount decimal.Decimal           `json:"signed_amount"`
	Channel      treasury.Channel          `json:"channel"`
	Description  string                    `json:"description"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// ToProjectionResponse converts a domain projection to a response
func ToProjectionResponse(p *treasury.CashFlowProjection) ProjectionResponse {
	return ProjectionResponse{
		ID:           p.ID,
		Origin:       p.Origin,
		CheckID:      p.CheckID,
		Sign:         p.Sign,
		Date:         p.Date,
		Amount:       p.Amount,
		SignedAmount: p.SignedAmount(),
		Channel:      p.Channel,
		Description:  p.Description,
		UpdatedAt:    p.UpdatedAt,
	}
}

// LedgerEntryResponse represents a bank ledger entry in API responses
type LedgerEntryResponse struct {
	ID            uuid.UUID                    `json:"id"`
	BankAccountID uuid.UUID                    `json:"bank_account_id"`
	Date          time.Time                    `json:"date"`
	Description   string                       `json:"description"`
	Debit         decimal.Decimal              `json:"debit"`
	Credit        decimal.Decimal              `json:"credit"`
	ReferenceKind treasury.LedgerReferenceKind `json:"reference_kind"`
	ReferenceID   uuid.UUID                    `json:"reference_id"`
	CreatedAt     time.Time                    `json:"created_at"`
}

// ToLedgerEntryResponse converts a domain ledger entry to a response
func ToLedgerEntryResponse(e *treasury.BankLedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:            e.ID,
		BankAccountID: e.BankAccountID,
		Date:          e.Date,
		Description:   e.Description,
		Debit:         e.Debit,
		Credit:        e.Credit,
		ReferenceKind: e.ReferenceKind,
		ReferenceID:   e.ReferenceID,
		CreatedAt:     e.CreatedAt,
	}
}

// RangeSuggestion is the answer to a range suggestion query
type RangeSuggestion struct {
	BankAccountID uuid.UUID `json:"bank_account_id"`
	RangeStart    int64     `json:"range_start"`
	RangeEnd      int64     `json:"range_end"`
	Length        int64     `json:"length"`
}
