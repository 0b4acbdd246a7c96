package treasury

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BankAccount is the slice of the bank-account catalog the treasury needs
type BankAccount struct {
	ID     uuid.UUID
	BankID uuid.UUID
	Name   string
	Active bool
}

// BankAccountDirectory looks up bank accounts owned by the catalog module
type BankAccountDirectory interface {
	// FindBankAccount returns shared.ErrNotFound when the account does not exist
	FindBankAccount(ctx context.Context, id uuid.UUID) (*BankAccount, error)
}

// Partner is a customer or supplier as seen by the treasury
type Partner struct {
	ID   uuid.UUID
	Name string
}

// PartnerDirectory looks up customers and suppliers
type PartnerDirectory interface {
	FindSupplier(ctx context.Context, id uuid.UUID) (*Partner, error)
	FindCustomer(ctx context.Context, id uuid.UUID) (*Partner, error)
}

// AuditEntry is one line of the back-office audit log
type AuditEntry struct {
	ActorID     *uuid.UUID
	Actor       string
	Module      string
	Action      string
	Description string
	OccurredAt  time.Time
}

// AuditLogger appends audit lines
type AuditLogger interface {
	Append(ctx context.Context, entry AuditEntry) error
}

// Recorder receives operation outcomes for metrics
type Recorder interface {
	RecordTransition(ctx context.Context, operation, outcome string)
	RecordLockTimeout(ctx context.Context, operation string)
}

type noopRecorder struct{}

func (noopRecorder) RecordTransition(context.Context, string, string) {}
func (noopRecorder) RecordLockTimeout(context.Context, string)        {}
