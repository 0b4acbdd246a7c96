package treasury

import (
	"context"
	"errors"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditModule is the module name written on every treasury audit line
const AuditModule = "treasury"

// Operation outcomes reported to the Recorder
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// ServiceOption configures optional collaborators of the treasury services
type ServiceOption func(*serviceBase)

// WithAuditLogger sets the audit log writer
func WithAuditLogger(a AuditLogger) ServiceOption {
	return func(b *serviceBase) {
		if a != nil {
			b.audit = a
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) ServiceOption {
	return func(b *serviceBase) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) ServiceOption {
	return func(b *serviceBase) {
		if l != nil {
			b.logger = l
		}
	}
}

// serviceBase holds what every treasury service shares: the unit of work and
// the post-commit reporting collaborators.
type serviceBase struct {
	uow      UnitOfWork
	audit    AuditLogger
	recorder Recorder
	logger   *zap.Logger
}

func newServiceBase(uow UnitOfWork, opts []ServiceOption) serviceBase {
	b := serviceBase{
		uow:      uow,
		recorder: noopRecorder{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// fail classifies err for the caller. Domain errors pass through untouched;
// anything else is logged with full context and surfaced as UNEXPECTED.
func (b *serviceBase) fail(ctx context.Context, operation string, err error) error {
	log := logger.WithLogger(ctx, b.logger)

	var de *shared.DomainError
	if !errors.As(err, &de) {
		log.Error("treasury operation failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		b.recorder.RecordTransition(ctx, operation, OutcomeError)
		return shared.NewUnexpectedError(err)
	}

	if de.Code == shared.CodeLockTimeout {
		b.recorder.RecordLockTimeout(ctx, operation)
		log.Warn("lock wait timeout",
			zap.String("operation", operation),
			zap.Error(err),
		)
	} else if de.Code == shared.CodeUnexpected {
		log.Error("treasury operation failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
	b.recorder.RecordTransition(ctx, operation, OutcomeRejected)
	return err
}

// succeed reports a committed mutation: metrics, log line and audit line.
// Audit failures never undo the committed work.
func (b *serviceBase) succeed(ctx context.Context, operation string, actor *shared.Actor, description string, fields ...zap.Field) {
	b.recorder.RecordTransition(ctx, operation, OutcomeSuccess)

	log := logger.WithLogger(ctx, b.logger)
	log.Info(description, append(fields, zap.String("operation", operation), zap.String("actor", actor.Name()))...)

	if b.audit == nil {
		return
	}
	entry := AuditEntry{
		ActorID:     actor.IDPtr(),
		Actor:       actor.Name(),
		Module:      AuditModule,
		Action:      operation,
		Description: description,
		OccurredAt:  time.Now().UTC(),
	}
	if err := b.audit.Append(ctx, entry); err != nil {
		log.Warn("failed to append audit log",
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
}

// syncProjection re-derives the projection of c and writes or removes the
// row accordingly.
func syncProjection(ctx context.Context, repos TransactionalRepositories, c *treasury.Check) error {
	if p := treasury.DeriveProjection(c); p != nil {
		return repos.Projections().Upsert(ctx, p)
	}
	return repos.Projections().Delete(ctx, c.ID)
}

// persistTransition writes the mutated check and the side effects of one
// transition through the same unit of work.
func persistTransition(ctx context.Context, repos TransactionalRepositories, c *treasury.Check, res *treasury.TransitionResult) error {
	if err := repos.Checks().Save(ctx, c); err != nil {
		return err
	}
	if err := repos.Movements().Append(ctx, res.Movement); err != nil {
		return err
	}
	if res.LedgerEntry != nil {
		if err := repos.Ledger().Append(ctx, res.LedgerEntry); err != nil {
			return err
		}
	}
	return syncProjection(ctx, repos, c)
}

func derefID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func nonNilID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	v := *id
	return &v
}

// lookupBankAccount resolves an account referenced by a request. Unknown and
// inactive accounts are input errors on field.
func lookupBankAccount(ctx context.Context, dir BankAccountDirectory, id uuid.UUID, field string) (*BankAccount, error) {
	if id == uuid.Nil {
		return nil, shared.NewValidationError(field, "Bank account is required")
	}
	account, err := dir.FindBankAccount(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError(field, "Bank account not found").WithDetail("bank_account_id", id.String())
		}
		return nil, err
	}
	if !account.Active {
		return nil, shared.NewValidationError(field, "Bank account is inactive").WithDetail("bank_account_id", id.String())
	}
	return account, nil
}

// verifyPartners checks that the referenced customer and supplier exist
func verifyPartners(ctx context.Context, dir PartnerDirectory, customerID, supplierID *uuid.UUID) error {
	if dir == nil {
		return nil
	}
	if id := nonNilID(customerID); id != nil {
		if _, err := dir.FindCustomer(ctx, *id); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("customer_id", "Customer not found").WithDetail("customer_id", id.String())
			}
			return err
		}
	}
	if id := nonNilID(supplierID); id != nil {
		if _, err := dir.FindSupplier(ctx, *id); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("supplier_id", "Supplier not found").WithDetail("supplier_id", id.String())
			}
			return err
		}
	}
	return nil
}
