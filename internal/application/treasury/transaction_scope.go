package treasury

import (
	"context"

	"github.com/erp/treasury/internal/domain/treasury"
)

// UnitOfWork runs one external request's writes in a single database
// transaction. If fn returns an error every write is rolled back, otherwise
// the transaction commits exactly once.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all treasury repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Aggregate boundary notes:
//   - Checks: the Check aggregate root. Row leases are taken through FindByIDForUpdate.
//   - Checkbooks: the Checkbook aggregate root, locked per row or per bank account.
//   - Movements: append-only history owned by a check.
//   - Projections: the derived cash-flow row of a check, rewritten after every mutation.
//   - Ledger: append-only bank-account lines created by cash-settling transitions.
type TransactionalRepositories interface {
	Checks() treasury.CheckRepository
	Checkbooks() treasury.CheckbookRepository
	Movements() treasury.MovementRepository
	Projections() treasury.ProjectionRepository
	Ledger() treasury.BankLedgerRepository
}
