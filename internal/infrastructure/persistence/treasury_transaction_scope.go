package persistence

import (
	"context"
	"fmt"
	"time"

	apptreasury "github.com/erp/treasury/internal/application/treasury"
	"github.com/erp/treasury/internal/domain/treasury"
	"gorm.io/gorm"
)

// GormUnitOfWork implements UnitOfWork using GORM transactions.
// Every repository handed to fn shares the same transaction, and row leases
// taken through them are held until commit or rollback.
type GormUnitOfWork struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormUnitOfWork creates a new GormUnitOfWork. On PostgreSQL a positive
// lockTimeout bounds how long a lease may wait for a competing transaction.
func NewGormUnitOfWork(db *gorm.DB, lockTimeout time.Duration) *GormUnitOfWork {
	return &GormUnitOfWork{db: db, lockTimeout: lockTimeout}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(repos apptreasury.TransactionalRepositories) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return translateError(err)
}

// NewTreasuryRepositories returns repositories bound to db outside any
// transaction, for the read side.
func NewTreasuryRepositories(db *gorm.DB) apptreasury.TransactionalRepositories {
	return &gormTransactionalRepositories{tx: db}
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Checks returns the check repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Checks() treasury.CheckRepository {
	return NewGormCheckRepository(r.tx)
}

// Checkbooks returns the checkbook repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Checkbooks() treasury.CheckbookRepository {
	return NewGormCheckbookRepository(r.tx)
}

// Movements returns the movement repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Movements() treasury.MovementRepository {
	return NewGormCheckMovementRepository(r.tx)
}

// Projections returns the projection repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Projections() treasury.ProjectionRepository {
	return NewGormCashFlowProjectionRepository(r.tx)
}

// Ledger returns the bank ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Ledger() treasury.BankLedgerRepository {
	return NewGormBankLedgerRepository(r.tx)
}

// Ensure GormUnitOfWork implements UnitOfWork
var _ apptreasury.UnitOfWork = (*GormUnitOfWork)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ apptreasury.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
