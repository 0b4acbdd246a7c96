package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgreSQL SQLSTATE codes for lock waits that gave up
const (
	pgLockNotAvailable    = "55P03"
	pgDeadlockDetected    = "40P01"
	pgSerializationFailed = "40001"
)

// translateError maps driver failures to domain errors. Domain errors and nil
// pass through untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	switch {
	case IsLockTimeout(err):
		return shared.NewLockTimeoutError(err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.NewConflictError("DUPLICATE_KEY", "A record with the same identity already exists", nil)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewConflictError("FOREIGN_KEY", "The record references a missing or dependent row", nil)
	}
	return fmt.Errorf("database: %w", err)
}

// IsLockTimeout reports whether err is a lock wait that timed out or lost a
// deadlock. Either way the whole unit of work can be retried.
func IsLockTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgDeadlockDetected, pgSerializationFailed:
			return true
		}
		return false
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// forUpdate adds a row lease to the query. SQLite has no row locks; a write
// transaction there already excludes every other writer.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func concurrentModification(entity string, id any) error {
	return shared.NewConflictError("CONCURRENT_MODIFICATION",
		fmt.Sprintf("The %s has been modified by another operation", entity),
		map[string]any{"entity": entity, "id": fmt.Sprint(id)})
}
