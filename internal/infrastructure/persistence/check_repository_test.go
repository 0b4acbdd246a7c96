package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockPostgresDB creates a GORM handle on the postgres dialect backed by sqlmock
func newMockPostgresDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormCheckRepository_FindByIDForUpdate(t *testing.T) {
	t.Run("takes a row lease", func(t *testing.T) {
		db, mock, mockDB := newMockPostgresDB(t)
		defer mockDB.Close()
		repo := NewGormCheckRepository(db)

		checkID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "version", "direction", "channel", "format", "bank_id", "serial_number", "amount", "state"}).
			AddRow(checkID, 3, "received", "C1", "physical", uuid.New(), 42, "250.00", "in_portfolio")

		mock.ExpectQuery(`SELECT \* FROM "treasury_checks" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE`).
			WithArgs(checkID, 1).
			WillReturnRows(rows)

		check, err := repo.FindByIDForUpdate(context.Background(), checkID)

		require.NoError(t, err)
		assert.Equal(t, checkID, check.ID)
		assert.Equal(t, 3, check.Version)
		assert.Equal(t, treasury.CheckStateInPortfolio, check.State)
		assert.True(t, check.Amount.Equal(decimal.NewFromInt(250)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock wait timeout becomes LOCK_TIMEOUT", func(t *testing.T) {
		db, mock, mockDB := newMockPostgresDB(t)
		defer mockDB.Close()
		repo := NewGormCheckRepository(db)

		checkID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "treasury_checks" .* FOR UPDATE`).
			WithArgs(checkID, 1).
			WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})

		_, err := repo.FindByIDForUpdate(context.Background(), checkID)

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrLockTimeout))
		assert.True(t, shared.IsRetryable(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("plain reads take no lease", func(t *testing.T) {
		db, mock, mockDB := newMockPostgresDB(t)
		defer mockDB.Close()
		repo := NewGormCheckRepository(db)

		checkID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "treasury_checks" WHERE id = \$1 ORDER BY "treasury_checks"."id" LIMIT \$2$`).
			WithArgs(checkID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), checkID)

		assert.True(t, errors.Is(err, shared.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCheckRepository_Save(t *testing.T) {
	newCheck := func() *treasury.Check {
		return &treasury.Check{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
				Version:    5,
			},
			Direction:    treasury.DirectionReceived,
			Channel:      treasury.ChannelC1,
			Format:       treasury.FormatPhysical,
			BankID:       uuid.New(),
			SerialNumber: 10,
			Amount:       decimal.NewFromInt(100),
			State:        treasury.CheckStateDeposited,
		}
	}

	t.Run("updates guarded by the previous version", func(t *testing.T) {
		db, mock, mockDB := newMockPostgresDB(t)
		defer mockDB.Close()
		repo := NewGormCheckRepository(db)

		mock.ExpectExec(`UPDATE "treasury_checks" SET .* WHERE .*version = .*`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Save(context.Background(), newCheck()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matching row is a concurrent modification", func(t *testing.T) {
		db, mock, mockDB := newMockPostgresDB(t)
		defer mockDB.Close()
		repo := NewGormCheckRepository(db)

		mock.ExpectExec(`UPDATE "treasury_checks" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Save(context.Background(), newCheck())

		require.Error(t, err)
		de := shared.AsDomainError(err)
		assert.Equal(t, shared.CodeConflict, de.Code)
		assert.Equal(t, "CONCURRENT_MODIFICATION", de.Details["reason"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTranslateError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, translateError(nil))
	})

	t.Run("domain errors pass through", func(t *testing.T) {
		in := shared.NewValidationError("amount", "bad")
		assert.Same(t, in, translateError(in))
	})

	t.Run("postgres deadlock is a lock timeout", func(t *testing.T) {
		err := translateError(&pgconn.PgError{Code: "40P01"})
		assert.Equal(t, shared.CodeLockTimeout, shared.AsDomainError(err).Code)
	})

	t.Run("sqlite busy is a lock timeout", func(t *testing.T) {
		err := translateError(sqlite3.Error{Code: sqlite3.ErrBusy})
		assert.Equal(t, shared.CodeLockTimeout, shared.AsDomainError(err).Code)
	})

	t.Run("duplicate key is a conflict", func(t *testing.T) {
		err := translateError(gorm.ErrDuplicatedKey)
		de := shared.AsDomainError(err)
		assert.Equal(t, shared.CodeConflict, de.Code)
		assert.Equal(t, "DUPLICATE_KEY", de.Details["reason"])
	})

	t.Run("other postgres errors stay unclassified", func(t *testing.T) {
		err := translateError(&pgconn.PgError{Code: "42P01"})
		assert.Equal(t, shared.CodeUnexpected, shared.AsDomainError(err).Code)
	})
}
