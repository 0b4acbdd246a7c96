package persistence

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	apptreasury "github.com/erp/treasury/internal/application/treasury"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/erp/treasury/internal/infrastructure/migration"
	"github.com/erp/treasury/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresTestDB starts a disposable PostgreSQL and applies the SQL migrations.
// Set TREASURY_INTEGRATION=1 to run; Docker is required.
func newPostgresTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("TREASURY_INTEGRATION") != "1" {
		t.Skip("set TREASURY_INTEGRATION=1 to run PostgreSQL integration tests")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("treasury_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migration.Source{FS: migrations.FS}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	status, err := m.Status()
	require.NoError(t, err)
	require.Zero(t, status.Pending)

	return db
}

func TestPostgres_CheckLeaseSerializesTransitions(t *testing.T) {
	db := newPostgresTestDB(t)
	ctx := context.Background()

	account := seedBankAccount(t, db, true)
	c, m := newReceivedCheck(t, account.BankID, 4001, "900")
	require.NoError(t, NewGormCheckRepository(db).Create(ctx, c))
	require.NoError(t, NewGormCheckMovementRepository(db).Append(ctx, m))

	uow := NewGormUnitOfWork(db, 5*time.Second)
	deposit := func() error {
		return uow.Execute(ctx, func(repos apptreasury.TransactionalRepositories) error {
			check, err := repos.Checks().FindByIDForUpdate(ctx, c.ID)
			if err != nil {
				return err
			}
			time.Sleep(100 * time.Millisecond)
			res, err := check.Deposit(treasury.DepositInput{BankAccountID: account.ID}, nil)
			if err != nil {
				return err
			}
			if err := repos.Checks().Save(ctx, check); err != nil {
				return err
			}
			return repos.Movements().Append(ctx, res.Movement)
		})
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = deposit()
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case shared.AsDomainError(err).Code == shared.CodeInvalidStateTransition:
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)

	count, err := NewGormCheckMovementRepository(db).CountByCheck(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPostgres_LockTimeout(t *testing.T) {
	db := newPostgresTestDB(t)
	ctx := context.Background()

	c, _ := newReceivedCheck(t, uuid.New(), 4002, "10")
	require.NoError(t, NewGormCheckRepository(db).Create(ctx, c))

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- NewGormUnitOfWork(db, 0).Execute(ctx, func(repos apptreasury.TransactionalRepositories) error {
			if _, err := repos.Checks().FindByIDForUpdate(ctx, c.ID); err != nil {
				close(held)
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := NewGormUnitOfWork(db, 200*time.Millisecond).Execute(ctx, func(repos apptreasury.TransactionalRepositories) error {
		_, err := repos.Checks().FindByIDForUpdate(ctx, c.ID)
		return err
	})
	close(release)
	require.NoError(t, <-done)

	require.Error(t, err)
	assert.Equal(t, shared.CodeLockTimeout, shared.AsDomainError(err).Code)
	assert.True(t, shared.IsRetryable(err))
}
