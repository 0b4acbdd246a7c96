package treasury_test

import (
	"context"
	"sync"
	"testing"
	"time"

	apptreasury "github.com/erp/treasury/internal/application/treasury"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/erp/treasury/internal/infrastructure/persistence"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixture wires the three services over a private in-memory database
type fixture struct {
	db         *gorm.DB
	checks     *apptreasury.CheckService
	checkbooks *apptreasury.CheckbookService
	cashFlow   *apptreasury.CashFlowService
	recorder   *countingRecorder
	actor      *shared.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })
	db := database.DB

	uow := persistence.NewGormUnitOfWork(db, time.Second)
	repos := persistence.NewTreasuryRepositories(db)
	accounts := persistence.NewGormBankAccountDirectory(db)
	partners := persistence.NewGormPartnerDirectory(db)
	recorder := &countingRecorder{}
	opts := []apptreasury.ServiceOption{
		apptreasury.WithAuditLogger(persistence.NewGormAuditLogger(db)),
		apptreasury.WithRecorder(recorder),
	}

	return &fixture{
		db:         db,
		checks:     apptreasury.NewCheckService(uow, repos, accounts, partners, opts...),
		checkbooks: apptreasury.NewCheckbookService(uow, repos, accounts, opts...),
		cashFlow:   apptreasury.NewCashFlowService(repos, accounts, opts...),
		recorder:   recorder,
		actor:      &shared.Actor{UserID: uuid.New(), Username: "cashier"},
	}
}

func (f *fixture) seedBankAccount(t *testing.T) models.BankAccountModel {
	t.Helper()
	now := time.Now().UTC()
	account := models.BankAccountModel{
		BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BankID:    uuid.New(),
		Name:      "Operating account",
		Currency:  "ARS",
		Active:    true,
	}
	require.NoError(t, f.db.Create(&account).Error)
	return account
}

func (f *fixture) seedSupplier(t *testing.T) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	supplier := models.SupplierModel{PartnerModel: models.PartnerModel{
		BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Code:      "SUP-" + uuid.NewString()[:8],
		Name:      "Paper Mill SA",
		Active:    true,
	}}
	require.NoError(t, f.db.Create(&supplier).Error)
	return supplier.ID
}

func (f *fixture) auditCount(t *testing.T, action string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.AuditLogModel{}).Where("action = ?", action).Count(&n).Error)
	return n
}

func (f *fixture) receivedCheck(t *testing.T, serial int64, amount string, expected time.Time) *apptreasury.CheckResponse {
	t.Helper()
	bankID := uuid.New()
	c, err := f.checks.Create(context.Background(), apptreasury.CreateCheckRequest{
		Direction:              "received",
		Channel:                "C1",
		Format:                 "physical",
		BankID:                 &bankID,
		SerialNumber:           serial,
		Amount:                 decimal.RequireFromString(amount),
		ExpectedCollectionDate: &expected,
	}, f.actor)
	require.NoError(t, err)
	return c
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func requireCode(t *testing.T, err error, code string) *shared.DomainError {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code, de.Message)
	return de
}

type countingRecorder struct {
	mu           sync.Mutex
	transitions  map[string]int
	lockTimeouts int
}

func (r *countingRecorder) count(operation, outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transitions[operation+"/"+outcome]
}

func (r *countingRecorder) RecordTransition(_ context.Context, operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.transitions == nil {
		r.transitions = map[string]int{}
	}
	r.transitions[operation+"/"+outcome]++
}

func (r *countingRecorder) RecordLockTimeout(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lockTimeouts++
}
