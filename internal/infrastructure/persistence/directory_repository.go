package persistence

import (
	"context"
	"errors"
	"time"

	apptreasury "github.com/erp/treasury/internal/application/treasury"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBankAccountDirectory reads bank accounts from the catalog tables
type GormBankAccountDirectory struct {
	db *gorm.DB
}

// NewGormBankAccountDirectory creates a new GormBankAccountDirectory
func NewGormBankAccountDirectory(db *gorm.DB) *GormBankAccountDirectory {
	return &GormBankAccountDirectory{db: db}
}

// FindBankAccount returns shared.ErrNotFound when the account does not exist
func (d *GormBankAccountDirectory) FindBankAccount(ctx context.Context, id uuid.UUID) (*apptreasury.BankAccount, error) {
	var model models.BankAccountModel
	if err := d.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, translateError(err)
	}
	return &apptreasury.BankAccount{
		ID:     model.ID,
		BankID: model.BankID,
		Name:   model.Name,
		Active: model.Active,
	}, nil
}

// GormPartnerDirectory reads customers and suppliers
type GormPartnerDirectory struct {
	db *gorm.DB
}

// NewGormPartnerDirectory creates a new GormPartnerDirectory
func NewGormPartnerDirectory(db *gorm.DB) *GormPartnerDirectory {
	return &GormPartnerDirectory{db: db}
}

// FindSupplier returns shared.ErrNotFound when the supplier does not exist
func (d *GormPartnerDirectory) FindSupplier(ctx context.Context, id uuid.UUID) (*apptreasury.Partner, error) {
	var model models.SupplierModel
	if err := d.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, partnerLookupError(err)
	}
	return &apptreasury.Partner{ID: model.ID, Name: model.Name}, nil
}

// FindCustomer returns shared.ErrNotFound when the customer does not exist
func (d *GormPartnerDirectory) FindCustomer(ctx context.Context, id uuid.UUID) (*apptreasury.Partner, error) {
	var model models.CustomerModel
	if err := d.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, partnerLookupError(err)
	}
	return &apptreasury.Partner{ID: model.ID, Name: model.Name}, nil
}

func partnerLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return translateError(err)
}

// GormAuditLogger appends lines to the audit_logs table
type GormAuditLogger struct {
	db *gorm.DB
}

// NewGormAuditLogger creates a new GormAuditLogger
func NewGormAuditLogger(db *gorm.DB) *GormAuditLogger {
	return &GormAuditLogger{db: db}
}

// Append inserts an audit line
func (l *GormAuditLogger) Append(ctx context.Context, entry apptreasury.AuditEntry) error {
	occurred := entry.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	model := &models.AuditLogModel{
		ID:          uuid.New(),
		ActorID:     entry.ActorID,
		Actor:       entry.Actor,
		Module:      entry.Module,
		Action:      entry.Action,
		Description: entry.Description,
		OccurredAt:  occurred,
	}
	return translateError(l.db.WithContext(ctx).Create(model).Error)
}

var (
	_ apptreasury.BankAccountDirectory = (*GormBankAccountDirectory)(nil)
	_ apptreasury.PartnerDirectory     = (*GormPartnerDirectory)(nil)
	_ apptreasury.AuditLogger          = (*GormAuditLogger)(nil)
)
