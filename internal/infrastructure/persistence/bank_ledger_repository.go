package persistence

import (
	"context"
	"fmt"

	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBankLedgerRepository implements BankLedgerRepository using GORM
type GormBankLedgerRepository struct {
	db *gorm.DB
}

// NewGormBankLedgerRepository creates a new GormBankLedgerRepository
func NewGormBankLedgerRepository(db *gorm.DB) *GormBankLedgerRepository {
	return &GormBankLedgerRepository{db: db}
}

// Append inserts a ledger entry
func (r *GormBankLedgerRepository) Append(ctx context.Context, entry *treasury.BankLedgerEntry) error {
	model := models.BankLedgerEntryModelFromDomain(entry)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// CountByCheck counts the entries referencing a check
func (r *GormBankLedgerRepository) CountByCheck(ctx context.Context, checkID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BankLedgerEntryModel{}).
		Where("reference_kind = ? AND reference_id = ?", treasury.LedgerReferenceCheck, checkID).
		Count(&count).Error
	return count, translateError(err)
}

// ListByCheck returns the entries referencing a check, oldest first
func (r *GormBankLedgerRepository) ListByCheck(ctx context.Context, checkID uuid.UUID) ([]treasury.BankLedgerEntry, error) {
	var rows []models.BankLedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("reference_kind = ? AND reference_id = ?", treasury.LedgerReferenceCheck, checkID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return ledgerToDomain(rows), nil
}

// FindAll lists the lines of one bank account
func (r *GormBankLedgerRepository) FindAll(ctx context.Context, filter treasury.LedgerFilter) ([]treasury.BankLedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BankLedgerEntryModel{}).
		Where("bank_account_id = ?", filter.BankAccountID)
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	orderBy := ValidateSortField(filter.OrderBy, LedgerSortFields, "date")
	orderDir := "ASC"
	if filter.OrderBy != "" {
		orderDir = ValidateSortOrder(filter.OrderDir)
	}
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir)).Order("created_at ASC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.BankLedgerEntryModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return ledgerToDomain(rows), total, nil
}

func ledgerToDomain(rows []models.BankLedgerEntryModel) []treasury.BankLedgerEntry {
	entries := make([]treasury.BankLedgerEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries
}

// Ensure GormBankLedgerRepository implements BankLedgerRepository
var _ treasury.BankLedgerRepository = (*GormBankLedgerRepository)(nil)
