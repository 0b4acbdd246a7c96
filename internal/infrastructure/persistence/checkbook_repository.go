package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCheckbookRepository implements CheckbookRepository using GORM
type GormCheckbookRepository struct {
	db *gorm.DB
}

// NewGormCheckbookRepository creates a new GormCheckbookRepository
func NewGormCheckbookRepository(db *gorm.DB) *GormCheckbookRepository {
	return &GormCheckbookRepository{db: db}
}

// FindByID finds a checkbook by its ID
func (r *GormCheckbookRepository) FindByID(ctx context.Context, id uuid.UUID) (*treasury.Checkbook, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a checkbook and leases its row
func (r *GormCheckbookRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*treasury.Checkbook, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormCheckbookRepository) first(db *gorm.DB, id uuid.UUID) (*treasury.Checkbook, error) {
	var model models.CheckbookModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("checkbook", id)
		}
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds checkbooks matching the filter
func (r *GormCheckbookRepository) FindAll(ctx context.Context, filter treasury.CheckbookFilter) ([]treasury.Checkbook, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CheckbookModel{})
	if filter.BankAccountID != nil {
		query = query.Where("bank_account_id = ?", *filter.BankAccountID)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	orderBy := ValidateSortField(filter.OrderBy, CheckbookSortFields, "range_start")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir)).Order("id ASC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var bookModels []models.CheckbookModel
	if err := query.Find(&bookModels).Error; err != nil {
		return nil, 0, translateError(err)
	}
	books := make([]treasury.Checkbook, len(bookModels))
	for i := range bookModels {
		books[i] = *bookModels[i].ToDomain()
	}
	return books, total, nil
}

// LockRangesByBankAccount leases the bank account row and every checkbook
// of the account, in range order, and returns their ranges. The account row
// anchors the lease when the account has no checkbook yet.
func (r *GormCheckbookRepository) LockRangesByBankAccount(ctx context.Context, bankAccountID uuid.UUID) ([]treasury.SerialRange, error) {
	var anchor []models.BankAccountModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Select("id").
		Where("id = ?", bankAccountID).
		Find(&anchor).Error; err != nil {
		return nil, translateError(err)
	}
	return r.ranges(forUpdate(r.db.WithContext(ctx)), bankAccountID)
}

// FindRangesByBankAccount returns the ranges of the account without locking.
// Voided checkbooks keep their range.
func (r *GormCheckbookRepository) FindRangesByBankAccount(ctx context.Context, bankAccountID uuid.UUID) ([]treasury.SerialRange, error) {
	return r.ranges(r.db.WithContext(ctx), bankAccountID)
}

func (r *GormCheckbookRepository) ranges(db *gorm.DB, bankAccountID uuid.UUID) ([]treasury.SerialRange, error) {
	var bookModels []models.CheckbookModel
	if err := db.
		Where("bank_account_id = ?", bankAccountID).
		Order("range_start ASC").Order("id ASC").
		Find(&bookModels).Error; err != nil {
		return nil, translateError(err)
	}
	ranges := make([]treasury.SerialRange, len(bookModels))
	for i, m := range bookModels {
		ranges[i] = treasury.SerialRange{CheckbookID: m.ID, Start: m.RangeStart, End: m.RangeEnd}
	}
	return ranges, nil
}

// Create inserts a new checkbook
func (r *GormCheckbookRepository) Create(ctx context.Context, checkbook *treasury.Checkbook) error {
	model := models.CheckbookModelFromDomain(checkbook)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Save updates a checkbook with optimistic locking on its version
func (r *GormCheckbookRepository) Save(ctx context.Context, checkbook *treasury.Checkbook) error {
	model := models.CheckbookModelFromDomain(checkbook)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", checkbook.ID, checkbook.Version-1).
		Select("*").Omit("id", "created_at", "created_by").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return concurrentModification("checkbook", checkbook.ID)
	}
	return nil
}

// Delete physically removes a checkbook
func (r *GormCheckbookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CheckbookModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("checkbook", id)
	}
	return nil
}

// Ensure GormCheckbookRepository implements CheckbookRepository
var _ treasury.CheckbookRepository = (*GormCheckbookRepository)(nil)
