package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCheckRepository implements CheckRepository using GORM
type GormCheckRepository struct {
	db *gorm.DB
}

// NewGormCheckRepository creates a new GormCheckRepository
func NewGormCheckRepository(db *gorm.DB) *GormCheckRepository {
	return &GormCheckRepository{db: db}
}

// FindByID finds a check by its ID
func (r *GormCheckRepository) FindByID(ctx context.Context, id uuid.UUID) (*treasury.Check, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a check and leases its row until the transaction ends
func (r *GormCheckRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*treasury.Check, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormCheckRepository) first(db *gorm.DB, id uuid.UUID) (*treasury.Check, error) {
	var model models.CheckModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("check", id)
		}
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIdentity finds the check holding (bank, serial, format), nil when free
func (r *GormCheckRepository) FindByIdentity(ctx context.Context, bankID uuid.UUID, serial int64, format treasury.Format) (*treasury.Check, error) {
	var model models.CheckModel
	err := r.db.WithContext(ctx).
		Where("bank_id = ? AND serial_number = ? AND format = ?", bankID, serial, format).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds checks matching the filter, with the total before paging
func (r *GormCheckRepository) FindAll(ctx context.Context, filter treasury.CheckFilter) ([]treasury.Check, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CheckModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	orderBy := ValidateSortField(filter.OrderBy, CheckSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir)).Order("id ASC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var checkModels []models.CheckModel
	if err := query.Find(&checkModels).Error; err != nil {
		return nil, 0, translateError(err)
	}
	checks := make([]treasury.Check, len(checkModels))
	for i := range checkModels {
		checks[i] = *checkModels[i].ToDomain()
	}
	return checks, total, nil
}

func (r *GormCheckRepository) applyFilter(query *gorm.DB, filter treasury.CheckFilter) *gorm.DB {
	if filter.Direction != nil {
		query = query.Where("direction = ?", *filter.Direction)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.Channel != nil {
		query = query.Where("channel = ?", *filter.Channel)
	}
	if filter.BankID != nil {
		query = query.Where("bank_id = ?", *filter.BankID)
	}
	if filter.CheckbookID != nil {
		query = query.Where("checkbook_id = ?", *filter.CheckbookID)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("(LOWER(payee_name) LIKE ? OR CAST(serial_number AS TEXT) LIKE ?)", like, like)
	}
	return query
}

// CountByCheckbook counts the checks issued from a checkbook
func (r *GormCheckRepository) CountByCheckbook(ctx context.Context, checkbookID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CheckModel{}).
		Where("checkbook_id = ?", checkbookID).
		Count(&count).Error
	return count, translateError(err)
}

// SerialBoundsByCheckbook returns the lowest and highest serial issued from a checkbook
func (r *GormCheckRepository) SerialBoundsByCheckbook(ctx context.Context, checkbookID uuid.UUID) (int64, int64, bool, error) {
	var bounds struct {
		MinSerial *int64
		MaxSerial *int64
	}
	err := r.db.WithContext(ctx).Model(&models.CheckModel{}).
		Select("MIN(serial_number) AS min_serial, MAX(serial_number) AS max_serial").
		Where("checkbook_id = ?", checkbookID).
		Scan(&bounds).Error
	if err != nil {
		return 0, 0, false, translateError(err)
	}
	if bounds.MinSerial == nil || bounds.MaxSerial == nil {
		return 0, 0, false, nil
	}
	return *bounds.MinSerial, *bounds.MaxSerial, true, nil
}

// Create inserts a new check. The identity index backs the duplicate check
// done by the caller.
func (r *GormCheckRepository) Create(ctx context.Context, check *treasury.Check) error {
	model := models.CheckModelFromDomain(check)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewConflictError("DUPLICATE_CHECK",
				fmt.Sprintf("A %s check with serial %d already exists for this bank", check.Format, check.SerialNumber),
				map[string]any{"serial_number": check.SerialNumber})
		}
		return translateError(err)
	}
	return nil
}

// Save updates a check whose version was bumped once since it was loaded
func (r *GormCheckRepository) Save(ctx context.Context, check *treasury.Check) error {
	model := models.CheckModelFromDomain(check)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", check.ID, check.Version-1).
		Select("*").Omit("id", "created_at", "created_by").
		Updates(model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return shared.NewConflictError("DUPLICATE_CHECK",
				fmt.Sprintf("A %s check with serial %d already exists for this bank", check.Format, check.SerialNumber),
				map[string]any{"serial_number": check.SerialNumber})
		}
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return concurrentModification("check", check.ID)
	}
	return nil
}

// Delete physically removes a check
func (r *GormCheckRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CheckModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("check", id)
	}
	return nil
}

// Ensure GormCheckRepository implements CheckRepository
var _ treasury.CheckRepository = (*GormCheckRepository)(nil)
