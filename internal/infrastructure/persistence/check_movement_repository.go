package persistence

import (
	"context"
	"errors"

	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCheckMovementRepository implements MovementRepository using GORM.
// Rows are only ever inserted, or deleted together with their check.
type GormCheckMovementRepository struct {
	db *gorm.DB
}

// NewGormCheckMovementRepository creates a new GormCheckMovementRepository
func NewGormCheckMovementRepository(db *gorm.DB) *GormCheckMovementRepository {
	return &GormCheckMovementRepository{db: db}
}

// Append inserts a movement
func (r *GormCheckMovementRepository) Append(ctx context.Context, movement *treasury.CheckMovement) error {
	model := models.CheckMovementModelFromDomain(movement)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// ListByCheck returns the history of a check, oldest first
func (r *GormCheckMovementRepository) ListByCheck(ctx context.Context, checkID uuid.UUID) ([]treasury.CheckMovement, error) {
	var rows []models.CheckMovementModel
	if err := r.db.WithContext(ctx).
		Where("check_id = ?", checkID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	movements := make([]treasury.CheckMovement, len(rows))
	for i := range rows {
		movements[i] = *rows[i].ToDomain()
	}
	return movements, nil
}

// CountByCheck counts the movements of a check
func (r *GormCheckMovementRepository) CountByCheck(ctx context.Context, checkID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CheckMovementModel{}).
		Where("check_id = ?", checkID).
		Count(&count).Error
	return count, translateError(err)
}

// LastByAction returns the latest movement of the given action, nil if none
func (r *GormCheckMovementRepository) LastByAction(ctx context.Context, checkID uuid.UUID, action treasury.MovementAction) (*treasury.CheckMovement, error) {
	var model models.CheckMovementModel
	err := r.db.WithContext(ctx).
		Where("check_id = ? AND action = ?", checkID, action).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// DeleteByCheck removes the history of a check
func (r *GormCheckMovementRepository) DeleteByCheck(ctx context.Context, checkID uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).
		Where("check_id = ?", checkID).
		Delete(&models.CheckMovementModel{}).Error)
}

// Ensure GormCheckMovementRepository implements MovementRepository
var _ treasury.MovementRepository = (*GormCheckMovementRepository)(nil)
