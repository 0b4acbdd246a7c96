package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/treasury/internal/domain/treasury"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCashFlowProjectionRepository implements ProjectionRepository using GORM
type GormCashFlowProjectionRepository struct {
	db *gorm.DB
}

// NewGormCashFlowProjectionRepository creates a new GormCashFlowProjectionRepository
func NewGormCashFlowProjectionRepository(db *gorm.DB) *GormCashFlowProjectionRepository {
	return &GormCashFlowProjectionRepository{db: db}
}

// Upsert writes the projection of a check, replacing the previous one.
// The (origin, check_id) unique index keeps one row per check.
func (r *GormCashFlowProjectionRepository) Upsert(ctx context.Context, projection *treasury.CashFlowProjection) error {
	model := models.CashFlowProjectionModelFromDomain(projection)
	return translateError(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "origin"}, {Name: "check_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"sign", "date", "amount", "channel", "description", "updated_at"}),
		}).
		Create(model).Error)
}

// Delete removes the projection of a check; a missing row is not an error
func (r *GormCashFlowProjectionRepository) Delete(ctx context.Context, checkID uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).
		Where("origin = ? AND check_id = ?", treasury.OriginCheck, checkID).
		Delete(&models.CashFlowProjectionModel{}).Error)
}

// FindByCheck returns the projection of a check, nil if there is none
func (r *GormCashFlowProjectionRepository) FindByCheck(ctx context.Context, checkID uuid.UUID) (*treasury.CashFlowProjection, error) {
	var model models.CashFlowProjectionModel
	err := r.db.WithContext(ctx).
		Where("origin = ? AND check_id = ?", treasury.OriginCheck, checkID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists projections matching the filter, by date by default
func (r *GormCashFlowProjectionRepository) FindAll(ctx context.Context, filter treasury.ProjectionFilter) ([]treasury.CashFlowProjection, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CashFlowProjectionModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	orderBy := ValidateSortField(filter.OrderBy, ProjectionSortFields, "date")
	orderDir := "ASC"
	if filter.OrderBy != "" {
		orderDir = ValidateSortOrder(filter.OrderDir)
	}
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir)).Order("id ASC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.CashFlowProjectionModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	projections := make([]treasury.CashFlowProjection, len(rows))
	for i := range rows {
		projections[i] = *rows[i].ToDomain()
	}
	return projections, total, nil
}

// Totals sums inflows and outflows over every row matching the filter
func (r *GormCashFlowProjectionRepository) Totals(ctx context.Context, filter treasury.ProjectionFilter) (decimal.Decimal, decimal.Decimal, error) {
	var sums struct {
		Inflow  decimal.Decimal
		Outflow decimal.Decimal
	}
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.CashFlowProjectionModel{}), filter).
		Select("COALESCE(SUM(CASE WHEN sign = ? THEN amount ELSE 0 END), 0) AS inflow, "+
			"COALESCE(SUM(CASE WHEN sign = ? THEN amount ELSE 0 END), 0) AS outflow",
			treasury.SignInflow, treasury.SignOutflow).
		Scan(&sums).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, translateError(err)
	}
	return sums.Inflow, sums.Outflow, nil
}

func (r *GormCashFlowProjectionRepository) applyFilter(query *gorm.DB, filter treasury.ProjectionFilter) *gorm.DB {
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}
	if filter.Channel != nil {
		query = query.Where("channel = ?", *filter.Channel)
	}
	if filter.Sign != nil {
		query = query.Where("sign = ?", *filter.Sign)
	}
	return query
}

// Ensure GormCashFlowProjectionRepository implements ProjectionRepository
var _ treasury.ProjectionRepository = (*GormCashFlowProjectionRepository)(nil)
