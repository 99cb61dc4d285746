package mealplan

import (
	"context"
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type PlannedMealRepo interface {
	Create(ctx context.Context, tx *gorm.DB, meals []*types.PlannedMeal) ([]*types.PlannedMeal, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.PlannedMeal, error)
	ListByPlanID(ctx context.Context, tx *gorm.DB, planID uint) ([]*types.PlannedMeal, error)
	DeleteByPlanID(ctx context.Context, tx *gorm.DB, planID uint) error
}

type plannedMealRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlannedMealRepo(db *gorm.DB, baseLog *logger.Logger) PlannedMealRepo {
	repoLog := baseLog.With("repo", "PlannedMealRepo")
	return &plannedMealRepo{db: db, log: repoLog}
}

func (r *plannedMealRepo) Create(ctx context.Context, tx *gorm.DB, meals []*types.PlannedMeal) ([]*types.PlannedMeal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(meals) == 0 {
		return []*types.PlannedMeal{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&meals).Error; err != nil {
		return nil, err
	}
	return meals, nil
}

func (r *plannedMealRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.PlannedMeal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var pm types.PlannedMeal
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&pm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

func (r *plannedMealRepo) ListByPlanID(ctx context.Context, tx *gorm.DB, planID uint) ([]*types.PlannedMeal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.PlannedMeal
	if err := transaction.WithContext(ctx).
		Where("meal_plan_id = ?", planID).
		Order("day_number ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *plannedMealRepo) DeleteByPlanID(ctx context.Context, tx *gorm.DB, planID uint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("meal_plan_id = ?", planID).
		Delete(&types.PlannedMeal{}).Error
}
