package mealplan

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type MealPlanRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.MealPlan, error)
	Create(ctx context.Context, tx *gorm.DB, plan *types.MealPlan) (*types.MealPlan, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, planID uint) error
	UpdateFields(ctx context.Context, tx *gorm.DB, planID uint, updates map[string]any) error
}

type mealPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMealPlanRepo(db *gorm.DB, baseLog *logger.Logger) MealPlanRepo {
	repoLog := baseLog.With("repo", "MealPlanRepo")
	return &mealPlanRepo{db: db, log: repoLog}
}

// GetByUserID returns nil, nil when the user has no plan.
func (r *mealPlanRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.MealPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.MealPlan
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *mealPlanRepo) Create(ctx context.Context, tx *gorm.DB, plan *types.MealPlan) (*types.MealPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if plan == nil {
		return nil, errors.New("nil meal plan")
	}
	if plan.Status == "" {
		plan.Status = types.PlanStatusGenerating
	}
	if err := transaction.WithContext(ctx).Create(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *mealPlanRepo) DeleteByID(ctx context.Context, tx *gorm.DB, planID uint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", planID).
		Delete(&types.MealPlan{}).Error
}

func (r *mealPlanRepo) UpdateFields(ctx context.Context, tx *gorm.DB, planID uint, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(ctx).
		Model(&types.MealPlan{}).
		Where("id = ?", planID).
		Updates(updates).Error
}
