package mealplan

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mealcoach-backend/internal/data/aggregates"
	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/pkg/dbctx"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type MealLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, logs []*types.UserMealLog) ([]*types.UserMealLog, error)
	// ListByUserID returns every log of the user ordered by logged_at, id.
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserMealLog, error)
	// GetLatestByPlannedMeal returns the newest row for (user, planned meal), or nil.
	GetLatestByPlannedMeal(ctx context.Context, tx *gorm.DB, userID uuid.UUID, plannedMealID uint) (*types.UserMealLog, error)
	// UpdateFields applies updates when the row still has expectedVersion. It returns
	// false when another writer got there first.
	UpdateFields(ctx context.Context, tx *gorm.DB, id uint, expectedVersion int, updates map[string]any) (bool, error)
	DeleteByPlanID(ctx context.Context, tx *gorm.DB, planID uint) error
}

type mealLogRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	guard aggregates.CASGuard
}

func NewMealLogRepo(db *gorm.DB, baseLog *logger.Logger) MealLogRepo {
	repoLog := baseLog.With("repo", "MealLogRepo")
	return &mealLogRepo{db: db, log: repoLog, guard: aggregates.NewCASGuard(db)}
}

func (r *mealLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.UserMealLog) ([]*types.UserMealLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(logs) == 0 {
		return []*types.UserMealLog{}, nil
	}
	for _, l := range logs {
		if l != nil && l.Version == 0 {
			l.Version = 1
		}
	}
	if err := transaction.WithContext(ctx).Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *mealLogRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserMealLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.UserMealLog
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("logged_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mealLogRepo) GetLatestByPlannedMeal(ctx context.Context, tx *gorm.DB, userID uuid.UUID, plannedMealID uint) (*types.UserMealLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var l types.UserMealLog
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND planned_meal_id = ?", userID, plannedMealID).
		Order("id DESC").
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *mealLogRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uint, expectedVersion int, updates map[string]any) (bool, error) {
	next := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		next[k] = v
	}
	if _, ok := next["updated_at"]; !ok {
		next["updated_at"] = time.Now().UTC()
	}
	return r.guard.UpdateByVersion(dbctx.Context{Ctx: ctx, Tx: tx}, types.UserMealLog{}.TableName(), id, expectedVersion, next)
}

func (r *mealLogRepo) DeleteByPlanID(ctx context.Context, tx *gorm.DB, planID uint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("meal_plan_id = ?", planID).
		Delete(&types.UserMealLog{}).Error
}
