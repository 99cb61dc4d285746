package catalog

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type DishRepo interface {
	// GetByIDs returns only non-deleted dishes.
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*types.Dish, error)
	// GetByID includes soft-deleted rows; historical plans still reference them.
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.Dish, error)
	ListVerifiedActive(ctx context.Context, tx *gorm.DB) ([]*types.Dish, error)
	Upsert(ctx context.Context, tx *gorm.DB, dishes []*types.Dish) error
}

type dishRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDishRepo(db *gorm.DB, baseLog *logger.Logger) DishRepo {
	repoLog := baseLog.With("repo", "DishRepo")
	return &dishRepo{db: db, log: repoLog}
}

func (r *dishRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*types.Dish, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Dish
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *dishRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.Dish, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var d types.Dish
	err := transaction.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *dishRepo) ListVerifiedActive(ctx context.Context, tx *gorm.DB) ([]*types.Dish, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Dish
	if err := transaction.WithContext(ctx).
		Where("verified = ?", true).
		Order("category ASC, name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert inserts dishes or refreshes them by name.
func (r *dishRepo) Upsert(ctx context.Context, tx *gorm.DB, dishes []*types.Dish) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(dishes) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, d := range dishes {
		if d == nil {
			continue
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		d.UpdatedAt = now
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"category", "base_calories", "unit", "description", "verified", "public", "updated_at",
			}),
		}).
		Create(&dishes).Error
}
