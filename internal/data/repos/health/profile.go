package health

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type HealthProfileRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.HealthProfile, error)
	Upsert(ctx context.Context, tx *gorm.DB, profile *types.HealthProfile) error
}

type healthProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHealthProfileRepo(db *gorm.DB, baseLog *logger.Logger) HealthProfileRepo {
	repoLog := baseLog.With("repo", "HealthProfileRepo")
	return &healthProfileRepo{db: db, log: repoLog}
}

// GetByUserID returns nil, nil when the user has no profile yet.
func (r *healthProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.HealthProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.HealthProfile
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *healthProfileRepo) Upsert(ctx context.Context, tx *gorm.DB, profile *types.HealthProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if profile == nil || profile.UserID == uuid.Nil {
		return errors.New("health profile requires user_id")
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"age", "gender", "height_cm", "weight_kg", "activity_level",
				"stress_level", "sleep_hours", "goal", "conditions", "updated_at",
			}),
		}).
		Create(profile).Error
}
