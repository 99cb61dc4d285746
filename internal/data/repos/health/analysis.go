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

type HealthAnalysisRepo interface {
	GetLatest(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.HealthAnalysis, error)
	Upsert(ctx context.Context, tx *gorm.DB, analysis *types.HealthAnalysis) error
}

type healthAnalysisRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHealthAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) HealthAnalysisRepo {
	repoLog := baseLog.With("repo", "HealthAnalysisRepo")
	return &healthAnalysisRepo{db: db, log: repoLog}
}

func (r *healthAnalysisRepo) GetLatest(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.HealthAnalysis, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var a types.HealthAnalysis
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *healthAnalysisRepo) Upsert(ctx context.Context, tx *gorm.DB, analysis *types.HealthAnalysis) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if analysis == nil || analysis.UserID == uuid.Nil {
		return errors.New("health analysis requires user_id")
	}
	now := time.Now().UTC()
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = now
	}
	analysis.UpdatedAt = now
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"result", "summary", "updated_at"}),
		}).
		Create(analysis).Error
}
