package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/mealcoach-backend/internal/data/repos"
	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

// EntitlementDetailedPlan names the tier that unlocks AI plan generation.
const EntitlementDetailedPlan = "detailed_meal_plan"

type EntitlementService interface {
	RequireDetailedPlan(ctx context.Context, userID uuid.UUID) error
}

type entitlementService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	now      func() time.Time
}

func NewEntitlementService(log *logger.Logger, userRepo repos.UserRepo) EntitlementService {
	return &entitlementService{
		log:      log.With("service", "EntitlementService"),
		userRepo: userRepo,
		now:      time.Now,
	}
}

func (s *entitlementService) RequireDetailedPlan(ctx context.Context, userID uuid.UUID) error {
	u, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !u.HasPremiumAt(s.now()) {
		s.log.Info("detailed plan refused", "user_id", userID, "user_found", u != nil)
		return &mealplan.EntitlementRequiredError{UserID: userID, Entitlement: EntitlementDetailedPlan}
	}
	return nil
}
