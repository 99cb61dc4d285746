package services

import (
	"context"

	"github.com/yungbote/mealcoach-backend/internal/data/repos"
	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type DishService interface {
	// ListCatalog returns verified dishes, optionally narrowed to one category.
	ListCatalog(ctx context.Context, category string) ([]*types.Dish, error)
}

type dishService struct {
	log      *logger.Logger
	dishRepo repos.DishRepo
}

func NewDishService(log *logger.Logger, dishRepo repos.DishRepo) DishService {
	return &dishService{log: log.With("service", "DishService"), dishRepo: dishRepo}
}

func (s *dishService) ListCatalog(ctx context.Context, category string) ([]*types.Dish, error) {
	dishes, err := s.dishRepo.ListVerifiedActive(ctx, nil)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return dishes, nil
	}
	want, ok := mealplan.LookupCategory(category)
	if !ok {
		return nil, &mealplan.ValidationError{Field: "category", Reason: "unknown meal category"}
	}
	out := make([]*types.Dish, 0, len(dishes))
	for _, d := range dishes {
		if d.Category == want {
			out = append(out, d)
		}
	}
	return out, nil
}
