package health

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/mealcoach-backend/internal/data/repos/testutil"
	types "github.com/yungbote/mealcoach-backend/internal/domain"
)

func TestHealthProfileRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewHealthProfileRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, false)
	if got, err := repo.GetByUserID(ctx, tx, u.ID); err != nil || got != nil {
		t.Fatalf("GetByUserID empty: got=%+v err=%v", got, err)
	}

	if err := repo.Upsert(ctx, tx, &types.HealthProfile{UserID: u.ID, Age: 30, WeightKG: 60}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(ctx, tx, &types.HealthProfile{UserID: u.ID, Age: 31, WeightKG: 58}); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	got, err := repo.GetByUserID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got == nil || got.Age != 31 || got.WeightKG != 58 {
		t.Fatalf("GetByUserID: want age=31 weight=58 got %+v", got)
	}
}

func TestHealthAnalysisRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewHealthAnalysisRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, false)
	for _, summary := range []string{"first", "second"} {
		if err := repo.Upsert(ctx, tx, &types.HealthAnalysis{
			UserID:  u.ID,
			Result:  datatypes.JSON([]byte(`{"bmi":22}`)),
			Summary: summary,
		}); err != nil {
			t.Fatalf("Upsert %s: %v", summary, err)
		}
	}
	got, err := repo.GetLatest(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if got == nil || got.Summary != "second" {
		t.Fatalf("GetLatest: want summary=second got %+v", got)
	}
}
