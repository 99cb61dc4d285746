package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mealcoach-backend/internal/clients/openai"
	"github.com/yungbote/mealcoach-backend/internal/data/aggregates"
	"github.com/yungbote/mealcoach-backend/internal/data/repos"
	"github.com/yungbote/mealcoach-backend/internal/data/repos/testutil"
	types "github.com/yungbote/mealcoach-backend/internal/domain"
	planmod "github.com/yungbote/mealcoach-backend/internal/modules/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/observability"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

// fakeAI answers text calls through text and image calls through vision.
type fakeAI struct {
	mu     sync.Mutex
	calls  int
	text   func(call int, user string) (string, error)
	vision func(user string, images []openai.ImageInput) (string, error)
}

func (f *fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.text(call, user)
}

func (f *fakeAI) GenerateTextWithImages(ctx context.Context, system, user string, images []openai.ImageInput) (string, error) {
	return f.vision(user, images)
}

func (f *fakeAI) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

type fakePhotoStore struct {
	uploads int
}

func (p *fakePhotoStore) Upload(ctx context.Context, userID uuid.UUID, contentType string, r io.Reader) (string, error) {
	p.uploads++
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return "https://cdn.example.com/meal-photos/" + userID.String() + "/p.jpg", nil
}

func (p *fakePhotoStore) Close() error { return nil }

type fixture struct {
	db       *gorm.DB
	log      *logger.Logger
	ai       *fakeAI
	metrics  *observability.Metrics
	locker   UserLocker
	plans    MealPlanService
	logs     MealLogService
	health   HealthService
	dishes   []*types.Dish
	user     *types.User
	photos   *fakePhotoStore
	userRepo repos.UserRepo
}

func newFixture(t *testing.T, settings planmod.Settings, premium bool) *fixture {
	t.Helper()
	db := testutil.DB(t)
	ctx := context.Background()
	log := testutil.Logger(t)

	f := &fixture{
		db:      db,
		log:     log,
		ai:      &fakeAI{},
		metrics: observability.NewMetrics(),
		locker:  NewLocalUserLocker(50 * time.Millisecond),
		photos:  &fakePhotoStore{},
	}
	f.user = testutil.SeedUser(t, ctx, db, premium)
	for i, c := range []types.Category{types.CategoryBreakfast, types.CategoryLunch, types.CategoryDinner, types.CategorySnack} {
		f.dishes = append(f.dishes, testutil.SeedDish(t, ctx, db, fmt.Sprintf("Món %d", i+1), c, float64(100*(i+2)), true))
	}

	f.userRepo = repos.NewUserRepo(db, log)
	profiles := repos.NewHealthProfileRepo(db, log)
	analyses := repos.NewHealthAnalysisRepo(db, log)
	dishRepo := repos.NewDishRepo(db, log)
	planRepo := repos.NewMealPlanRepo(db, log)
	plannedRepo := repos.NewPlannedMealRepo(db, log)
	logRepo := repos.NewMealLogRepo(db, log)

	f.plans = NewMealPlanService(MealPlanServiceDeps{
		Log:          log,
		AI:           f.ai,
		Tx:           aggregates.NewGormTxRunner(db),
		Locker:       f.locker,
		Entitlements: NewEntitlementService(log, f.userRepo),
		Profiles:     profiles,
		Analyses:     analyses,
		Dishes:       dishRepo,
		Plans:        planRepo,
		PlannedMeals: plannedRepo,
		MealLogs:     logRepo,
		Metrics:      f.metrics,
		Settings:     settings,
	})
	f.logs = NewMealLogService(MealLogServiceDeps{
		Log:          log,
		Vision:       f.ai,
		Photos:       f.photos,
		Locker:       f.locker,
		Plans:        planRepo,
		PlannedMeals: plannedRepo,
		MealLogs:     logRepo,
		Metrics:      f.metrics,
	})
	f.health = NewHealthService(log, f.ai, profiles, analyses)
	return f
}

func (f *fixture) seedPrerequisites(t *testing.T) {
	t.Helper()
	testutil.SeedProfile(t, context.Background(), f.db, f.user.ID)
	testutil.SeedAnalysis(t, context.Background(), f.db, f.user.ID)
}

// planJSON returns days from..to, four catalog meals each. Breakfast carries an
// explicit calorie value; the rest fall back to the catalog.
func (f *fixture) planJSON(from, to int) string {
	var days []string
	for d := from; d <= to; d++ {
		days = append(days, fmt.Sprintf(`{"day":%d,"meals":[
			{"dish_id":%d,"category":"Sáng","calories":250},
			{"dish_id":%d,"category":"lunch"},
			{"dish_id":%d,"type":"dinner","name":"Canh chua cá"},
			{"dish_id":%d,"category":"snack"}
		]}`, d, f.dishes[0].ID, f.dishes[1].ID, f.dishes[2].ID, f.dishes[3].ID))
	}
	return "```json\n{\"days\":[" + strings.Join(days, ",") + "]}\n```"
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}
