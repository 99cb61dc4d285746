package app

import (
	"time"

	planmod "github.com/yungbote/mealcoach-backend/internal/modules/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/pkg/envutil"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type Config struct {
	Port         string
	Environment  string
	DBDriver     string
	SQLitePath   string
	JWTSecretKey string
	SeedDishes   bool
	CORSOrigins  []string
	LockWait     time.Duration
	MetricsAddr  string
	MealPlan     planmod.Settings
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:         envutil.String("PORT", "8080"),
		Environment:  envutil.String("LOG_MODE", "development"),
		DBDriver:     envutil.String("DB_DRIVER", "postgres"),
		SQLitePath:   envutil.String("SQLITE_PATH", ""),
		JWTSecretKey: envutil.String("JWT_SECRET_KEY", ""),
		SeedDishes:   envutil.Bool("SEED_DISHES", true),
		CORSOrigins:  envutil.List("CORS_ALLOWED_ORIGINS"),
		LockWait:     envutil.Seconds("USER_LOCK_WAIT_SECONDS", 10*time.Second),
		MetricsAddr:  envutil.String("METRICS_ADDR", ":9090"),
		MealPlan: planmod.Settings{
			InitialDays:   envutil.Int("MEALPLAN_INITIAL_DAYS", 7),
			ChunkDays:     envutil.Int("MEALPLAN_CHUNK_DAYS", 7),
			ExtendDays:    envutil.Int("MEALPLAN_EXTEND_DAYS", 7),
			ChunkTimeout:  envutil.Seconds("MEALPLAN_CHUNK_TIMEOUT_SECONDS", 120*time.Second),
			ParseAttempts: envutil.Int("MEALPLAN_PARSE_ATTEMPTS", 2),
		}.WithDefaults(),
	}
	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY is empty; every protected route will reject requests")
	}
	return cfg
}
