package app

import (
	"fmt"

	"github.com/yungbote/mealcoach-backend/internal/clients/gcp"
	"github.com/yungbote/mealcoach-backend/internal/clients/openai"
	"github.com/yungbote/mealcoach-backend/internal/clients/redis"
	"github.com/yungbote/mealcoach-backend/internal/pkg/envutil"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type Clients struct {
	OpenAI      openai.Client
	RedisLocker *redis.UserLocker
	Photos      gcp.PhotoStore
	Labels      gcp.LabelDetector
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	// Openai
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	// Redis (optional; a process-local locker is used without it)
	var locker *redis.UserLocker
	if envutil.String("REDIS_ADDR", "") != "" {
		l, err := redis.NewUserLocker(log, redis.LockerConfigFromEnv())
		if err != nil {
			return Clients{}, fmt.Errorf("init redis user locker: %w", err)
		}
		locker = l
	}

	// Gcs
	photos, err := gcp.NewPhotoStore(log)
	if err != nil {
		if locker != nil {
			_ = locker.Close()
		}
		return Clients{}, fmt.Errorf("init photo store: %w", err)
	}

	// Gcp vision
	labels, err := gcp.NewLabelDetector(log)
	if err != nil {
		if photos != nil {
			_ = photos.Close()
		}
		if locker != nil {
			_ = locker.Close()
		}
		return Clients{}, fmt.Errorf("init label detector: %w", err)
	}

	return Clients{
		OpenAI:      openaiClient,
		RedisLocker: locker,
		Photos:      photos,
		Labels:      labels,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Labels != nil {
		_ = c.Labels.Close()
	}
	if c.Photos != nil {
		_ = c.Photos.Close()
	}
	if c.RedisLocker != nil {
		_ = c.RedisLocker.Close()
	}
}
