package gcp

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/yungbote/mealcoach-backend/internal/pkg/envutil"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

// PhotoStore keeps meal photos submitted for analysis.
type PhotoStore interface {
	// Upload stores the photo under a user-scoped key and returns its public URL.
	Upload(ctx context.Context, userID uuid.UUID, contentType string, r io.Reader) (string, error)
	Close() error
}

type photoStore struct {
	log       *logger.Logger
	client    *storage.Client
	bucket    string
	cdnDomain string
	timeout   time.Duration
}

// NewPhotoStore returns nil, nil when MEAL_PHOTO_GCS_BUCKET is unset; callers then
// inline the photo as a data URL.
func NewPhotoStore(log *logger.Logger) (PhotoStore, error) {
	bucket := envutil.String("MEAL_PHOTO_GCS_BUCKET", "")
	if bucket == "" {
		return nil, nil
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &photoStore{
		log:       log.With("service", "PhotoStore"),
		client:    client,
		bucket:    bucket,
		cdnDomain: envutil.String("MEAL_PHOTO_CDN_DOMAIN", ""),
		timeout:   2 * time.Minute,
	}, nil
}

func (s *photoStore) Upload(ctx context.Context, userID uuid.UUID, contentType string, r io.Reader) (string, error) {
	key := PhotoKey(userID, contentType, time.Now().UTC())

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write photo to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize photo upload: %w", err)
	}
	s.log.Debug("Meal photo uploaded", "user_id", userID, "key", key)
	return PublicURL(s.bucket, s.cdnDomain, key), nil
}

func (s *photoStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// PhotoKey is meal-photos/<user>/<yyyy-mm-dd>/<uuid><ext>.
func PhotoKey(userID uuid.UUID, contentType string, at time.Time) string {
	return path.Join("meal-photos", userID.String(), at.Format("2006-01-02"), uuid.NewString()+extForContentType(contentType))
}

func PublicURL(bucket, cdnDomain, key string) string {
	if cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}

func extForContentType(ct string) string {
	switch strings.ToLower(strings.TrimSpace(ct)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/heic":
		return ".heic"
	default:
		return ""
	}
}
