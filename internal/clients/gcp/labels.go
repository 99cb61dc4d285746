package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/yungbote/mealcoach-backend/internal/pkg/ctxutil"
	"github.com/yungbote/mealcoach-backend/internal/pkg/envutil"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

// LabelDetector returns coarse food labels for a photo. The labels only steer the
// vision prompt; they never decide the logged food.
type LabelDetector interface {
	DetectLabels(ctx context.Context, img []byte) ([]string, error)
	Close() error
}

type labelDetector struct {
	log       *logger.Logger
	client    *vision.ImageAnnotatorClient
	maxLabels int32
	minScore  float32
}

// NewLabelDetector returns nil, nil unless MEAL_LABEL_HINTS_ENABLED is set.
func NewLabelDetector(log *logger.Logger) (LabelDetector, error) {
	if !envutil.Bool("MEAL_LABEL_HINTS_ENABLED", false) {
		return nil, nil
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	client, err := vision.NewImageAnnotatorClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &labelDetector{
		log:       log.With("service", "gcp.LabelDetector"),
		client:    client,
		maxLabels: 8,
		minScore:  0.6,
	}, nil
}

func (d *labelDetector) DetectLabels(ctx context.Context, img []byte) ([]string, error) {
	if len(img) == 0 {
		return nil, nil
	}
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: img},
			Features: []*visionpb.Feature{
				{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: d.maxLabels},
			},
		}},
	}
	resp, err := d.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return nil, nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}
	return labelsFromAnnotations(r0.LabelAnnotations, d.minScore), nil
}

func (d *labelDetector) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func labelsFromAnnotations(anns []*visionpb.EntityAnnotation, minScore float32) []string {
	out := make([]string, 0, len(anns))
	seen := map[string]bool{}
	for _, a := range anns {
		if a == nil || a.Score < minScore {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(a.Description))
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}
