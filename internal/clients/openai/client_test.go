package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/mealcoach-backend/internal/pkg/httpx"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

const okBody = `{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"{\"days\":[]}"}]}]}`

func newTestClient(t *testing.T, url string, retries int) Client {
	t.Helper()
	c, err := NewClientWithConfig(logger.Nop(), Config{
		BaseURL:    url,
		APIKey:     "sk-test",
		Model:      "test-model",
		Timeout:    5 * time.Second,
		MaxRetries: retries,
	})
	if err != nil {
		t.Fatalf("NewClientWithConfig: %v", err)
	}
	cc := c.(*client)
	cc.baseBackoff = time.Millisecond
	cc.maxBackoff = 5 * time.Millisecond
	return c
}

func TestGenerateTextSendsPromptAndReturnsText(t *testing.T) {
	var gotReq responsesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("path: want=/v1/responses got=%s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	text, err := c.GenerateText(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != `{"days":[]}` {
		t.Fatalf("text: got=%s", text)
	}
	if gotReq.Model != "test-model" || len(gotReq.Input) != 2 {
		t.Fatalf("request: unexpected %+v", gotReq)
	}
}

func TestGenerateTextRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	if _, err := c.GenerateText(context.Background(), "sys", "user"); err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls: want=2 got=%d", calls.Load())
	}
}

func TestGenerateTextSurfacesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	_, err := c.GenerateText(context.Background(), "sys", "user")
	if !httpx.IsRateLimited(err) {
		t.Fatalf("want rate limited error, got %v", err)
	}
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("want *HTTPError 429, got %T %v", err, err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls: want=2 got=%d", calls.Load())
	}
}

func TestGenerateTextDoesNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	if _, err := c.GenerateText(context.Background(), "sys", "user"); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls: want=1 got=%d", calls.Load())
	}
}

func TestGenerateTextWithImagesAttachesImages(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	_, err := c.GenerateTextWithImages(context.Background(), "sys", "what is this", []ImageInput{
		{ImageURL: "https://cdn.example.com/a.jpg", Detail: "low"},
		{ImageURL: "  "},
	})
	if err != nil {
		t.Fatalf("GenerateTextWithImages: %v", err)
	}
	input := raw["input"].([]any)
	user := input[1].(map[string]any)
	content := user["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("content parts: want=2 got=%d", len(content))
	}
	img := content[1].(map[string]any)
	if img["type"] != "input_image" || img["detail"] != "low" {
		t.Fatalf("image part: unexpected %+v", img)
	}
}
