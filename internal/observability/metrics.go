package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/mealcoach-backend/internal/pkg/envutil"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	llmRequests *CounterVec
	llmLatency  *HistogramVec

	planChunks       *CounterVec
	planChunkLatency *HistogramVec
	plannedMeals     *CounterVec
	skippedMeals     *CounterVec
	checkIns         *CounterVec
	lockWaits        *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process metrics, or nil when metrics are disabled. All
// Metrics methods accept a nil receiver.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

// NewMetrics builds an unregistered metrics set; tests use it directly.
func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("mc_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"mc_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 120},
		),
		apiInflight: NewGauge("mc_api_inflight_requests", "In-flight API requests."),
		llmRequests: NewCounterVec("mc_llm_requests_total", "Model requests by operation/status.", []string{"operation", "status"}),
		llmLatency: NewHistogramVec(
			"mc_llm_request_duration_seconds",
			"Model request latency in seconds by operation/status.",
			[]string{"operation", "status"},
			[]float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		),
		planChunks: NewCounterVec("mc_plan_chunks_total", "Plan generation chunks by outcome.", []string{"outcome"}),
		planChunkLatency: NewHistogramVec(
			"mc_plan_chunk_duration_seconds",
			"Plan chunk wall time including the model call and reconciliation.",
			[]string{"outcome"},
			[]float64{1, 5, 10, 20, 40, 60, 120, 240},
		),
		plannedMeals: NewCounterVec("mc_planned_meals_total", "Planned meals persisted by grounding.", []string{"grounding"}),
		skippedMeals: NewCounterVec("mc_planned_meals_skipped_total", "Model meal entries dropped during reconciliation.", []string{"reason"}),
		checkIns:     NewCounterVec("mc_checkins_total", "Meal check-ins by kind.", []string{"kind"}),
		lockWaits:    NewCounterVec("mc_user_lock_acquire_total", "User lock acquisitions by result.", []string{"result"}),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency,
		m.planChunks, m.planChunkLatency, m.plannedMeals, m.skippedMeals,
		m.checkIns, m.lockWaits,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	s := strconv.Itoa(status)
	m.apiRequests.Inc(method, route, s)
	m.apiLatency.Observe(dur.Seconds(), method, route, s)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(operation, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), operation, status)
	}
}

// ObservePlanChunk records one chunk; outcome is "ok" or a failure kind.
func (m *Metrics) ObservePlanChunk(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.planChunks.Inc(outcome)
	m.planChunkLatency.Observe(dur.Seconds(), outcome)
}

func (m *Metrics) AddPlannedMeals(grounded, free, skipped int) {
	if m == nil {
		return
	}
	if grounded > 0 {
		m.plannedMeals.Add(float64(grounded), "catalog")
	}
	if free > 0 {
		m.plannedMeals.Add(float64(free), "free_text")
	}
	if skipped > 0 {
		m.skippedMeals.Add(float64(skipped), "malformed")
	}
}

func (m *Metrics) IncCheckIn(kind string) {
	if m == nil {
		return
	}
	m.checkIns.Inc(kind)
}

func (m *Metrics) IncLockAcquire(result string) {
	if m == nil {
		return
	}
	m.lockWaits.Inc(result)
}

// PlanChunkCount exposes a counter value for tests and debug endpoints.
func (m *Metrics) PlanChunkCount(outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.planChunks.Value(outcome)
}
