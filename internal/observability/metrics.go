package observability

import (
	"context"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

type collector interface {
	WritePrometheus(w io.Writer) error
}

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	llmRequests *CounterVec
	llmLatency  *HistogramVec
	llmTokens   *CounterVec

	stageTotal     *CounterVec
	stageLatency   *HistogramVec
	gatewayLatency *HistogramVec
	recallTotal    *CounterVec
	reviewTotal    *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	all []collector
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

// Current is nil unless Init ran with metrics enabled. All methods accept a nil receiver.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	m := &Metrics{
		apiRequests: NewCounterVec("ng_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"ng_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("ng_api_inflight_requests", "In-flight API requests."),
		llmRequests: NewCounterVec("ng_llm_requests_total", "LLM requests by model/status.", []string{"model", "status"}),
		llmLatency: NewHistogramVec(
			"ng_llm_request_duration_seconds",
			"LLM request latency in seconds by model/status.",
			[]string{"model", "status"},
			[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		),
		llmTokens:  NewCounterVec("ng_llm_tokens_total", "LLM tokens by model/direction.", []string{"model", "direction"}),
		stageTotal: NewCounterVec("retention_stage_total", "Enrichment stage outcomes by stage/status.", []string{"stage", "status"}),
		stageLatency: NewHistogramVec(
			"retention_stage_duration_seconds",
			"Enrichment stage duration in seconds by stage/status.",
			[]string{"stage", "status"},
			[]float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		),
		gatewayLatency: NewHistogramVec(
			"retention_gateway_seconds",
			"AI gateway call latency in seconds by kind/status.",
			[]string{"kind", "status"},
			[]float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		),
		recallTotal: NewCounterVec("retention_recall_total", "Graded recall attempts by status.", []string{"status"}),
		reviewTotal: NewCounterVec("retention_review_total", "Recorded review outcomes.", []string{"outcome"}),
		dbStats:     NewGaugeVec("ng_db_stats", "database/sql pool stats.", []string{"stat"}),
		redisUp:     NewGauge("ng_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing:   NewGauge("ng_redis_ping_seconds", "Redis ping latency in seconds."),
	}
	m.all = []collector{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.stageTotal, m.stageLatency, m.gatewayLatency, m.recallTotal, m.reviewTotal,
		m.dbStats, m.redisUp, m.redisPing,
	}
	return m
}

func scrapeInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"))
	if v == "" {
		return 10 * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
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
	for _, c := range m.all {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Add(1)
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Add(-1)
}

func (m *Metrics) ObserveLLMRequest(model, status string, dur time.Duration, inputTokens, outputTokens int64) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(model, status)
	m.llmLatency.Observe(dur.Seconds(), model, status)
	if inputTokens > 0 {
		m.llmTokens.Add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.Add(float64(outputTokens), model, "output")
	}
}

// ObserveRetentionStage counts one settled enrichment stage. Skipped stages are counted with zero duration
// and kept out of the latency histogram.
func (m *Metrics) ObserveRetentionStage(stage, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.stageTotal.Inc(stage, status)
	if status != "skipped" {
		m.stageLatency.Observe(dur.Seconds(), stage, status)
	}
}

func (m *Metrics) ObserveGateway(kind, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.gatewayLatency.Observe(dur.Seconds(), kind, status)
}

func (m *Metrics) IncRecall(status string) {
	if m == nil {
		return
	}
	m.recallTotal.Inc(status)
}

func (m *Metrics) IncReview(outcome string) {
	if m == nil {
		return
	}
	m.reviewTotal.Inc(outcome)
}

// StartDBCollector samples the connection pool behind db until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

// StartRedisCollector pings rdb on every scrape interval. rdb is owned by the caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
