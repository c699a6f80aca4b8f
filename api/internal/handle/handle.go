package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-solver/api/internal/config"
	"task-solver/api/internal/format"
	"task-solver/api/internal/metrics"
	"task-solver/api/internal/solver"
	"task-solver/api/internal/store"
)

type Handle struct {
	engs    *solver.Engines
	cfg     *config.Config
	fmt     format.Formatter
	metrics *metrics.Metrics
	usage   store.Recorder
	stats   UsageStats
	log     *zap.Logger
	httpc   *http.Client
	limiter *RateLimiter
	now     func() time.Time
}

// Deps — всё, что нужно ручкам. Metrics, Usage и Logger могут быть nil.
type Deps struct {
	Engines    *solver.Engines
	Config     *config.Config
	Metrics    *metrics.Metrics
	Usage      store.Recorder
	Stats      UsageStats
	Logger     *zap.Logger
	HTTPClient *http.Client
	// RateLimit ограничивает ручки, которые ходят в модель; nil — без лимита.
	RateLimit *RateLimiter
}

func New(d Deps) *Handle {
	h := &Handle{
		engs:    d.Engines,
		cfg:     d.Config,
		metrics: d.Metrics,
		usage:   d.Usage,
		stats:   d.Stats,
		log:     d.Logger,
		httpc:   d.HTTPClient,
		limiter: d.RateLimit,
		now:     time.Now,
	}
	if h.cfg == nil {
		h.cfg = &config.Config{}
	}
	if h.engs == nil {
		h.engs = &solver.Engines{}
	}
	if h.usage == nil {
		h.usage = store.Nop{}
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if h.httpc == nil {
		// таймаут задаёт контекст запроса
		h.httpc = &http.Client{}
	}
	strategy, err := format.ParseStrategy(h.cfg.FormatStrategy)
	if err != nil {
		h.log.Warn("bad FORMAT_STRATEGY, using paragraphs", zap.Error(err))
		strategy = format.Paragraphs
	}
	h.fmt = format.Formatter{Strategy: strategy}
	return h
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// requestDeadline: заголовок X-Request-Timeout, затем ?timeoutSec=, иначе def.
func requestDeadline(r *http.Request, def time.Duration) time.Duration {
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			return time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	if def <= 0 {
		return 180 * time.Second
	}
	return def
}

func contextWithDeadline(r *http.Request, def time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestDeadline(r, def))
}

// newRequestID выдаёт id запроса и возвращает его клиенту в X-Request-Id.
func newRequestID(w http.ResponseWriter) string {
	id := uuid.NewString()
	w.Header().Set("X-Request-Id", id)
	return id
}

// observe пишет метрики и строку журнала для одного обращения к модели.
func (h *Handle) observe(ctx context.Context, rec store.UsageRecord) {
	h.metrics.ObserveSolve(rec.Source, rec.Engine, rec.Status, rec.Duration, rec.PromptTokens, rec.CompletionTokens)

	// запрос клиента мог уже завершиться, журнал всё равно пишем
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := h.usage.Record(ctx, rec); err != nil {
		h.log.Warn("usage record failed", zap.String("engine", rec.Engine), zap.Error(err))
	}
}
