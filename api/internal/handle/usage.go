package handle

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"task-solver/api/internal/store"
)

// UsageStats — сводка журнала; реализует *store.UsageRepo.
type UsageStats interface {
	Stats(ctx context.Context, since time.Time) ([]store.EngineStats, error)
}

type usageRow struct {
	Engine           string `json:"engine"`
	Calls            int64  `json:"calls"`
	Errors           int64  `json:"errors"`
	AvgDurationMs    int64  `json:"avg_duration_ms"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
}

type usageResp struct {
	Since   string     `json:"since"`
	Engines []usageRow `json:"engines"`
}

// Usage отдаёт сводку по движкам за ?days= (по умолчанию 7).
func (h *Handle) Usage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	if h.stats == nil {
		writeError(w, http.StatusServiceUnavailable, "usage journal is disabled")
		return
	}
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 365 {
			writeError(w, http.StatusBadRequest, "days must be 1..365")
			return
		}
		days = n
	}
	since := h.now().Add(-time.Duration(days) * 24 * time.Hour)

	rows, err := h.stats.Stats(r.Context(), since)
	if err != nil {
		h.log.Error("usage stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "usage stats failed")
		return
	}
	out := usageResp{Since: since.UTC().Format(isoMillis), Engines: make([]usageRow, 0, len(rows))}
	for _, s := range rows {
		out.Engines = append(out.Engines, usageRow{
			Engine:           s.Engine,
			Calls:            s.Calls,
			Errors:           s.Errors,
			AvgDurationMs:    s.AvgDuration.Milliseconds(),
			PromptTokens:     s.PromptTokens,
			CompletionTokens: s.CompletionTokens,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
