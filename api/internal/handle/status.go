package handle

import "net/http"

// isoMillis — как Date.toISOString в браузере: UTC, миллисекунды, суффикс Z.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type statusResp struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (h *Handle) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, statusResp{
		Status:    "OK",
		Message:   "School Task Solver API is running",
		Timestamp: h.now().UTC().Format(isoMillis),
	})
}

func (h *Handle) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
