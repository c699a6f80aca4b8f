package handle

import "net/http"

// Routes вешает API-ручки на mux. Статику и /metrics подключает main.
func (h *Handle) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Healthz)
	mux.HandleFunc("/api/status", h.metrics.Instrument("status", h.Status))
	mux.HandleFunc("/api/solve-task", h.metrics.Instrument("solve_task", h.limiter.Wrap(h.SolveTask)))
	mux.HandleFunc("/api/solve", h.metrics.Instrument("solve", h.limiter.Wrap(h.Solve)))
	mux.HandleFunc("/api/format", h.metrics.Instrument("format", h.Format))
	mux.HandleFunc("/api/usage", h.metrics.Instrument("usage", h.Usage))
}
