package handle

import (
	"encoding/json"
	"net/http"
	"strings"

	"task-solver/api/internal/format"
)

// --- FORMAT ------------------------------------------------------------------

type formatReq struct {
	Text     string `json:"text"`
	Strategy string `json:"strategy"`
}

type formatResp struct {
	HTML   string         `json:"html"`
	Blocks []format.Block `json:"blocks"`
}

// Format прогоняет готовый текст решения через нормализацию и вёрстку,
// без обращения к модели.
func (h *Handle) Format(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req formatReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}

	f := h.fmt
	if strings.TrimSpace(req.Strategy) != "" {
		s, err := format.ParseStrategy(req.Strategy)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f = format.Formatter{Strategy: s}
	}

	blocks := f.Blocks(req.Text)
	if blocks == nil {
		blocks = []format.Block{}
	}
	writeJSON(w, http.StatusOK, formatResp{
		HTML:   f.Render(blocks),
		Blocks: blocks,
	})
}
