package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"task-solver/api/internal/format"
	"task-solver/api/internal/solver"
	"task-solver/api/internal/store"
	"task-solver/api/internal/util"
)

// --- SOLVE (фото -> модель -> HTML) -----------------------------------------

type solveReq struct {
	LLMName     string   `json:"llm_name"`
	Image       string   `json:"image"` // data URL или чистый base64
	MIME        string   `json:"mime"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature *float32 `json:"temperature"`
	Strategy    string   `json:"strategy"`
}

type solveResp struct {
	Solution string         `json:"solution"`
	HTML     string         `json:"html"`
	Blocks   []format.Block `json:"blocks"`
	Engine   string         `json:"engine"`
	Model    string         `json:"model"`
	Usage    solver.Usage   `json:"usage"`
}

func (h *Handle) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var req solveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}

	img, hint, err := util.DecodeBase64MaybeDataURL(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad image: "+err.Error())
		return
	}
	mime := util.PickMIME(req.MIME, hint, img)
	if err := util.ValidateImage(img, mime); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
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

	engine, err := h.engs.GetEngine(req.LLMName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := solver.SolveRequest{
		Image:       img,
		MIME:        mime,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: h.cfg.Temperature,
	}
	if in.MaxTokens <= 0 {
		in.MaxTokens = h.cfg.MaxTokens
	}
	if req.Temperature != nil {
		in.Temperature = *req.Temperature
	}

	reqID := newRequestID(w)
	ctx, cancel := contextWithDeadline(r, h.cfg.RequestTimeout)
	defer cancel()

	start := h.now()
	done := h.metrics.SolveStarted()
	out, err := engine.Solve(ctx, in)
	done()
	if err == nil && strings.TrimSpace(out.Text) == "" {
		err = solver.ErrEmptySolution
	}

	rec := store.UsageRecord{
		RequestID:        reqID,
		Source:           "http",
		Engine:           engine.Name(),
		Model:            out.Model,
		Status:           "ok",
		Duration:         time.Since(start),
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
	}
	if rec.Model == "" {
		rec.Model = engine.GetModel()
	}
	if err != nil {
		rec.Status = "error"
		h.observe(r.Context(), rec)
		h.log.Error("solve failed", zap.String("request_id", reqID), zap.String("engine", rec.Engine), zap.Error(err))
		writeError(w, solveErrorStatus(err), "solve error: "+err.Error())
		return
	}
	h.observe(r.Context(), rec)

	blocks := f.Blocks(out.Text)
	if blocks == nil {
		blocks = []format.Block{}
	}
	writeJSON(w, http.StatusOK, solveResp{
		Solution: out.Text,
		HTML:     f.Render(blocks),
		Blocks:   blocks,
		Engine:   rec.Engine,
		Model:    rec.Model,
		Usage:    out.Usage,
	})
}

func solveErrorStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
