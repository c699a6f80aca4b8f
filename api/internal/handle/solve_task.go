package handle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"task-solver/api/internal/store"
)

// MaxBodyBytes — предел тела /api/solve-task: фото в data URL бывают большими.
const MaxBodyBytes = 50 << 20

var ErrInvalidMessages = errors.New("Invalid messages format")

// --- SOLVE-TASK (прозрачный прокси к OpenRouter) ----------------------------

type solveTaskReq struct {
	Messages    json.RawMessage `json:"messages"`
	Model       string          `json:"model"`
	MaxTokens   json.RawMessage `json:"max_tokens"`
	Temperature json.RawMessage `json:"temperature"`
}

type upstreamReq struct {
	Model       string          `json:"model"`
	Messages    json.RawMessage `json:"messages"`
	MaxTokens   json.RawMessage `json:"max_tokens"`
	Temperature json.RawMessage `json:"temperature"`
}

// SolveTask пересылает сообщения клиента провайдеру и возвращает ответ
// провайдера как есть. Ключ API остаётся на сервере.
func (h *Handle) SolveTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var req solveTaskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if !isJSONArray(req.Messages) {
		writeError(w, http.StatusBadRequest, ErrInvalidMessages.Error())
		return
	}

	body := upstreamReq{
		Model:       strings.TrimSpace(req.Model),
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if body.Model == "" {
		body.Model = h.cfg.OpenRouterModel
	}
	if len(body.MaxTokens) == 0 {
		body.MaxTokens = json.RawMessage(fmt.Sprintf("%d", h.cfg.MaxTokens))
	}
	if len(body.Temperature) == 0 {
		body.Temperature = json.RawMessage(fmt.Sprintf("%g", h.cfg.Temperature))
	}

	reqID := newRequestID(w)
	ctx, cancel := contextWithDeadline(r, h.cfg.RequestTimeout)
	defer cancel()

	start := h.now()
	done := h.metrics.SolveStarted()
	data, err := h.forward(r.WithContext(ctx), body)
	done()

	rec := store.UsageRecord{
		RequestID: reqID,
		Source:    "proxy",
		Engine:    "openrouter",
		Model:     body.Model,
		Status:    "ok",
		Duration:  time.Since(start),
	}
	if err != nil {
		rec.Status = "error"
		h.observe(r.Context(), rec)
		h.log.Error("solve-task failed", zap.String("request_id", reqID), zap.String("model", body.Model), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error",
			"message": err.Error(),
		})
		return
	}

	var u struct {
		Model string `json:"model"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if json.Unmarshal(data, &u) == nil {
		if u.Model != "" {
			rec.Model = u.Model
		}
		rec.PromptTokens = u.Usage.PromptTokens
		rec.CompletionTokens = u.Usage.CompletionTokens
	}
	h.observe(r.Context(), rec)
	h.log.Info("solve-task ok",
		zap.String("request_id", reqID),
		zap.String("model", rec.Model),
		zap.Duration("took", rec.Duration),
		zap.Int("completion_tokens", rec.CompletionTokens),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// forward делает сам запрос к провайдеру. Ошибка несёт текст, который
// увидит клиент: error.message провайдера или «HTTP error! status: N».
func (h *Handle) forward(r *http.Request, body upstreamReq) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.cfg.OpenRouterURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	referer := r.Header.Get("Origin")
	if referer == "" {
		referer = h.cfg.Referer
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.cfg.OpenRouterAPIKey)
	req.Header.Set("HTTP-Referer", referer)
	req.Header.Set("X-Title", h.cfg.Title)

	resp, err := h.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error.Message != "" {
			return nil, errors.New(e.Error.Message)
		}
		return nil, fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON from upstream")
	}
	return data, nil
}

// writeDecodeError: тело больше MaxBodyBytes — 413, прочее — 400.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
}

func isJSONArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
