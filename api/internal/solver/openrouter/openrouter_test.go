package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-solver/api/internal/solver"
)

var jpeg = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10}

func TestSolve(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-or-v1-test", r.Header.Get("Authorization"))
		assert.Equal(t, "http://localhost:3000", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "School Task Solver", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "gen-1",
			"model": "openai/gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  1. Шаг\n\n2+2=4  "}}],
			"usage": {"prompt_tokens": 100, "completion_tokens": 20, "total_tokens": 120}
		}`))
	}))
	defer srv.Close()

	eng := New("sk-or-v1-test", "", Options{
		BaseURL: srv.URL + "/api/v1/chat/completions",
		Referer: "http://localhost:3000",
		Title:   "School Task Solver",
	})
	assert.Equal(t, solver.DefaultModel, eng.GetModel())

	out, err := eng.Solve(context.Background(), solver.SolveRequest{Image: jpeg, Temperature: -1})
	require.NoError(t, err)
	assert.Equal(t, "1. Шаг\n\n2+2=4", out.Text)
	assert.Equal(t, "openai/gpt-4o", out.Model)
	assert.Equal(t, solver.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}, out.Usage)

	assert.Equal(t, "openai/gpt-4o", got["model"])
	assert.EqualValues(t, solver.DefaultMaxTokens, got["max_tokens"])
	assert.InDelta(t, solver.DefaultTemperature, got["temperature"], 1e-6)

	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	parts := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, solver.DefaultPrompt, parts[0].(map[string]any)["text"])
	url := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	assert.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"), url)
}

func TestSolve_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "No auth credentials found", "code": 401}}`))
	}))
	defer srv.Close()

	eng := New("sk-or-v1-bad", "openai/gpt-4o-mini", Options{BaseURL: srv.URL})
	_, err := eng.Solve(context.Background(), solver.SolveRequest{Image: jpeg})
	require.Error(t, err)

	var up *solver.UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, http.StatusUnauthorized, up.Status)
	assert.Equal(t, "No auth credentials found", up.Message)
}

func TestSolve_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	eng := New("k", "m", Options{BaseURL: srv.URL})
	_, err := eng.Solve(context.Background(), solver.SolveRequest{Image: jpeg})
	assert.ErrorIs(t, err, solver.ErrEmptySolution)
}

func TestSolve_NoKey(t *testing.T) {
	_, err := New("", "m", Options{}).Solve(context.Background(), solver.SolveRequest{Image: jpeg})
	assert.Error(t, err)
}
