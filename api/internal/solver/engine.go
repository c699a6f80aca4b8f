// Package solver отправляет фото задания в мультимодальную модель и
// возвращает текст решения.
package solver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrUnknownEngine       = errors.New("unknown llm_name; use 'openrouter' or 'gemini'")
	ErrEngineNotConfigured = errors.New("engine is not configured")
	ErrEmptySolution       = errors.New("model returned an empty solution")
)

// UpstreamError — ошибка, которую вернул провайдер модели.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.Status)
	}
	return e.Message
}

type SolveRequest struct {
	Image       []byte
	MIME        string
	Prompt      string // пусто — DefaultPrompt
	MaxTokens   int
	Temperature float32
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type SolveResult struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

type Engine interface {
	Name() string
	GetModel() string
	Solve(ctx context.Context, in SolveRequest) (SolveResult, error)
}

type Engines struct {
	OpenRouter Engine
	Gemini     Engine
}

func (e *Engines) GetEngine(llmName string) (Engine, error) {
	var eng Engine
	switch strings.ToLower(strings.TrimSpace(llmName)) {
	case "", "openrouter", "gpt", "openai":
		eng = e.OpenRouter
	case "gemini":
		eng = e.Gemini
	default:
		return nil, ErrUnknownEngine
	}
	if eng == nil {
		return nil, fmt.Errorf("%w: %s", ErrEngineNotConfigured, llmName)
	}
	return eng, nil
}

// Manager хранит выбранный движок для каждого чата.
type Manager struct {
	def Engine
	m   sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}

// Prepare подставляет промпт и параметры генерации по умолчанию.
// Отрицательная температура означает «не задана».
func Prepare(in SolveRequest) SolveRequest {
	if strings.TrimSpace(in.Prompt) == "" {
		in.Prompt = DefaultPrompt
	}
	if in.MaxTokens <= 0 {
		in.MaxTokens = DefaultMaxTokens
	}
	if in.Temperature < 0 {
		in.Temperature = DefaultTemperature
	}
	return in
}
