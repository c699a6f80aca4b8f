package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"task-solver/api/internal/solver"
	"task-solver/api/internal/util"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

type Engine struct {
	APIKey string
	Model  string
	client *openai.Client
}

type Options struct {
	// BaseURL или полный адрес .../chat/completions
	BaseURL string
	Referer string
	Title   string
	// HTTPClient подменяет транспорт (тесты, трассировка)
	HTTPClient *http.Client
}

func New(key, model string, opt Options) *Engine {
	base := strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(opt.BaseURL), "/"), "/chat/completions")
	if base == "" {
		base = defaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = solver.DefaultModel
	}

	hc := opt.HTTPClient
	if hc == nil {
		hc = newHTTPClient()
	}
	// OpenRouter ранжирует приложения по HTTP-Referer и X-Title
	hc = &http.Client{
		Timeout:   hc.Timeout,
		Transport: &headerTransport{base: hc.Transport, referer: opt.Referer, title: opt.Title},
	}

	cc := openai.DefaultConfig(key)
	cc.BaseURL = base
	cc.HTTPClient = hc

	return &Engine{
		APIKey: key,
		Model:  model,
		client: openai.NewClientWithConfig(cc),
	}
}

func newHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		// мультимодальные ответы долго ждут первый байт
		ResponseHeaderTimeout: 120 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}
	return &http.Client{Transport: tr}
}

type headerTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	return base.RoundTrip(req)
}

func (e *Engine) Name() string     { return "openrouter" }
func (e *Engine) GetModel() string { return e.Model }
func (e *Engine) SetModel(m string) {
	if m = strings.TrimSpace(m); m != "" {
		e.Model = m
	}
}

func (e *Engine) Solve(ctx context.Context, in solver.SolveRequest) (solver.SolveResult, error) {
	if e.APIKey == "" {
		return solver.SolveResult{}, fmt.Errorf("OPENROUTER_API_KEY is empty")
	}
	in = solver.Prepare(in)
	mime := util.PickMIME(in.MIME, "", in.Image)

	req := openai.ChatCompletionRequest{
		Model: e.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: in.Prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    util.MakeDataURL(mime, in.Image),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		MaxTokens:   in.MaxTokens,
		Temperature: in.Temperature,
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return solver.SolveResult{}, upstreamError(err)
	}
	if len(resp.Choices) == 0 {
		return solver.SolveResult{}, fmt.Errorf("openrouter solve: %w", solver.ErrEmptySolution)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return solver.SolveResult{}, fmt.Errorf("openrouter solve: %w", solver.ErrEmptySolution)
	}

	model := resp.Model
	if model == "" {
		model = e.Model
	}
	return solver.SolveResult{
		Text:  text,
		Model: model,
		Usage: solver.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// upstreamError переводит ошибки go-openai в solver.UpstreamError, чтобы
// ручки и бот одинаково показывали статус провайдера.
func upstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &solver.UpstreamError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &solver.UpstreamError{Status: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return fmt.Errorf("openrouter solve: %w", err)
}
