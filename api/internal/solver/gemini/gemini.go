package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"task-solver/api/internal/solver"
	"task-solver/api/internal/util"
)

type Engine struct {
	APIKey string
	Model  string

	// opts добавляются к option.WithAPIKey (например, WithEndpoint в тестах)
	opts []option.ClientOption
}

func New(apiKey, model string, opts ...option.ClientOption) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
		opts:   opts,
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }
func (e *Engine) SetModel(m string) {
	if m = strings.TrimSpace(m); m != "" {
		e.Model = m
	}
}

func (e *Engine) Solve(ctx context.Context, in solver.SolveRequest) (solver.SolveResult, error) {
	if e.APIKey == "" {
		return solver.SolveResult{}, errors.New("GEMINI_API_KEY is empty")
	}
	in = solver.Prepare(in)

	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(e.APIKey)}, e.opts...)...)
	if err != nil {
		return solver.SolveResult{}, fmt.Errorf("gemini client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.SetTemperature(in.Temperature)
	m.SetMaxOutputTokens(int32(in.MaxTokens))

	resp, err := m.GenerateContent(ctx,
		genai.Text(in.Prompt),
		genai.Blob{MIMEType: util.PickMIME(in.MIME, "", in.Image), Data: in.Image},
	)
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return solver.SolveResult{}, &solver.UpstreamError{Status: gerr.Code, Message: gerr.Message}
		}
		return solver.SolveResult{}, fmt.Errorf("gemini solve: %w", err)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return solver.SolveResult{}, fmt.Errorf("gemini solve: %w", solver.ErrEmptySolution)
	}

	out := solver.SolveResult{Text: text, Model: e.Model}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = solver.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// responseText склеивает текстовые части первого кандидата.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
