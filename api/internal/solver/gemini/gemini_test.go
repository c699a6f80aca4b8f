package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"

	"task-solver/api/internal/solver"
)

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("1. Шаг\n\n"),
				genai.Blob{MIMEType: "image/png"},
				genai.Text("2+2=4"),
			}},
		}},
	}
	assert.Equal(t, "1. Шаг\n\n2+2=4", responseText(resp))
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))
}

func TestSolve_NoKey(t *testing.T) {
	_, err := New(" ", "gemini-2.5-flash").Solve(context.Background(), solver.SolveRequest{Image: []byte{1}})
	assert.EqualError(t, err, "GEMINI_API_KEY is empty")
}

func TestSetModel(t *testing.T) {
	e := New("k", "gemini-2.5-flash")
	e.SetModel("  ")
	assert.Equal(t, "gemini-2.5-flash", e.GetModel())
	e.SetModel("gemini-2.5-pro")
	assert.Equal(t, "gemini-2.5-pro", e.GetModel())
	assert.Equal(t, "gemini", e.Name())
}
