package generator

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// ModelRequest is one model call: system prompt, conversation so far, and
// the tools the model may request. Empty Tools disables tool calling for
// the call.
type ModelRequest struct {
	System   string
	Messages []*ai.Message
	Tools    []ai.ToolRef
}

// Model abstracts a single LLM call so the generation loop can be tested
// against a scripted fake.
type Model interface {
	Generate(ctx context.Context, req *ModelRequest) (*ai.ModelResponse, error)
}

// GenkitModel implements Model on a Genkit instance. Tool requests are
// returned to the caller instead of being executed by the Genkit runtime,
// which keeps round counting and failure handling in the generation loop.
type GenkitModel struct {
	g         *genkit.Genkit
	modelName string
}

// NewGenkitModel creates a GenkitModel for the named model, e.g.
// "googleai/gemini-2.5-flash".
func NewGenkitModel(g *genkit.Genkit, modelName string) (*GenkitModel, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	return &GenkitModel{g: g, modelName: modelName}, nil
}

func (m *GenkitModel) Generate(ctx context.Context, req *ModelRequest) (*ai.ModelResponse, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(m.modelName),
		ai.WithSystem(req.System),
		ai.WithMessages(req.Messages...),
	}
	if len(req.Tools) > 0 {
		opts = append(opts,
			ai.WithTools(req.Tools...),
			ai.WithReturnToolRequests(true),
		)
	}
	return genkit.Generate(ctx, m.g, opts...)
}
