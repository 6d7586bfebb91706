// Package generator drives answer generation: it calls the model, executes
// the tool calls the model requests, and feeds the results back, within a
// hard cap on tool rounds.
//
// The loop terminates on the first response without tool requests, when the
// round cap is reached, or when a tool execution fails. In the last two
// cases a final call runs without tools so the model has to answer from
// what it already gathered.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"golang.org/x/time/rate"
)

// DefaultMaxToolRounds bounds how many rounds of tool calls a single
// question may trigger.
const DefaultMaxToolRounds = 2

// Executor runs one tool call by name with the model-provided arguments.
type Executor interface {
	Execute(ctx context.Context, name string, input map[string]any) (string, error)
}

// Config configures a Generator. Zero values fall back to defaults.
type Config struct {
	MaxToolRounds int
	CallTimeout   time.Duration
	RateLimiter   *rate.Limiter // nil disables proactive rate limiting
	Retry         RetryConfig
	Logger        *slog.Logger
}

// Generator owns the tool-calling generation loop. It is stateless across
// calls and safe for concurrent use.
type Generator struct {
	model       Model
	executor    Executor
	toolRefs    []ai.ToolRef
	maxRounds   int
	callTimeout time.Duration
	limiter     *rate.Limiter
	retry       RetryConfig
	logger      *slog.Logger
}

// New creates a Generator. executor and toolRefs may be nil together, which
// turns every call into plain generation.
func New(model Model, executor Executor, toolRefs []ai.ToolRef, cfg Config) (*Generator, error) {
	if model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if len(toolRefs) > 0 && executor == nil {
		return nil, fmt.Errorf("executor is required when tools are provided")
	}
	maxRounds := cfg.MaxToolRounds
	if maxRounds < 1 {
		maxRounds = DefaultMaxToolRounds
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.InitialInterval == 0 {
		retry = DefaultRetryConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		model:       model,
		executor:    executor,
		toolRefs:    toolRefs,
		maxRounds:   maxRounds,
		callTimeout: cfg.CallTimeout,
		limiter:     cfg.RateLimiter,
		retry:       retry,
		logger:      logger,
	}, nil
}

// Answer generates a response to the question. history is the formatted
// prior conversation, empty for a fresh session; it is appended to the
// system prompt so the model sees earlier exchanges without them counting
// as messages.
func (g *Generator) Answer(ctx context.Context, question, history string) (string, error) {
	system := systemPrompt
	if history != "" {
		system = systemPrompt + "\n\nPrevious conversation:\n" + history
	}

	messages := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart(question)),
	}

	for round := 0; round < g.maxRounds; round++ {
		resp, err := g.generateWithRetry(ctx, &ModelRequest{
			System:   system,
			Messages: messages,
			Tools:    g.toolRefs,
		})
		if err != nil {
			return "", fmt.Errorf("generation round %d: %w", round+1, err)
		}

		toolReqs := resp.ToolRequests()
		if len(toolReqs) == 0 {
			return g.finalText(resp), nil
		}

		g.logger.Debug("model requested tools",
			"round", round+1,
			"count", len(toolReqs))

		messages = append(messages, resp.Message)

		toolMsg, failed := g.runTools(ctx, toolReqs)
		messages = append(messages, toolMsg)

		if failed {
			// A broken tool will not heal between rounds. Force the
			// model to answer from what it has.
			break
		}
	}

	resp, err := g.generateWithRetry(ctx, &ModelRequest{
		System:   system,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("final generation: %w", err)
	}
	return g.finalText(resp), nil
}

// runTools executes every tool request of one round and packs the results
// into a single tool message. A failed execution becomes a readable result
// for the model and flips the failed flag.
func (g *Generator) runTools(ctx context.Context, reqs []*ai.ToolRequest) (*ai.Message, bool) {
	failed := false
	parts := make([]*ai.Part, 0, len(reqs))
	for _, req := range reqs {
		input := toInputMap(req.Input)

		result, err := g.executor.Execute(ctx, req.Name, input)
		if err != nil {
			g.logger.Error("tool execution failed",
				"tool", req.Name,
				"error", err)
			result = fmt.Sprintf("Tool execution failed: %v", err)
			failed = true
		}

		parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   req.Name,
			Ref:    req.Ref,
			Output: result,
		}))
	}
	return ai.NewMessage(ai.RoleTool, nil, parts...), failed
}

// finalText extracts the response text, falling back to a fixed message
// when the model returned nothing usable.
func (g *Generator) finalText(resp *ai.ModelResponse) string {
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		g.logger.Warn("model returned empty response")
		return "I could not produce an answer. Please try rephrasing your question."
	}
	return text
}

// toInputMap normalizes the model-provided tool arguments to a map. Inputs
// arrive as decoded JSON objects; anything else goes through a JSON round
// trip.
func toInputMap(input any) map[string]any {
	if input == nil {
		return nil
	}
	if m, ok := input.(map[string]any); ok {
		return m
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
