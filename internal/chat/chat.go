// Package chat implements the conversation orchestration layer.
//
// One chat turn flows through a fixed pipeline: CleanHistory repairs the raw
// message sequence, ComposePrompt splices the optional agent instructions
// into the first user turn, and the Orchestrator drives at most two
// generation rounds against the model: a first round that may request tool
// calls, and, when it does, exactly one further round carrying the tool
// outputs. The bound is deliberate: one tool round, never more.
//
// Every failure is caught at the orchestrator boundary and translated into a
// classified, user-presentable Outcome; nothing escapes as a raw error.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/quillchat/quill/internal/i18n"
	"github.com/quillchat/quill/internal/search"
)

// Name is the identifier of the chat agent.
const Name = "chat"

// SearchToolName is the only tool the orchestrator registers.
const SearchToolName = "searchWeb"

// SearchToolDescription is what the model sees when deciding to call the tool.
const SearchToolDescription = "Search the web for current information. Input: a short keyword query. Returns a ranked list of results with title, summary and source."

// Default generation parameters. Fixed configuration, not exposed to callers:
// temperature stays at a conversational setting and the output length cap
// bounds cost and latency.
const (
	DefaultTemperature     float32 = 0.7
	DefaultMaxOutputTokens         = 2048
	DefaultModelName               = "googleai/gemini-2.5-flash"
)

// Generator abstracts the remote generation capability.
// Production uses GenkitGenerator; tests substitute a recording fake.
type Generator interface {
	Generate(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error)
}

// GenkitGenerator adapts a Genkit instance to the Generator seam.
type GenkitGenerator struct {
	G *genkit.Genkit
}

// Generate implements Generator.
func (g GenkitGenerator) Generate(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error) {
	resp, err := genkit.Generate(ctx, g.G, opts...)
	if err != nil {
		return nil, fmt.Errorf("genkit generate: %w", err)
	}
	return resp, nil
}

// Searcher is the web search capability consumed by the tool branch.
// *search.Client satisfies it; tests substitute a counting fake.
type Searcher interface {
	Search(ctx context.Context, query string) *search.Response
}

// Config contains all required parameters for the Orchestrator.
type Config struct {
	Generator Generator      // Required
	Search    Searcher       // Required when tool calling is enabled for any request
	Logger    *slog.Logger   // Required

	// Generation parameters. Zero values use the package defaults.
	ModelName       string  // Provider-qualified default model
	Temperature     float32 // 0 = DefaultTemperature
	MaxOutputTokens int     // 0 = DefaultMaxOutputTokens

	// SearchTool is the declared tool reference passed to the model when a
	// request enables tools. Registered with Genkit at wiring time; may be
	// nil when the Generator ignores declarations (tests).
	SearchTool ai.ToolRef

	// Resilience configuration (zero values use defaults).
	RetryConfig          RetryConfig
	CircuitBreakerConfig CircuitBreakerConfig
	RateLimiter          *rate.Limiter // nil = default 10 req/s, burst 30
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Generator == nil {
		return errors.New("generator is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Request is one chat turn to process.
type Request struct {
	Messages     []Message     // Raw history, oldest first; cleaned before use
	Agent        *AgentContext // Optional custom-agent instructions
	Model        string        // Optional model override for this turn
	ToolsEnabled bool          // Declare the search tool to the model
}

// Orchestrator is the chat turn state machine.
//
// It holds no per-request state: two conversations processed concurrently
// never interact. All configuration is captured immutably at construction.
type Orchestrator struct {
	defaultModel    string
	temperature     float32
	maxOutputTokens int

	retryConfig    RetryConfig
	circuitBreaker *CircuitBreaker
	rateLimiter    *rate.Limiter

	generator  Generator
	search     Searcher
	searchTool ai.ToolRef
	logger     *slog.Logger
}

// New creates an Orchestrator with required configuration.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	model := cfg.ModelName
	if model == "" {
		model = DefaultModelName
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}
	cbConfig := cfg.CircuitBreakerConfig
	if cbConfig.FailureThreshold == 0 {
		cbConfig = DefaultCircuitBreakerConfig()
	}

	// Default: 10 requests/sec sustained, burst of 30
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	o := &Orchestrator{
		defaultModel:    model,
		temperature:     temperature,
		maxOutputTokens: maxTokens,
		retryConfig:     retryConfig,
		circuitBreaker:  NewCircuitBreaker(cbConfig),
		rateLimiter:     rl,
		generator:       cfg.Generator,
		search:          cfg.Search,
		searchTool:      cfg.SearchTool,
		logger:          cfg.Logger,
	}

	o.logger.Info("chat orchestrator initialized",
		"model", o.defaultModel,
		"temperature", o.temperature,
		"max_output_tokens", o.maxOutputTokens,
	)
	return o, nil
}

// Run processes one chat turn to completion.
//
// State machine, two phases max:
//
//	Validate → Compose → Generate(1) → [tool round → Generate(2)] → Outcome
//
// The tool round executes each requested tool (only searchWeb is registered),
// fans the calls out concurrently, joins, and issues exactly one second
// generation whose history is the first round's extended with the model's
// tool-request message and one tool-output message. Round 2 is final
// regardless of its content; the loop never recurses.
func (o *Orchestrator) Run(ctx context.Context, req Request) Outcome {
	// Phase 0: validate.
	history := CleanHistory(req.Messages)
	if len(history) == 0 {
		return failure(FailureEmptyHistory, i18n.T("chat.error.empty_history"))
	}

	// Phase 1: compose.
	composed := ComposePrompt(history, req.Agent)
	messages := toGenkitMessages(composed)

	model := o.resolveModel(req.Model)
	o.logger.Debug("starting chat turn",
		"model", model,
		"history_length", len(messages),
		"tools_enabled", req.ToolsEnabled,
		"has_agent", !req.Agent.empty(),
	)

	// Phase 2: first generation round.
	resp, err := o.generate(ctx, messages, model, req.ToolsEnabled)
	if err != nil {
		o.logger.Warn("generation round 1 failed", "error", err)
		return classifyFailure(err)
	}

	// Tool-call branch: at most one round.
	if toolRequests := resp.ToolRequests(); req.ToolsEnabled && len(toolRequests) > 0 {
		o.logger.Debug("model requested tools", "count", len(toolRequests))

		toolParts := o.executeToolRequests(ctx, toolRequests)

		extended := make([]*ai.Message, 0, len(messages)+2)
		extended = append(extended, messages...)
		extended = append(extended, resp.Message)
		extended = append(extended, &ai.Message{Role: ai.RoleTool, Content: toolParts})

		resp, err = o.generate(ctx, extended, model, req.ToolsEnabled)
		if err != nil {
			o.logger.Warn("generation round 2 failed", "error", err)
			return classifyFailure(err)
		}
	}

	// Empty-text guard: never surface an empty message.
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		o.logger.Warn("model returned empty response, substituting fallback")
		text = i18n.T("chat.fallback")
	}

	return success(text)
}

// generate performs one guarded generation round.
func (o *Orchestrator) generate(ctx context.Context, messages []*ai.Message, model string, toolsEnabled bool) (*ai.ModelResponse, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(model),
		ai.WithMessages(messages...),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(o.temperature),
			MaxOutputTokens: int32(o.maxOutputTokens),
		}),
	}

	// Tool execution stays in Run's loop: the model only ever sees the
	// declaration and returns requests for us to resolve.
	if toolsEnabled && o.searchTool != nil {
		opts = append(opts,
			ai.WithTools(o.searchTool),
			ai.WithToolChoice(ai.ToolChoiceAuto),
			ai.WithReturnToolRequests(true),
		)
	}

	if err := o.circuitBreaker.Allow(); err != nil {
		o.logger.Warn("circuit breaker is open, rejecting request",
			"state", o.circuitBreaker.State().String())
		return nil, fmt.Errorf("service unavailable: %w", err)
	}

	resp, err := o.generateWithRetry(ctx, opts)
	if err != nil {
		o.circuitBreaker.Failure()
		return nil, err
	}
	o.circuitBreaker.Success()
	return resp, nil
}

// executeToolRequests resolves every tool request from one round.
// The fan-out is concurrent; the join completes before round 2 starts.
func (o *Orchestrator) executeToolRequests(ctx context.Context, requests []*ai.ToolRequest) []*ai.Part {
	parts := make([]*ai.Part, len(requests))

	var wg sync.WaitGroup
	for i, tr := range requests {
		wg.Add(1)
		go func(i int, tr *ai.ToolRequest) {
			defer wg.Done()
			parts[i] = ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   tr.Name,
				Ref:    tr.Ref,
				Output: o.executeTool(ctx, tr),
			})
		}(i, tr)
	}
	wg.Wait()

	return parts
}

// executeTool dispatches a single tool request by name.
// Unknown tools produce a structured error output rather than aborting the
// turn; the model decides what to do with it in round 2.
func (o *Orchestrator) executeTool(ctx context.Context, tr *ai.ToolRequest) any {
	switch tr.Name {
	case SearchToolName:
		if o.search == nil {
			o.logger.Warn("search tool requested but no searcher configured")
			return &search.Response{Results: []search.Result{}}
		}
		return o.search.Search(ctx, queryFromInput(tr.Input))
	default:
		o.logger.Warn("unknown tool requested", "tool", tr.Name)
		return map[string]any{"error": "unknown tool: " + tr.Name}
	}
}

// queryFromInput extracts the search keywords from a tool request input.
// The declared schema is {"query": string}, but providers occasionally hand
// back a bare string.
func queryFromInput(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case map[string]any:
		if q, ok := v["query"].(string); ok {
			return q
		}
	}
	return ""
}

// resolveModel qualifies a per-request model override, falling back to the
// configured default.
func (o *Orchestrator) resolveModel(override string) string {
	if override == "" {
		return o.defaultModel
	}
	if strings.Contains(override, "/") {
		return override
	}
	return "googleai/" + override
}
