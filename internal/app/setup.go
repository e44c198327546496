package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillchat/quill/db"
	"github.com/quillchat/quill/internal/chat"
	"github.com/quillchat/quill/internal/config"
	"github.com/quillchat/quill/internal/conversation"
	"github.com/quillchat/quill/internal/observability"
	"github.com/quillchat/quill/internal/search"
	"github.com/quillchat/quill/internal/security"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup: call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				slog.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg)

	pool, dbCleanup, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	store, err := conversation.NewStore(pool, logger.With("component", "conversation"))
	if err != nil {
		return nil, fmt.Errorf("creating conversation store: %w", err)
	}
	a.Store = store

	searchClient, err := provideSearch(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Search = searchClient

	searchTool := provideSearchTool(g, searchClient)

	orch, err := chat.New(chat.Config{
		Generator:       chat.GenkitGenerator{G: g},
		Search:          searchClient,
		Logger:          logger.With("component", "chat"),
		ModelName:       cfg.FullModelName(),
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxTokens,
		SearchTool:      searchTool,
	})
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}
	a.Orchestrator = orch

	return a, nil
}

// provideOtelShutdown sets up trace export before Genkit initialization.
// Must run before provideGenkit so the TracerProvider is ready.
func provideOtelShutdown(ctx context.Context, cfg *config.Config) func() {
	if !cfg.Tracing.Enabled {
		return func() {}
	}

	shutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Environment: cfg.Tracing.Environment,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		slog.Warn("setting up tracing", "error", err)
		return func() {}
	}

	//nolint:contextcheck // Independent context: shutdown runs during teardown when parent is canceled
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with the Google AI plugin.
// GEMINI_API_KEY is read by the plugin from the environment.
func provideGenkit(ctx context.Context, cfg *config.Config) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	slog.Info("initialized Genkit", "model", cfg.ModelName)
	return g, nil
}

// provideDBPool creates a PostgreSQL connection pool and runs migrations.
// Pool is configured with sensible defaults for connection management.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, func() {
		pool.Close()
		slog.Info("database pool closed")
	}, nil
}

// provideSearch creates the web search client behind an SSRF-safe HTTP client.
func provideSearch(cfg *config.Config, logger *slog.Logger) (*search.Client, error) {
	timeout := time.Duration(cfg.Search.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	urlValidator := security.NewURL()
	if err := urlValidator.Validate(cfg.Search.BaseURL); err != nil {
		return nil, fmt.Errorf("validating search base URL: %w", err)
	}

	client := &http.Client{
		Transport:     urlValidator.SafeTransport(),
		Timeout:       timeout,
		CheckRedirect: urlValidator.ValidateRedirect,
	}

	return search.New(search.Config{
		BaseURL:    cfg.Search.BaseURL,
		HTTPClient: client,
		Logger:     logger.With("component", "search"),
	})
}

// searchToolInput is the declared input schema for the searchWeb tool.
type searchToolInput struct {
	Query string `json:"query" jsonschema_description:"The search query"`
}

// provideSearchTool declares the searchWeb tool with Genkit so the model
// sees its schema. Execution stays in the orchestrator (it asks for raw
// tool requests back), so the handler here only serves direct invocation
// through the Genkit reflection API.
func provideSearchTool(g *genkit.Genkit, client *search.Client) ai.ToolRef {
	return genkit.DefineTool(g, chat.SearchToolName, chat.SearchToolDescription,
		func(ctx *ai.ToolContext, input searchToolInput) (*search.Response, error) {
			return client.Search(ctx.Context, input.Query), nil
		})
}
