// Package app provides application initialization and dependency wiring.
//
// App is the container that assembles the runtime: Genkit, the database
// pool, the conversation store, the web search client, and the chat
// orchestrator. Setup builds everything in dependency order and Close
// releases it in reverse.
package app

import (
	"context"
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillchat/quill/internal/chat"
	"github.com/quillchat/quill/internal/config"
	"github.com/quillchat/quill/internal/conversation"
	"github.com/quillchat/quill/internal/search"
)

// App is the core application container.
type App struct {
	Config *config.Config

	Genkit       *genkit.Genkit
	DBPool       *pgxpool.Pool
	Store        *conversation.Store
	Search       *search.Client
	Orchestrator *chat.Orchestrator

	otelCleanup func()
	dbCleanup   func()
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	slog.Info("shutting down application")

	if a.dbCleanup != nil {
		a.dbCleanup()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}

// Run is a convenience for one-shot commands: load history-free requests
// straight through the orchestrator.
func (a *App) Run(ctx context.Context, req chat.Request) chat.Outcome {
	return a.Orchestrator.Run(ctx, req)
}
