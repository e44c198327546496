package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillchat/quill/internal/chat"
	"github.com/quillchat/quill/internal/conversation"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger       *slog.Logger
	Orchestrator *chat.Orchestrator  // Required
	Store        *conversation.Store // Required
	Pool         *pgxpool.Pool       // Optional: nil disables pool stats in /ready
	CORSOrigins  []string            // Allowed origins for CORS
	IsDev        bool                // Enables HTTP cookies (no Secure flag)
	TrustProxy   bool                // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
	RateBurst    int                 // Rate limiter burst size per IP (0 = default 60)
	MaxHistory   int                 // Max messages loaded per conversation (0 = default 100)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("conversation store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 100
	}

	ch := &chatHandler{
		orchestrator: cfg.Orchestrator,
		store:        cfg.Store,
		maxHistory:   maxHistory,
		logger:       logger,
	}
	cv := &conversationHandler{store: cfg.Store, logger: logger}
	ag := &agentHandler{store: cfg.Store, logger: logger}

	mux := http.NewServeMux()

	// Chat
	mux.HandleFunc("POST /api/v1/chat", ch.send)

	// Conversation CRUD
	mux.HandleFunc("GET /api/v1/conversations", cv.list)
	mux.HandleFunc("POST /api/v1/conversations", cv.create)
	mux.HandleFunc("GET /api/v1/conversations/{id}", cv.get)
	mux.HandleFunc("GET /api/v1/conversations/{id}/messages", cv.messages)
	mux.HandleFunc("DELETE /api/v1/conversations/{id}", cv.delete)

	// Agent CRUD
	mux.HandleFunc("GET /api/v1/agents", ag.list)
	mux.HandleFunc("POST /api/v1/agents", ag.create)
	mux.HandleFunc("GET /api/v1/agents/{id}", ag.get)
	mux.HandleFunc("PUT /api/v1/agents/{id}", ag.update)
	mux.HandleFunc("DELETE /api/v1/agents/{id}", ag.delete)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → User → Routes
	// RequestID must be before Logging so request_id is available in log attributes.
	// CORS must be before RateLimit so preflight OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = userMiddleware(cfg.IsDev)(handler)
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Wrap with security headers
	isDev := cfg.IsDev
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, isDev)
		handler.ServeHTTP(w, r)
	})

	// Use a top-level mux to separate health probes from the middleware stack
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
