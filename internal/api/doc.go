// Package api implements the JSON HTTP API consumed by the browser client.
//
// # Endpoints
//
// Health probes (outside the middleware stack):
//
//	GET  /health                              - liveness probe
//	GET  /ready                               - readiness probe (checks database pool)
//
// API routes (under the middleware stack):
//
//	POST   /api/v1/chat                       - send a message, get the assistant reply
//	GET    /api/v1/conversations              - list the user's conversations
//	POST   /api/v1/conversations              - create a conversation
//	GET    /api/v1/conversations/{id}         - fetch one conversation
//	DELETE /api/v1/conversations/{id}         - delete a conversation
//	GET    /api/v1/conversations/{id}/messages - fetch conversation history
//	GET    /api/v1/agents                     - list the user's agents
//	POST   /api/v1/agents                     - create an agent
//	GET    /api/v1/agents/{id}                - fetch one agent
//	PUT    /api/v1/agents/{id}                - update an agent
//	DELETE /api/v1/agents/{id}                - delete an agent
//
// # Middleware stack
//
// Outermost first:
//
//	Recovery → RequestID → Logging → CORS → RateLimit → User → Routes
//
// RequestID must be before Logging so request_id is available in log
// attributes. CORS must be before RateLimit so preflight OPTIONS gets
// proper CORS headers.
//
// # User identity
//
// Users are identified by a uid cookie, auto-provisioned on first visit.
// A client may also pin its identity with the X-User-ID header (used by
// the browser client after first provision). All store access is scoped
// by owner ID, so a user can only ever see their own data.
package api
