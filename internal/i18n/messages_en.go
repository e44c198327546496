package i18n

// loadEnglishMessages loads all English translations
func loadEnglishMessages() {
	messages[LangEN] = map[string]string{
		// Common
		"app.name":        "Quill",
		"app.description": "Conversation service for the Quill chat application",
		"app.version":     "Quill v%s",

		// Chat failures (user-facing; no stack traces, no internal identifiers)
		"chat.error.empty_history": "Invalid conversation history provided.",
		"chat.error.auth":          "Authentication with the AI service failed. Please verify the API key configuration.",
		"chat.error.quota":         "The AI service quota has been exceeded. Please try again in a few minutes.",
		"chat.error.model":         "The requested model is unavailable. Please select another model.",
		"chat.error.unknown":       "A technical error occurred: %s",

		// Fallback when the model returns nothing
		"chat.fallback": "I apologize, but I couldn't generate a response. Please try rephrasing your question.",

		// CLI
		"ask.usage":       "Usage: quill ask <question>",
		"serve.listening": "HTTP server listening on %s",
		"migrate.done":    "Database migrations applied",
	}
}
