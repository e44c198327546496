package i18n

// loadFrenchMessages loads all French translations
func loadFrenchMessages() {
	messages[LangFR] = map[string]string{
		// Common
		"app.name":        "Quill",
		"app.description": "Service de conversation de l'application Quill",
		"app.version":     "Quill v%s",

		// Chat failures
		"chat.error.empty_history": "L'historique de conversation fourni est invalide.",
		"chat.error.auth":          "L'authentification auprès du service d'IA a échoué. Veuillez vérifier la configuration de la clé API.",
		"chat.error.quota":         "Le quota du service d'IA est dépassé. Veuillez réessayer dans quelques minutes.",
		"chat.error.model":         "Le modèle demandé est indisponible. Veuillez choisir un autre modèle.",
		"chat.error.unknown":       "Une erreur technique est survenue : %s",

		// Fallback when the model returns nothing
		"chat.fallback": "Je suis désolé, je n'ai pas pu générer de réponse. Veuillez reformuler votre question.",

		// CLI
		"ask.usage":       "Utilisation : quill ask <question>",
		"serve.listening": "Serveur HTTP en écoute sur %s",
		"migrate.done":    "Migrations de la base de données appliquées",
	}
}
