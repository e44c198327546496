package i18n

import (
	"fmt"
	"os"
	"strings"
)

// Supported languages
const (
	LangEN = "en"
	LangFR = "fr"
)

// currentLang holds the current language setting
var currentLang = LangEN

// messages stores all translations
var messages = make(map[string]map[string]string)

// Init initializes the i18n system with the specified language
func Init(lang string) {
	// Normalize language code
	lang = strings.ToLower(strings.TrimSpace(lang))

	// Map common variations
	switch lang {
	case "en", "en-us", "english":
		currentLang = LangEN
	case "fr", "fr-fr", "fr-ca", "french", "francais", "français":
		currentLang = LangFR
	default:
		// Check environment variable
		if envLang := os.Getenv("QUILL_LANG"); envLang != "" && !strings.EqualFold(envLang, lang) {
			Init(envLang)
			return
		}
		// Default to English
		currentLang = LangEN
	}

	// Load messages
	loadMessages()
}

// SetLanguage changes the current language
func SetLanguage(lang string) {
	Init(lang)
}

// GetLanguage returns the current language
func GetLanguage() string {
	return currentLang
}

// T returns the translated message for the given key
// Falls back to English if translation is not found
func T(key string) string {
	if msg, ok := messages[currentLang][key]; ok {
		return msg
	}

	// Fallback to English
	if msg, ok := messages[LangEN][key]; ok {
		return msg
	}

	// Return key if no translation found
	return key
}

// Sprintf returns the translated and formatted message
func Sprintf(key string, args ...interface{}) string {
	return fmt.Sprintf(T(key), args...)
}

// loadMessages initializes the message maps
func loadMessages() {
	loadEnglishMessages()
	loadFrenchMessages()
}

// GetSupportedLanguages returns a list of supported language codes
func GetSupportedLanguages() []string {
	return []string{LangEN, LangFR}
}

// IsLanguageSupported checks if a language is supported
func IsLanguageSupported(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, supported := range GetSupportedLanguages() {
		if strings.EqualFold(lang, supported) {
			return true
		}
	}
	return false
}

// init is called automatically when the package is imported
func init() {
	if envLang := os.Getenv("QUILL_LANG"); envLang != "" {
		Init(envLang)
	} else {
		Init(LangEN) // Default to English
	}
}
