package i18n

import (
	"strings"
	"testing"
)

func TestTranslations(t *testing.T) {
	t.Run("french messages", func(t *testing.T) {
		Init("fr")
		defer Init("en")

		if got := T("chat.error.quota"); !strings.Contains(got, "quota") {
			t.Errorf("unexpected french quota message: %q", got)
		}
		if got := T("chat.fallback"); !strings.Contains(got, "désolé") {
			t.Errorf("unexpected french fallback: %q", got)
		}
	})

	t.Run("unknown key returns the key", func(t *testing.T) {
		Init("en")
		if got := T("no.such.key"); got != "no.such.key" {
			t.Errorf("T(no.such.key) = %q", got)
		}
	})

	t.Run("language variants normalize", func(t *testing.T) {
		Init("fr-CA")
		defer Init("en")
		if GetLanguage() != LangFR {
			t.Errorf("fr-CA should map to fr, got %q", GetLanguage())
		}
	})

	t.Run("sprintf formats arguments", func(t *testing.T) {
		Init("en")
		got := Sprintf("chat.error.unknown", "boom")
		if !strings.Contains(got, "boom") {
			t.Errorf("Sprintf did not interpolate: %q", got)
		}
	})
}

func TestMessageParity(t *testing.T) {
	Init("en")

	for key := range messages[LangEN] {
		if _, ok := messages[LangFR][key]; !ok {
			t.Errorf("key %q missing from french messages", key)
		}
	}
	for key := range messages[LangFR] {
		if _, ok := messages[LangEN][key]; !ok {
			t.Errorf("key %q missing from english messages", key)
		}
	}
}

func TestIsLanguageSupported(t *testing.T) {
	if !IsLanguageSupported("fr") || !IsLanguageSupported("EN") {
		t.Error("fr and EN should be supported")
	}
	if IsLanguageSupported("de") {
		t.Error("de is not supported")
	}
}
