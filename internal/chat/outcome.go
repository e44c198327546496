package chat

import (
	"strings"

	"github.com/quillchat/quill/internal/i18n"
)

// FailureKind classifies why a chat turn could not produce a response.
type FailureKind int

const (
	// FailureUnknown covers anything the other kinds don't.
	FailureUnknown FailureKind = iota
	// FailureEmptyHistory means validation produced no usable turns.
	FailureEmptyHistory
	// FailureAuth means the generation backend rejected our credentials.
	FailureAuth
	// FailureQuota means a rate limit or quota was exhausted.
	FailureQuota
	// FailureModelUnavailable means the requested model is unknown or unsupported.
	FailureModelUnavailable
)

// String returns the identifier of the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureEmptyHistory:
		return "empty_history"
	case FailureAuth:
		return "auth_failure"
	case FailureQuota:
		return "quota_exceeded"
	case FailureModelUnavailable:
		return "model_unavailable"
	default:
		return "unknown"
	}
}

// Failure is a classified, user-presentable chat error.
// Message never contains stack traces or internal identifiers.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Error implements the error interface so callers can log a Failure directly.
func (f *Failure) Error() string {
	return f.Kind.String() + ": " + f.Message
}

// Outcome is the final result of one chat turn: exactly one of Response or
// Failure is set. The orchestrator produces it once per invocation and never
// persists it; persistence belongs to the caller.
type Outcome struct {
	Response string
	Failure  *Failure
}

// OK reports whether the turn produced a response.
func (o Outcome) OK() bool {
	return o.Failure == nil
}

func success(text string) Outcome {
	return Outcome{Response: text}
}

func failure(kind FailureKind, message string) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Message: message}}
}

// Substring groups used to classify generation errors.
//
// String matching is used because the provider SDKs do not expose typed
// errors for these conditions; same documented exception as the retry logic.
var (
	authPatterns = []string{
		"api key", "api_key", "unauthenticated", "unauthorized",
		"permission denied", "invalid credentials", "401", "403",
	}
	quotaPatterns = []string{
		"quota", "rate limit", "resource exhausted", "resource_exhausted", "429",
	}
	modelPatterns = []string{
		"model not found", "unknown model", "unsupported model",
		"model is not supported", "model is unavailable", "no such model",
	}
)

// classifyFailure maps a generation error to a user-facing Outcome.
// Classification order matters: auth before quota before model, so that an
// error mentioning several keywords lands on the most actionable kind.
func classifyFailure(err error) Outcome {
	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, authPatterns...):
		return failure(FailureAuth, i18n.T("chat.error.auth"))
	case containsAny(msg, quotaPatterns...):
		return failure(FailureQuota, i18n.T("chat.error.quota"))
	case containsAny(msg, modelPatterns...):
		return failure(FailureModelUnavailable, i18n.T("chat.error.model"))
	default:
		return failure(FailureUnknown, i18n.Sprintf("chat.error.unknown", err.Error()))
	}
}
