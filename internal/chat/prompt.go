package chat

import "strings"

// Built-in instruction fallbacks. A custom agent overrides persona and rules
// independently; a conversation without an agent gets no system block at all.
const (
	// DefaultPersona is used when an agent supplies rules but no persona.
	DefaultPersona = "You are a helpful, knowledgeable assistant. You answer clearly and concisely, in the language the user writes in."

	// DefaultRules is used when an agent supplies a persona but no rules.
	DefaultRules = "Be accurate. If you are unsure, say so. Never invent facts, sources or quotations. Keep answers focused on the user's question."

	// promptDelimiter separates the injected system block from the user's own text.
	promptDelimiter = "\n\n---\n\n"
)

// ComposePrompt returns a copy of history with the agent's instructions
// spliced into the first turn.
//
// The generation protocol used here has no separate system slot, so the
// instruction block rides inside the first user turn. CleanHistory's anchor
// guarantee is what makes this safe. Messages after the first are passed
// through unchanged; a nil or empty context yields a plain copy.
func ComposePrompt(history []Message, agent *AgentContext) []Message {
	out := make([]Message, len(history))
	copy(out, history)

	if agent.empty() || len(out) == 0 {
		return out
	}

	persona := strings.TrimSpace(agent.Persona)
	if persona == "" {
		persona = DefaultPersona
	}
	rules := strings.TrimSpace(agent.Rules)
	if rules == "" {
		rules = DefaultRules
	}

	var b strings.Builder
	b.WriteString("[Persona]\n")
	b.WriteString(persona)
	b.WriteString("\n\n[Rules]\n")
	b.WriteString(rules)
	b.WriteString(promptDelimiter)
	b.WriteString(out[0].Content)

	out[0] = Message{Role: out[0].Role, Content: b.String()}
	return out
}
