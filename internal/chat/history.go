package chat

// CleanHistory repairs a raw message sequence into a protocol-legal history.
//
// Three passes, in order:
//  1. drop anything that is not a recognized role with non-empty trimmed content;
//  2. drop any element whose role repeats the previous kept element's role,
//     except tool turns, which legitimately repeat;
//  3. anchor on the first user turn and discard everything before it.
//
// The result, if non-empty, always starts with a user turn and never contains
// two consecutive non-tool turns of the same role. An empty result is a valid
// degenerate value; the orchestrator rejects it with an EmptyHistory failure
// because the generation API requires at least one turn.
func CleanHistory(raw []Message) []Message {
	kept := make([]Message, 0, len(raw))

	for _, m := range raw {
		if !m.valid() {
			continue
		}
		if n := len(kept); n > 0 && kept[n-1].Role == m.Role && m.Role != RoleTool {
			continue
		}
		msg, err := NewMessage(m.Role, m.Content)
		if err != nil {
			continue
		}
		kept = append(kept, msg)
	}

	for i, m := range kept {
		if m.Role == RoleUser {
			return kept[i:]
		}
	}
	return nil
}
