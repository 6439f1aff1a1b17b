package clientagent

import "strings"

// turn is one exchange line in a Memory transcript.
type turn struct {
	speaker string
	content string
}

// Memory is a bounded conversation transcript used to prime LLM prompts with
// recent context. It keeps at most limit turns, oldest first.
type Memory struct {
	limit int
	turns []turn
}

// NewMemory creates a Memory that retains at most limit turns. A limit of
// zero or less disables history: Context always returns "".
func NewMemory(limit int) *Memory {
	return &Memory{limit: limit}
}

// PushPeer records a message from the other party.
func (m *Memory) PushPeer(content string) {
	m.push("peer", content)
}

// PushAgent records a message the agent itself sent.
func (m *Memory) PushAgent(content string) {
	m.push("agent", content)
}

func (m *Memory) push(speaker, content string) {
	if m.limit <= 0 {
		return
	}
	m.turns = append(m.turns, turn{speaker: speaker, content: content})
	if len(m.turns) > m.limit {
		m.turns = m.turns[len(m.turns)-m.limit:]
	}
}

// Context renders the retained turns as a short transcript, or "" if there is
// nothing to show yet.
func (m *Memory) Context() string {
	if len(m.turns) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range m.turns {
		b.WriteString(t.speaker)
		b.WriteString(": ")
		b.WriteString(t.content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
