package session

import (
	"slices"
	"strings"
	"time"
)

// Role tags a message in dialogue memory.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ExternalRole returns the role name used by the HTTP API and transcripts.
func (r Role) ExternalRole() string {
	if r == RoleAssistant {
		return "bot"
	}
	return string(r)
}

// Message is one entry in dialogue memory.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// DefaultMemoryWindow is the number of messages kept per user.
const DefaultMemoryWindow = 100

// Memory is a sliding window over the most recent messages.
// Oldest messages are evicted first once the window is full.
type Memory struct {
	window   int
	messages []Message
}

// NewMemory creates a memory holding at most window messages.
func NewMemory(window int) *Memory {
	if window <= 0 {
		window = DefaultMemoryWindow
	}
	return &Memory{window: window}
}

// Window returns the capacity of the memory.
func (m *Memory) Window() int {
	return m.window
}

// Append adds a message, evicting the oldest entries beyond the window.
func (m *Memory) Append(role Role, content string, ts time.Time) {
	m.messages = append(m.messages, Message{Role: role, Content: content, Timestamp: ts})
	if over := len(m.messages) - m.window; over > 0 {
		// Copy so the backing array does not grow without bound.
		m.messages = append([]Message(nil), m.messages[over:]...)
	}
}

// Messages returns a copy of the stored messages, oldest first.
func (m *Memory) Messages() []Message {
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the number of stored messages.
func (m *Memory) Len() int {
	return len(m.messages)
}

// Clear drops every message.
func (m *Memory) Clear() {
	m.messages = nil
}

// Transcript renders the memory as "Student:"/"Advisor:" lines for prompts.
func (m *Memory) Transcript() string {
	return m.TranscriptWith()
}

// TranscriptWith renders the memory followed by extra, without storing extra.
func (m *Memory) TranscriptWith(extra ...Message) string {
	var b strings.Builder
	for _, msg := range slices.Concat(m.messages, extra) {
		if msg.Role == RoleUser {
			b.WriteString("Student: ")
		} else {
			b.WriteString("Advisor: ")
		}
		b.WriteString(msg.Content)
		b.WriteByte('\n')
	}
	return b.String()
}
