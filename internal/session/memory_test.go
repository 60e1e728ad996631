package session

import (
	"fmt"
	"testing"
	"time"
)

func TestMemoryKeepsMostRecentWindow(t *testing.T) {
	t.Parallel()

	m := NewMemory(100)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 150 {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		m.Append(role, fmt.Sprintf("msg-%d", i), base.Add(time.Duration(i)*time.Second))
	}

	if m.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", m.Len())
	}
	msgs := m.Messages()
	if msgs[0].Content != "msg-50" {
		t.Errorf("oldest message = %q, want msg-50", msgs[0].Content)
	}
	if msgs[99].Content != "msg-149" {
		t.Errorf("newest message = %q, want msg-149", msgs[99].Content)
	}
}

func TestMemoryMessagesIsCopy(t *testing.T) {
	t.Parallel()

	m := NewMemory(10)
	m.Append(RoleUser, "hello", time.Now())
	msgs := m.Messages()
	msgs[0].Content = "mutated"

	if m.Messages()[0].Content != "hello" {
		t.Error("Messages() must return a copy")
	}
}

func TestMemoryTranscript(t *testing.T) {
	t.Parallel()

	m := NewMemory(10)
	m.Append(RoleUser, "I like robots", time.Now())
	m.Append(RoleAssistant, "What kind of robots?", time.Now())

	want := "Student: I like robots\nAdvisor: What kind of robots?\n"
	if got := m.Transcript(); got != want {
		t.Errorf("Transcript() = %q, want %q", got, want)
	}

	extra := Message{Role: RoleUser, Content: "Lego ones"}
	if got := m.TranscriptWith(extra); got != want+"Student: Lego ones\n" {
		t.Errorf("TranscriptWith() = %q", got)
	}
	if m.Len() != 2 {
		t.Errorf("TranscriptWith() must not store, Len() = %d", m.Len())
	}

	m.Clear()
	if m.Transcript() != "" || m.Len() != 0 {
		t.Error("Clear() should empty the memory")
	}
}

func TestNewMemoryDefaultsWindow(t *testing.T) {
	t.Parallel()

	if got := NewMemory(0).Window(); got != DefaultMemoryWindow {
		t.Errorf("Window() = %d, want %d", got, DefaultMemoryWindow)
	}
}

func TestRoleExternalRole(t *testing.T) {
	t.Parallel()

	if RoleAssistant.ExternalRole() != "bot" {
		t.Errorf("assistant exports as %q, want bot", RoleAssistant.ExternalRole())
	}
	if RoleUser.ExternalRole() != "user" {
		t.Errorf("user exports as %q, want user", RoleUser.ExternalRole())
	}
}
