package clientagent

import "testing"

func TestMemoryContextEmpty(t *testing.T) {
	m := NewMemory(3)
	if got := m.Context(); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}

func TestMemoryContextOrdersTurns(t *testing.T) {
	m := NewMemory(3)
	m.PushPeer("hello")
	m.PushAgent("hi there")

	got := m.Context()
	want := "peer: hello\nagent: hi there"
	if got != want {
		t.Fatalf("Context() = %q, want %q", got, want)
	}
}

func TestMemoryEvictsOldestBeyondLimit(t *testing.T) {
	m := NewMemory(2)
	m.PushPeer("one")
	m.PushAgent("two")
	m.PushPeer("three")

	got := m.Context()
	want := "agent: two\npeer: three"
	if got != want {
		t.Fatalf("Context() = %q, want %q", got, want)
	}
}

func TestMemoryZeroLimitDisablesHistory(t *testing.T) {
	m := NewMemory(0)
	m.PushPeer("hello")
	if got := m.Context(); got != "" {
		t.Fatalf("expected empty context with zero limit, got %q", got)
	}
}
