package space

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sherzodv/tim/internal/storage"
)

func openSpace(t *testing.T) (*Space, *storage.Store) {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "tim.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	sp, err := New(s)
	if err != nil {
		t.Fatalf("new space: %v", err)
	}
	return sp, s
}

func recv(t *testing.T, ch <-chan storage.SpaceEvent) storage.SpaceEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		panic("unreachable")
	}
}

func TestSubscribeEmitsConnectedToSelf(t *testing.T) {
	sp, _ := openSpace(t)

	ch, unsub, err := sp.Subscribe("session-b", 2, false)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	ev := recv(t, ch)
	if ev.Kind != storage.EventTimiteConnected || ev.TimiteConnected == nil || *ev.TimiteConnected != 2 {
		t.Fatalf("ev = %+v, want TimiteConnected(2)", ev)
	}
}

func TestPublishMessageFansOutAndFiltersSelf(t *testing.T) {
	sp, _ := openSpace(t)

	chA, unsubA, err := sp.Subscribe("session-a", 1, false)
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	defer unsubA()
	recv(t, chA) // A's own TimiteConnected

	chB, unsubB, err := sp.Subscribe("session-b", 2, false)
	if err != nil {
		t.Fatalf("subscribe b: %v", err)
	}
	defer unsubB()
	recv(t, chB)                 // B's own TimiteConnected
	connA := recv(t, chA)        // A sees B's connect too
	if connA.Kind != storage.EventTimiteConnected {
		t.Fatalf("expected A to observe B's connect, got %+v", connA)
	}

	msg := &storage.Message{ID: 1, SenderID: 1, Content: "ping"}
	if err := sp.PublishMessage(msg); err != nil {
		t.Fatalf("publish message: %v", err)
	}

	got := recv(t, chB)
	if got.Kind != storage.EventNewMessage || got.NewMessage.Content != "ping" {
		t.Fatalf("B got %+v, want NewMessage{ping}", got)
	}

	select {
	case ev := <-chA:
		t.Fatalf("A should not receive its own message, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeOnlyEmitsConnectedOnFirstAttachment(t *testing.T) {
	sp, _ := openSpace(t)

	ch1, unsub1, err := sp.Subscribe("sess-1", 1, false)
	if err != nil {
		t.Fatalf("subscribe 1: %v", err)
	}
	defer unsub1()
	recv(t, ch1)

	ch2, unsub2, err := sp.Subscribe("sess-2", 1, false)
	if err != nil {
		t.Fatalf("subscribe 2: %v", err)
	}
	defer unsub2()

	select {
	case ev := <-ch2:
		t.Fatalf("second subscription from same participant should not re-emit connected, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeEmitsDisconnectedOnLastDetach(t *testing.T) {
	sp, _ := openSpace(t)

	chWatcher, unsubWatcher, err := sp.Subscribe("watcher", 99, false)
	if err != nil {
		t.Fatalf("subscribe watcher: %v", err)
	}
	defer unsubWatcher()
	recv(t, chWatcher) // watcher's own connected

	_, unsub, err := sp.Subscribe("sess-1", 1, false)
	if err != nil {
		t.Fatalf("subscribe 1: %v", err)
	}
	recv(t, chWatcher) // sees participant 1 connect

	unsub()

	ev := recv(t, chWatcher)
	if ev.Kind != storage.EventTimiteDisconnected || *ev.TimiteDisconnected != 1 {
		t.Fatalf("ev = %+v, want TimiteDisconnected(1)", ev)
	}
}

func TestTimelineReturnsPersistedEvents(t *testing.T) {
	sp, _ := openSpace(t)

	if err := sp.PublishCallAbility(&storage.CallAbility{CallAbilityID: 1, SenderID: 1, ParticipantID: 2, Name: "echo"}); err != nil {
		t.Fatalf("publish call ability: %v", err)
	}

	events, err := sp.Timeline(0, 10)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(events) != 1 || events[0].Kind != storage.EventCallAbility {
		t.Fatalf("events = %+v, want one CallAbility event", events)
	}
}

func TestEventIDsSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tim.db")

	s1, err := storage.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sp1, _ := New(s1)
	if err := sp1.PublishMessage(&storage.Message{ID: 1, SenderID: 1, Content: "a"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	events, _ := sp1.Timeline(0, 10)
	firstID := events[0].Metadata.ID
	s1.Close()

	s2, err := storage.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	sp2, err := New(s2)
	if err != nil {
		t.Fatalf("new space after restart: %v", err)
	}
	if err := sp2.PublishMessage(&storage.Message{ID: 2, SenderID: 1, Content: "b"}); err != nil {
		t.Fatalf("publish after restart: %v", err)
	}
	events, _ = sp2.Timeline(0, 10)
	last := events[len(events)-1]
	if len(events) != 2 || last.Metadata.ID <= firstID {
		t.Fatalf("events after restart = %+v, want 2 entries with last id > %d", events, firstID)
	}
}
