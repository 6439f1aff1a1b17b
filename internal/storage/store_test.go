package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "tim.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParticipantRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.FetchParticipant(1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := &Participant{ID: 1, Nick: "alpha"}
	if err := s.StoreParticipant(p); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := s.FetchParticipant(1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Nick != "alpha" {
		t.Fatalf("nick = %q, want alpha", got.Nick)
	}

	max, err := s.FetchMaxParticipantID()
	if err != nil || max != 1 {
		t.Fatalf("max = %d, %v, want 1, nil", max, err)
	}

	if err := s.StoreParticipant(&Participant{ID: 2, Nick: "beta"}); err != nil {
		t.Fatalf("store 2: %v", err)
	}
	max, err = s.FetchMaxParticipantID()
	if err != nil || max != 2 {
		t.Fatalf("max after second insert = %d, %v, want 2, nil", max, err)
	}
}

func TestAbilitiesReplaceAtomically(t *testing.T) {
	s := openTestStore(t)
	s.StoreParticipant(&Participant{ID: 1, Nick: "alpha"})

	if err := s.StoreAbilities(1, []Ability{{Name: "echo"}}); err != nil {
		t.Fatalf("store abilities: %v", err)
	}
	got, err := s.FetchAbilities(1)
	if err != nil || len(got) != 1 || got[0].Name != "echo" {
		t.Fatalf("abilities = %+v, %v", got, err)
	}

	if err := s.StoreAbilities(1, []Ability{{Name: "greet"}, {Name: "sum"}}); err != nil {
		t.Fatalf("store abilities again: %v", err)
	}
	got, err = s.FetchAbilities(1)
	if err != nil || len(got) != 2 {
		t.Fatalf("abilities after replace = %+v, %v, want 2 entries", got, err)
	}
}

func TestListAbilitiesSkipsMissingParticipant(t *testing.T) {
	s := openTestStore(t)
	s.StoreParticipant(&Participant{ID: 1, Nick: "alpha"})
	s.StoreAbilities(1, []Ability{{Name: "echo"}})
	s.StoreAbilities(2, []Ability{{Name: "orphan"}})

	list, err := s.ListAbilities()
	if err != nil {
		t.Fatalf("list abilities: %v", err)
	}
	if len(list) != 1 || list[0].Participant.ID != 1 {
		t.Fatalf("list = %+v, want exactly participant 1", list)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	sess := &Session{Key: "deadbeef", ParticipantID: 7, CreatedAt: time.Now()}
	if err := s.StoreSession(sess); err != nil {
		t.Fatalf("store session: %v", err)
	}
	got, err := s.FetchSession("deadbeef")
	if err != nil {
		t.Fatalf("fetch session: %v", err)
	}
	if got.ParticipantID != 7 {
		t.Fatalf("participant id = %d, want 7", got.ParticipantID)
	}
	if _, err := s.FetchSession("nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCallAbilityMaxID(t *testing.T) {
	s := openTestStore(t)
	max, err := s.FetchMaxCallAbilityID()
	if err != nil || max != 0 {
		t.Fatalf("empty max = %d, %v, want 0, nil", max, err)
	}

	s.StoreCallAbility(&CallAbility{CallAbilityID: 5, SenderID: 1, ParticipantID: 2, Name: "echo"})
	max, err = s.FetchMaxCallAbilityID()
	if err != nil || max != 5 {
		t.Fatalf("max = %d, %v, want 5, nil", max, err)
	}

	got, err := s.FetchCallAbility(5)
	if err != nil || got.Name != "echo" {
		t.Fatalf("fetch call ability: %+v, %v", got, err)
	}
}

func TestTimelineEmptyLog(t *testing.T) {
	s := openTestStore(t)
	events, err := s.Timeline(0, 10)
	if err != nil || len(events) != 0 {
		t.Fatalf("events = %v, %v, want none", events, err)
	}
}

func TestTimelineSizeZero(t *testing.T) {
	s := openTestStore(t)
	s.StoreSpaceEvent(&SpaceEvent{Metadata: EventMetadata{ID: 0}, Kind: EventNewMessage})
	events, err := s.Timeline(0, 0)
	if err != nil || events != nil {
		t.Fatalf("events = %v, %v, want nil", events, err)
	}
}

func TestTimelineTailWindow(t *testing.T) {
	s := openTestStore(t)
	for i := uint64(0); i < 5; i++ {
		s.StoreSpaceEvent(&SpaceEvent{Metadata: EventMetadata{ID: i}, Kind: EventNewMessage})
	}

	events, err := s.Timeline(0, 2)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(events) != 2 || events[0].Metadata.ID != 3 || events[1].Metadata.ID != 4 {
		t.Fatalf("events = %+v, want ids [3 4]", events)
	}
}

func TestTimelineFromOffset(t *testing.T) {
	s := openTestStore(t)
	for i := uint64(0); i < 5; i++ {
		s.StoreSpaceEvent(&SpaceEvent{Metadata: EventMetadata{ID: i}, Kind: EventNewMessage})
	}

	events, err := s.Timeline(2, 2)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(events) != 2 || events[0].Metadata.ID != 2 || events[1].Metadata.ID != 3 {
		t.Fatalf("events = %+v, want ids [2 3]", events)
	}
}

func TestTimelineTailWindowShorterThanRequestedSize(t *testing.T) {
	s := openTestStore(t)
	for i := uint64(0); i < 3; i++ {
		s.StoreSpaceEvent(&SpaceEvent{Metadata: EventMetadata{ID: i}, Kind: EventNewMessage})
	}

	events, err := s.Timeline(0, 10)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %+v, want 3 entries", events)
	}
}
