package storage

import "fmt"

// StoreParticipant persists a participant record under its id.
func (s *Store) StoreParticipant(p *Participant) error {
	return s.Put(FamilyData, ParticipantKey(p.ID), p)
}

// FetchParticipant reads a participant by id. Returns ErrNotFound if unknown.
func (s *Store) FetchParticipant(id uint64) (*Participant, error) {
	var p Participant
	if err := s.Get(FamilyData, ParticipantKey(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FetchMaxParticipantID returns the highest persisted participant id, or 0 if
// none exist yet.
func (s *Store) FetchMaxParticipantID() (uint64, error) {
	var p Participant
	err := s.MaxUnderPrefix(FamilyData, prefixParticipant, &p)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

// StoreAbilities replaces a participant's ability set wholesale.
func (s *Store) StoreAbilities(participantID uint64, abilities []Ability) error {
	rec := StoredAbilities{ParticipantID: participantID, Abilities: abilities}
	return s.Put(FamilyData, ParticipantSkillsKey(participantID), &rec)
}

// FetchAbilities reads a participant's current ability set. Returns an empty
// slice, not an error, if the participant never declared any.
func (s *Store) FetchAbilities(participantID uint64) ([]Ability, error) {
	var rec StoredAbilities
	err := s.Get(FamilyData, ParticipantSkillsKey(participantID), &rec)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.Abilities, nil
}

// ParticipantAbilities pairs a participant with its declared ability set, the
// shape ListAbilities returns.
type ParticipantAbilities struct {
	Participant Participant `json:"participant"`
	Abilities   []Ability   `json:"abilities"`
}

// ListAbilities joins every declared ability-set record with its owning
// participant, skipping any set whose participant record is missing.
func (s *Store) ListAbilities() ([]ParticipantAbilities, error) {
	var out []ParticipantAbilities
	err := s.ScanPrefix(FamilyData, prefixParticipantSkills,
		func(data []byte) (any, error) {
			var rec StoredAbilities
			if err := decodeJSON(data, &rec); err != nil {
				return nil, err
			}
			return rec, nil
		},
		func(v any) error {
			rec := v.(StoredAbilities)
			p, err := s.FetchParticipant(rec.ParticipantID)
			if err == ErrNotFound {
				return nil
			}
			if err != nil {
				return err
			}
			out = append(out, ParticipantAbilities{Participant: *p, Abilities: rec.Abilities})
			return nil
		},
	)
	return out, err
}

// StoreSession persists a session in the secrets family, keyed by its token.
func (s *Store) StoreSession(sess *Session) error {
	return s.Put(FamilySecrets, SessionKey(sess.Key), sess)
}

// FetchSession looks up a session by its bearer key. Returns ErrNotFound if
// absent.
func (s *Store) FetchSession(key string) (*Session, error) {
	var sess Session
	if err := s.Get(FamilySecrets, SessionKey(key), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// StoreMessage persists a message in the write-once log family.
func (s *Store) StoreMessage(m *Message) error {
	return s.Put(FamilyLog, MessageKey(m.ID), m)
}

// FetchMaxMessageID returns the highest persisted message id, or 0 if none
// exist yet.
func (s *Store) FetchMaxMessageID() (uint64, error) {
	var m Message
	err := s.MaxUnderPrefix(FamilyLog, prefixMessage, &m)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

// StoreCallAbility persists a call invocation in the write-once log family.
func (s *Store) StoreCallAbility(c *CallAbility) error {
	return s.Put(FamilyLog, AbilityCallKey(c.CallAbilityID), c)
}

// FetchCallAbility reads a call invocation by id. Returns ErrNotFound if
// unknown.
func (s *Store) FetchCallAbility(id uint64) (*CallAbility, error) {
	var c CallAbility
	if err := s.Get(FamilyLog, AbilityCallKey(id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// FetchMaxCallAbilityID returns the highest persisted call-ability id, or 0
// if none exist yet.
func (s *Store) FetchMaxCallAbilityID() (uint64, error) {
	var c CallAbility
	err := s.MaxUnderPrefix(FamilyLog, prefixAbilityCall, &c)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return c.CallAbilityID, nil
}

// StoreSpaceEvent appends an event to the write-once event log, keyed by its
// global event id.
func (s *Store) StoreSpaceEvent(ev *SpaceEvent) error {
	return s.Put(FamilyLog, EventKey(ev.Metadata.ID), ev)
}

// FetchMaxEventID returns the highest persisted event id, or 0 if the event
// log is empty.
func (s *Store) FetchMaxEventID() (uint64, error) {
	var ev SpaceEvent
	err := s.MaxUnderPrefix(FamilyLog, prefixEvent, &ev)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return ev.Metadata.ID, nil
}

// Timeline returns up to size events from the historical log, paginating
// deterministically. offset==0 requests the most recent size events (a tail
// window); offset>0 requests size events starting at that event id
// (inclusive). size==0 always returns no events. Mirrors the original
// implementation's timeline() method exactly.
func (s *Store) Timeline(offset uint64, size uint32) ([]SpaceEvent, error) {
	if size == 0 {
		return nil, nil
	}

	decode := func(data []byte) (any, error) {
		var ev SpaceEvent
		if err := decodeJSON(data, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	}

	var out []SpaceEvent
	collect := func(v any) error {
		out = append(out, v.(SpaceEvent))
		return nil
	}

	if offset == 0 {
		var last SpaceEvent
		err := s.MaxUnderPrefix(FamilyLog, prefixEvent, &last)
		if err == ErrNotFound {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("timeline: %w", err)
		}
		span := uint64(size) - 1
		startID := saturatingSub(last.Metadata.ID, span)
		start := EventKey(startID)
		if err := s.RangeFrom(FamilyLog, prefixEvent, start, int(size), decode, collect); err != nil {
			return nil, err
		}
		return out, nil
	}

	start := EventKey(offset)
	if err := s.RangeFrom(FamilyLog, prefixEvent, start, int(size), decode, collect); err != nil {
		return nil, err
	}
	return out, nil
}

func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}
