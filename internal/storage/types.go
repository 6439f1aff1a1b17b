package storage

import "time"

// Participant is a registered timite: id plus a descriptive, non-unique nick.
type Participant struct {
	ID   uint64 `json:"id"`
	Nick string `json:"nick"`
}

// Ability is a named operation a participant advertises it can perform.
type Ability struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []AbilityParam `json:"params,omitempty"`
}

// AbilityParam describes one named input to an Ability.
type AbilityParam struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StoredAbilities is the per-participant ability-set record; the set is
// replaced wholesale on every declaration.
type StoredAbilities struct {
	ParticipantID uint64    `json:"participant_id"`
	Abilities     []Ability `json:"abilities"`
}

// ClientInfo describes the connecting client, supplied at session creation.
type ClientInfo struct {
	Kind    string `json:"kind,omitempty"`
	Version string `json:"version,omitempty"`
}

// Session is an opaque bearer credential bound immutably to a participant id.
type Session struct {
	Key           string     `json:"key"`
	ParticipantID uint64     `json:"timite_id"`
	CreatedAt     time.Time  `json:"created_at"`
	ClientInfo    ClientInfo `json:"client_info"`
}

// Message is a broadcast chat message.
type Message struct {
	ID       uint64 `json:"id"`
	SenderID uint64 `json:"sender_id"`
	Content  string `json:"content"`
}

// CallAbility is a remote ability invocation, persisted once assigned an id.
type CallAbility struct {
	CallAbilityID uint64 `json:"call_ability_id"`
	SenderID      uint64 `json:"sender_id"`
	ParticipantID uint64 `json:"timite_id"`
	Name          string `json:"name"`
	Payload       string `json:"payload"`
}

// CallAbilityOutcome answers a CallAbility. Exactly one of Payload/Error is
// meaningful.
type CallAbilityOutcome struct {
	CallAbilityID uint64 `json:"call_ability_id"`
	Payload       string `json:"payload,omitempty"`
	Error         string `json:"error,omitempty"`
}

// EventKind discriminates SpaceEvent.Data's logical oneof.
type EventKind string

const (
	EventNewMessage          EventKind = "new_message"
	EventCallAbility         EventKind = "call_ability"
	EventCallAbilityOutcome  EventKind = "call_ability_outcome"
	EventTimiteConnected     EventKind = "timite_connected"
	EventTimiteDisconnected  EventKind = "timite_disconnected"
)

// EventMetadata carries the global, gap-free event id and emission time.
type EventMetadata struct {
	ID         uint64    `json:"id"`
	EmittedAt  time.Time `json:"emitted_at"`
}

// SpaceEvent is one entry in the global, totally-ordered event timeline.
type SpaceEvent struct {
	Metadata EventMetadata `json:"metadata"`
	Kind     EventKind     `json:"kind"`

	// Origin is the participant id that caused this event, used for the
	// self-delivery filter. Zero/absent for presence events, which are never
	// filtered (see DESIGN.md Open Question 1).
	Origin uint64 `json:"origin,omitempty"`

	NewMessage          *Message             `json:"new_message,omitempty"`
	CallAbility         *CallAbility         `json:"call_ability,omitempty"`
	CallAbilityOutcome  *CallAbilityOutcome  `json:"call_ability_outcome,omitempty"`
	TimiteConnected     *uint64              `json:"timite_connected,omitempty"`
	TimiteDisconnected  *uint64              `json:"timite_disconnected,omitempty"`
}
