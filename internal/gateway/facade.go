// Package gateway is the thin stateless API facade: it validates request
// shape, extracts the caller's session, and delegates to the core services.
package gateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sherzodv/tim/internal/ability"
	"github.com/sherzodv/tim/internal/identity"
	"github.com/sherzodv/tim/internal/message"
	"github.com/sherzodv/tim/internal/session"
	"github.com/sherzodv/tim/internal/space"
	"github.com/sherzodv/tim/internal/storage"
)

// Facade wires the core services together behind the method surface named
// in spec.md §6.
type Facade struct {
	identity  *identity.Registry
	sessions  *session.Manager
	space     *space.Space
	messages  *message.Service
	abilities *ability.Coordinator
}

// NewFacade wires already-constructed services into a Facade.
func NewFacade(reg *identity.Registry, sessions *session.Manager, sp *space.Space, messages *message.Service, abilities *ability.Coordinator) *Facade {
	return &Facade{identity: reg, sessions: sessions, space: sp, messages: messages, abilities: abilities}
}

// TrustedRegister creates a new participant and issues its first session.
func (f *Facade) TrustedRegister(nick string, clientInfo storage.ClientInfo) (*storage.Session, error) {
	if strings.TrimSpace(nick) == "" {
		return nil, &APIError{Kind: InvalidArgument, Err: errors.New("nick is required")}
	}
	p, err := f.identity.Create(nick)
	if err != nil {
		return nil, &APIError{Kind: Storage, Err: err}
	}
	sess, err := f.sessions.Create(p.ID, clientInfo)
	if err != nil {
		return nil, &APIError{Kind: Storage, Err: err}
	}
	return sess, nil
}

// TrustedConnect issues a new session for an existing participant.
func (f *Facade) TrustedConnect(participantID uint64, clientInfo storage.ClientInfo) (*storage.Session, error) {
	if _, err := f.identity.Get(participantID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &APIError{Kind: TimiteNotFound, Err: fmt.Errorf("timite %d not found", participantID)}
		}
		return nil, &APIError{Kind: Storage, Err: err}
	}
	sess, err := f.sessions.Create(participantID, clientInfo)
	if err != nil {
		return nil, &APIError{Kind: Storage, Err: err}
	}
	return sess, nil
}

// DeclareAbilities replaces the session's participant's ability set.
func (f *Facade) DeclareAbilities(sess *storage.Session, abilities []storage.Ability) error {
	if err := f.identity.DeclareAbilities(sess.ParticipantID, abilities); err != nil {
		return &APIError{Kind: Storage, Err: err}
	}
	return nil
}

// ListAbilities returns every declared ability set joined with its owner.
func (f *Facade) ListAbilities() ([]storage.ParticipantAbilities, error) {
	list, err := f.identity.ListAbilities()
	if err != nil {
		return nil, &APIError{Kind: Storage, Err: err}
	}
	return list, nil
}

// SendMessage broadcasts content on behalf of sess's participant.
func (f *Facade) SendMessage(sess *storage.Session, content string) (*storage.Message, error) {
	msg, err := f.messages.Send(sess.ParticipantID, content)
	if err != nil {
		if errors.Is(err, message.ErrEmptyContent) {
			return nil, &APIError{Kind: InvalidArgument, Err: err}
		}
		return nil, &APIError{Kind: Storage, Err: err}
	}
	return msg, nil
}

// SendCallAbility invokes targetID's ability on behalf of sess's participant.
func (f *Facade) SendCallAbility(sess *storage.Session, targetID uint64, name, payload string) (*storage.CallAbility, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &APIError{Kind: InvalidArgument, Err: errors.New("ability name is required")}
	}
	call, err := f.abilities.Invoke(sess.ParticipantID, targetID, name, payload)
	if err != nil {
		return nil, &APIError{Kind: Storage, Err: err}
	}
	return call, nil
}

// SendCallAbilityOutcome submits outcome on behalf of sess's participant.
func (f *Facade) SendCallAbilityOutcome(sess *storage.Session, outcome *storage.CallAbilityOutcome) error {
	err := f.abilities.SubmitOutcome(sess.ParticipantID, outcome)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ability.ErrCallMissing):
		return &APIError{Kind: CallAbilityMissing, Err: err}
	case errors.Is(err, ability.ErrTargetMismatch):
		return &APIError{Kind: CallAbilityTargetMismatch, Err: err}
	default:
		return &APIError{Kind: Storage, Err: err}
	}
}

// Subscribe attaches sess's participant to the live event stream.
func (f *Facade) Subscribe(sess *storage.Session, receiveOwn bool) (<-chan storage.SpaceEvent, func(), error) {
	ch, unsub, err := f.space.Subscribe(sess.Key, sess.ParticipantID, receiveOwn)
	if err != nil {
		return nil, nil, &APIError{Kind: Storage, Err: err}
	}
	return ch, unsub, nil
}

// GetTimeline reads a page of the historical event log.
func (f *Facade) GetTimeline(offset uint64, size uint32) ([]storage.SpaceEvent, error) {
	events, err := f.space.Timeline(offset, size)
	if err != nil {
		return nil, &APIError{Kind: Storage, Err: err}
	}
	return events, nil
}

// ResolveSession resolves a bearer key to its session record.
func (f *Facade) ResolveSession(key string) (*storage.Session, error) {
	sess, err := f.sessions.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &APIError{Kind: Unauthenticated, Err: errors.New("unknown session key")}
		}
		return nil, &APIError{Kind: Storage, Err: err}
	}
	return sess, nil
}
