// Package identity is the participant registry: it allocates monotone
// participant ids, persists participant records, and manages per-participant
// ability declarations.
package identity

import (
	"fmt"
	"sync/atomic"

	"github.com/sherzodv/tim/internal/storage"
)

// Registry allocates participant ids and persists participant + ability
// records through Storage.
type Registry struct {
	store  *storage.Store
	nextID atomic.Uint64
}

// New seeds the id allocator from the highest persisted participant id so
// that the first id issued after restart is strictly greater than any
// previously issued one.
func New(store *storage.Store) (*Registry, error) {
	maxID, err := store.FetchMaxParticipantID()
	if err != nil {
		return nil, fmt.Errorf("identity: seed id counter: %w", err)
	}
	r := &Registry{store: store}
	r.nextID.Store(maxID)
	return r, nil
}

// Create registers a new participant with the given nick and persists it.
func (r *Registry) Create(nick string) (*storage.Participant, error) {
	p := &storage.Participant{ID: r.nextID.Add(1), Nick: nick}
	if err := r.store.StoreParticipant(p); err != nil {
		return nil, fmt.Errorf("identity: create participant: %w", err)
	}
	return p, nil
}

// Get looks up a participant by id.
func (r *Registry) Get(id uint64) (*storage.Participant, error) {
	p, err := r.store.FetchParticipant(id)
	if err != nil {
		return nil, fmt.Errorf("identity: get participant %d: %w", id, err)
	}
	return p, nil
}

// DeclareAbilities replaces a participant's ability set atomically; the
// latest declaration wins.
func (r *Registry) DeclareAbilities(participantID uint64, abilities []storage.Ability) error {
	if err := r.store.StoreAbilities(participantID, abilities); err != nil {
		return fmt.Errorf("identity: declare abilities for %d: %w", participantID, err)
	}
	return nil
}

// ListAbilities returns every participant's declared ability set, joined
// with the owning participant record.
func (r *Registry) ListAbilities() ([]storage.ParticipantAbilities, error) {
	list, err := r.store.ListAbilities()
	if err != nil {
		return nil, fmt.Errorf("identity: list abilities: %w", err)
	}
	return list, nil
}
