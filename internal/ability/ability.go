// Package ability coordinates remote ability invocations: correlation-id
// allocation, call persistence, outcome publication, and target-identity
// enforcement on outcome submission.
package ability

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sherzodv/tim/internal/space"
	"github.com/sherzodv/tim/internal/storage"
)

// ErrCallMissing is returned when an outcome references an unknown call id.
var ErrCallMissing = errors.New("ability: call not found")

// ErrTargetMismatch is returned when the submitting session's participant id
// does not match the call's target.
var ErrTargetMismatch = errors.New("ability: outcome submitter does not match call target")

// Coordinator allocates call ids, persists invocations, and enforces that
// only the invocation's target submits its outcome.
type Coordinator struct {
	store   *storage.Store
	sp      *space.Space
	counter atomic.Uint64
}

// New seeds the call-id allocator from the highest persisted call-ability id.
func New(store *storage.Store, sp *space.Space) (*Coordinator, error) {
	maxID, err := store.FetchMaxCallAbilityID()
	if err != nil {
		return nil, fmt.Errorf("ability: seed id counter: %w", err)
	}
	c := &Coordinator{store: store, sp: sp}
	c.counter.Store(maxID)
	return c, nil
}

// Invoke persists a call targeting targetID and publishes a CallAbility
// event through Space. senderID overwrites any client-supplied sender.
func (c *Coordinator) Invoke(senderID, targetID uint64, name, payload string) (*storage.CallAbility, error) {
	call := &storage.CallAbility{
		CallAbilityID: c.counter.Add(1),
		SenderID:      senderID,
		ParticipantID: targetID,
		Name:          name,
		Payload:       payload,
	}
	if err := c.store.StoreCallAbility(call); err != nil {
		return nil, fmt.Errorf("ability: store call: %w", err)
	}
	if err := c.sp.PublishCallAbility(call); err != nil {
		return nil, fmt.Errorf("ability: publish call: %w", err)
	}
	return call, nil
}

// SubmitOutcome publishes outcome for an existing call, provided senderID
// equals the call's target participant id.
func (c *Coordinator) SubmitOutcome(senderID uint64, outcome *storage.CallAbilityOutcome) error {
	call, err := c.store.FetchCallAbility(outcome.CallAbilityID)
	if err == storage.ErrNotFound {
		return ErrCallMissing
	}
	if err != nil {
		return fmt.Errorf("ability: fetch call: %w", err)
	}
	if call.ParticipantID != senderID {
		return ErrTargetMismatch
	}
	if err := c.sp.PublishCallAbilityOutcome(outcome, senderID); err != nil {
		return fmt.Errorf("ability: publish outcome: %w", err)
	}
	return nil
}
