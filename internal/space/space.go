// Package space is the event bus: the single authority for event ordering,
// persistence, subscriber fan-out, and presence tracking.
package space

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sherzodv/tim/internal/storage"
)

// BufferSize is the bounded per-subscriber delivery queue capacity.
const BufferSize = 10

// CleanupInterval is how often the background sweep prunes subscribers whose
// receiving end has gone away without an explicit Unsubscribe.
const CleanupInterval = 60 * time.Second

// subscriber is one live SubscribeToSpace attachment.
type subscriber struct {
	sessionKey    string
	participantID uint64
	receiveOwn    bool
	ch            chan storage.SpaceEvent
	done          chan struct{}
	closeOnce     sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Space is the event bus core.
type Space struct {
	store   *storage.Store
	counter atomic.Uint64

	mu   sync.RWMutex
	subs map[string]*subscriber
}

// New seeds the event-id counter from the highest persisted event id so the
// first id assigned after restart is strictly greater than any persisted one.
func New(store *storage.Store) (*Space, error) {
	maxID, err := store.FetchMaxEventID()
	if err != nil {
		return nil, fmt.Errorf("space: seed event counter: %w", err)
	}
	sp := &Space{
		store: store,
		subs:  make(map[string]*subscriber),
	}
	sp.counter.Store(maxID)
	return sp, nil
}

func (sp *Space) nextEventID() uint64 {
	return sp.counter.Add(1)
}

func (sp *Space) metadata() storage.EventMetadata {
	return storage.EventMetadata{ID: sp.nextEventID(), EmittedAt: time.Now().UTC()}
}

// Subscribe registers a new subscriber for sessionKey/participantID and
// returns the channel it will receive events on, plus an Unsubscribe
// function the caller must invoke when the attachment ends (connection
// close, context cancellation). If this is the participant's first live
// subscription, a TimiteConnected event is published to everyone.
func (sp *Space) Subscribe(sessionKey string, participantID uint64, receiveOwn bool) (<-chan storage.SpaceEvent, func(), error) {
	sub := &subscriber{
		sessionKey:    sessionKey,
		participantID: participantID,
		receiveOwn:    receiveOwn,
		ch:            make(chan storage.SpaceEvent, BufferSize),
		done:          make(chan struct{}),
	}

	sp.mu.Lock()
	wasPresent := sp.hasLiveSubscriberLocked(participantID)
	sp.subs[sessionKey] = sub
	sp.mu.Unlock()

	unsubscribe := func() {
		sub.close()
		sp.mu.Lock()
		delete(sp.subs, sessionKey)
		stillPresent := sp.hasLiveSubscriberLocked(participantID)
		sp.mu.Unlock()
		if !stillPresent {
			sp.publishPresence(storage.EventTimiteDisconnected, participantID)
		}
	}

	if !wasPresent {
		if err := sp.publishPresence(storage.EventTimiteConnected, participantID); err != nil {
			return nil, nil, err
		}
	}

	return sub.ch, unsubscribe, nil
}

func (sp *Space) hasLiveSubscriberLocked(participantID uint64) bool {
	for _, s := range sp.subs {
		if s.participantID == participantID {
			return true
		}
	}
	return false
}

// PublishMessage persists a NewMessage event and fans it out, skipping
// senderID's own non-receive_own subscribers.
func (sp *Space) PublishMessage(msg *storage.Message) error {
	return sp.publish(storage.EventNewMessage, msg.SenderID, func(ev *storage.SpaceEvent) { ev.NewMessage = msg })
}

// PublishCallAbility persists a CallAbility event and fans it out, skipping
// the caller's own non-receive_own subscribers.
func (sp *Space) PublishCallAbility(call *storage.CallAbility) error {
	return sp.publish(storage.EventCallAbility, call.SenderID, func(ev *storage.SpaceEvent) { ev.CallAbility = call })
}

// PublishCallAbilityOutcome persists a CallAbilityOutcome event and fans it
// out, skipping the submitting participant's own non-receive_own subscribers.
func (sp *Space) PublishCallAbilityOutcome(outcome *storage.CallAbilityOutcome, senderID uint64) error {
	return sp.publish(storage.EventCallAbilityOutcome, senderID, func(ev *storage.SpaceEvent) { ev.CallAbilityOutcome = outcome })
}

func (sp *Space) publishPresence(kind storage.EventKind, participantID uint64) error {
	ev := storage.SpaceEvent{Metadata: sp.metadata(), Kind: kind}
	switch kind {
	case storage.EventTimiteConnected:
		ev.TimiteConnected = &participantID
	case storage.EventTimiteDisconnected:
		ev.TimiteDisconnected = &participantID
	}
	if err := sp.store.StoreSpaceEvent(&ev); err != nil {
		return fmt.Errorf("space: persist presence event: %w", err)
	}
	sp.broadcastAndPrune(&ev, nil)
	return nil
}

func (sp *Space) publish(kind storage.EventKind, senderID uint64, fill func(*storage.SpaceEvent)) error {
	ev := storage.SpaceEvent{Metadata: sp.metadata(), Kind: kind, Origin: senderID}
	fill(&ev)
	if err := sp.store.StoreSpaceEvent(&ev); err != nil {
		return fmt.Errorf("space: persist %s event: %w", kind, err)
	}
	sp.broadcastAndPrune(&ev, &senderID)
	return nil
}

func (sp *Space) publishNoFilter(kind storage.EventKind, fill func(*storage.SpaceEvent)) error {
	ev := storage.SpaceEvent{Metadata: sp.metadata(), Kind: kind}
	fill(&ev)
	if err := sp.store.StoreSpaceEvent(&ev); err != nil {
		return fmt.Errorf("space: persist %s event: %w", kind, err)
	}
	sp.broadcastAndPrune(&ev, nil)
	return nil
}

// broadcastAndPrune delivers ev to every live subscriber (skipping
// skipSender's own subscribers unless they asked for receive_own), then
// removes any subscriber whose receiving end has gone away and synthesizes
// TimiteDisconnected for any participant whose last subscription just ended.
func (sp *Space) broadcastAndPrune(ev *storage.SpaceEvent, skipSender *uint64) {
	snapshot := sp.snapshot()

	var dead []*subscriber
	for _, sub := range snapshot {
		if skipSender != nil && !sub.receiveOwn && sub.participantID == *skipSender {
			continue
		}
		select {
		case sub.ch <- *ev:
		case <-sub.done:
			dead = append(dead, sub)
		default:
			// Full subscriber channel: the receiver isn't keeping up. Don't
			// block every other participant on it — mark it broken instead.
			sub.close()
			dead = append(dead, sub)
		}
	}
	if len(dead) == 0 {
		return
	}

	var disconnectedParticipants []uint64
	sp.mu.Lock()
	seen := make(map[uint64]bool)
	for _, sub := range dead {
		if sp.subs[sub.sessionKey] != sub {
			continue
		}
		delete(sp.subs, sub.sessionKey)
		if seen[sub.participantID] {
			continue
		}
		seen[sub.participantID] = true
		if !sp.hasLiveSubscriberLocked(sub.participantID) {
			disconnectedParticipants = append(disconnectedParticipants, sub.participantID)
		}
	}
	sp.mu.Unlock()

	for _, pid := range disconnectedParticipants {
		sp.publishPresence(storage.EventTimiteDisconnected, pid)
	}
}

// SubscriberCount returns the number of live subscriptions across every
// participant, for liveness/monitoring reporting.
func (sp *Space) SubscriberCount() int {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return len(sp.subs)
}

// LastEventID returns the highest event id assigned so far.
func (sp *Space) LastEventID() uint64 {
	return sp.counter.Load()
}

func (sp *Space) snapshot() []*subscriber {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	out := make([]*subscriber, 0, len(sp.subs))
	for _, s := range sp.subs {
		out = append(out, s)
	}
	return out
}

// Timeline returns a page of the historical event log.
func (sp *Space) Timeline(offset uint64, size uint32) ([]storage.SpaceEvent, error) {
	return sp.store.Timeline(offset, size)
}

// RunCleanup blocks, periodically sweeping subscribers whose done channel
// has fired, until stop is closed. Intended to run as a single background
// goroutine per Space instance.
func (sp *Space) RunCleanup(stop <-chan struct{}) {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sp.sweepClosed()
		case <-stop:
			return
		}
	}
}

func (sp *Space) sweepClosed() {
	var dead []*subscriber
	for _, sub := range sp.snapshot() {
		select {
		case <-sub.done:
			dead = append(dead, sub)
		default:
		}
	}
	if len(dead) == 0 {
		return
	}

	var disconnectedParticipants []uint64
	sp.mu.Lock()
	seen := make(map[uint64]bool)
	for _, sub := range dead {
		if sp.subs[sub.sessionKey] != sub {
			continue
		}
		delete(sp.subs, sub.sessionKey)
		if seen[sub.participantID] {
			continue
		}
		seen[sub.participantID] = true
		if !sp.hasLiveSubscriberLocked(sub.participantID) {
			disconnectedParticipants = append(disconnectedParticipants, sub.participantID)
		}
	}
	sp.mu.Unlock()

	for _, pid := range disconnectedParticipants {
		sp.publishPresence(storage.EventTimiteDisconnected, pid)
	}
}
