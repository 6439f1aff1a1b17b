// Package message allocates message ids, persists messages, and publishes
// NewMessage events through Space.
package message

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/sherzodv/tim/internal/space"
	"github.com/sherzodv/tim/internal/storage"
)

// ErrEmptyContent is returned when a message's content is empty or
// whitespace-only.
var ErrEmptyContent = errors.New("message: content must not be empty")

// Service allocates message ids and publishes messages through Space.
type Service struct {
	store   *storage.Store
	sp      *space.Space
	counter atomic.Uint64
}

// New seeds the message-id allocator from the highest persisted message id.
func New(store *storage.Store, sp *space.Space) (*Service, error) {
	maxID, err := store.FetchMaxMessageID()
	if err != nil {
		return nil, fmt.Errorf("message: seed id counter: %w", err)
	}
	s := &Service{store: store, sp: sp}
	s.counter.Store(maxID)
	return s, nil
}

// Send persists and publishes a new message on behalf of senderID, which
// must already be the authenticated session's participant id.
func (s *Service) Send(senderID uint64, content string) (*storage.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	msg := &storage.Message{
		ID:       s.counter.Add(1),
		SenderID: senderID,
		Content:  content,
	}
	if err := s.store.StoreMessage(msg); err != nil {
		return nil, fmt.Errorf("message: store: %w", err)
	}
	if err := s.sp.PublishMessage(msg); err != nil {
		return nil, fmt.Errorf("message: publish: %w", err)
	}
	return msg, nil
}
