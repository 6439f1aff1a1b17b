// Package session issues opaque bearer credentials bound immutably to a
// participant id and resolves incoming tokens back to their session record.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sherzodv/tim/internal/storage"
)

// HeaderKey is the header clients present their session token in.
const HeaderKey = "tim-session-key"

// Manager issues and resolves sessions through Storage.
type Manager struct {
	store *storage.Store
}

// New returns a session Manager backed by store.
func New(store *storage.Store) *Manager {
	return &Manager{store: store}
}

// Create issues a fresh session for participant, bound immutably to its id.
func (m *Manager) Create(participantID uint64, clientInfo storage.ClientInfo) (*storage.Session, error) {
	key, err := generateKey()
	if err != nil {
		return nil, fmt.Errorf("session: generate key: %w", err)
	}
	sess := &storage.Session{
		Key:           key,
		ParticipantID: participantID,
		CreatedAt:     time.Now().UTC(),
		ClientInfo:    clientInfo,
	}
	if err := m.store.StoreSession(sess); err != nil {
		return nil, fmt.Errorf("session: create: %w", err)
	}
	return sess, nil
}

// Get resolves a bearer key to its session record. Returns
// storage.ErrNotFound if the key is unknown.
func (m *Manager) Get(key string) (*storage.Session, error) {
	sess, err := m.store.FetchSession(key)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// generateKey returns a 256-bit random token, hex-encoded, as mandated by
// the ≥128-bit entropy requirement on session keys.
func generateKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
