// Package session holds the per-browser-session OAuth credentials.
//
// The store is process-lifetime only: credentials are lost on restart and the
// user re-runs the consent flow. It is always passed in explicitly, never
// reached through package-level state.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNotFound is returned when no credentials exist for a session id.
var ErrNotFound = errors.New("session not found")

// Store maps opaque session identifiers to OAuth2 token sets. Safe for
// concurrent use by request handlers.
type Store struct {
	mu     sync.RWMutex
	tokens map[string]*oauth2.Token
}

// NewStore returns an empty credential store.
func NewStore() *Store {
	return &Store{tokens: make(map[string]*oauth2.Token)}
}

// Get returns a copy of the token set stored for the session id.
func (s *Store) Get(sessionID string) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, ok := s.tokens[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tok
	return &cp, nil
}

// Put stores the token set for the session id, replacing any previous set.
// There is at most one live token set per session.
func (s *Store) Put(sessionID string, tok *oauth2.Token) {
	cp := *tok

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = &cp
}

// Len returns the number of sessions with stored credentials.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// NewSessionID returns a fresh unguessable session identifier: 32 bytes from
// crypto/rand, hex encoded.
func NewSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
