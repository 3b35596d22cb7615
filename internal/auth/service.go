// Package auth owns the OAuth2 consent flow and the session guard that maps
// the browser's cookie to stored Drive credentials, refreshing them as needed.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/medhub/gallery-backend/internal/session"
	"golang.org/x/oauth2"
)

// stateTTL bounds how long a minted consent URL stays redeemable.
const stateTTL = 10 * time.Minute

// Service drives the OAuth2 flow against the provider and keeps the
// credential store current.
type Service struct {
	oauthConfig *oauth2.Config
	sessions    *session.Store

	mu     sync.Mutex
	states map[string]time.Time
}

// NewService creates an auth Service. The oauth2.Config is built by the
// caller from environment configuration.
func NewService(oauthConfig *oauth2.Config, sessions *session.Store) *Service {
	return &Service{
		oauthConfig: oauthConfig,
		sessions:    sessions,
		states:      make(map[string]time.Time),
	}
}

// AuthURL mints a one-time state and returns the provider consent URL carrying
// it. Offline access plus forced re-consent so the provider always issues a
// refresh token.
func (s *Service) AuthURL() (string, error) {
	state, err := generateState()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.states[state] = time.Now().Add(stateTTL)
	s.mu.Unlock()

	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// ConsumeState redeems a callback state. Each state works exactly once and
// only within its TTL.
func (s *Service) ConsumeState(state string) bool {
	if state == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return time.Now().Before(expiry)
}

// Exchange trades an authorization code for a token set.
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return s.oauthConfig.Exchange(ctx, code)
}

// Establish stores the token set under the session id, replacing any
// previous set for that session.
func (s *Service) Establish(sessionID string, tok *oauth2.Token) {
	s.sessions.Put(sessionID, tok)
}

// TokenSource returns a refreshing token source seeded with tok.
func (s *Service) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return s.oauthConfig.TokenSource(ctx, tok)
}

// Freshen resolves the session's credentials and refreshes the access token
// if it is at or near expiry. A refreshed token is written back to the store;
// the refresh token is preserved when the provider omits a new one. Returns
// session.ErrNotFound for unknown sessions and the provider error when the
// refresh itself fails.
func (s *Service) Freshen(ctx context.Context, sessionID string) (*oauth2.Token, error) {
	stored, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	fresh, err := s.oauthConfig.TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, err
	}

	if fresh.AccessToken != stored.AccessToken || !fresh.Expiry.Equal(stored.Expiry) {
		if fresh.RefreshToken == "" {
			fresh.RefreshToken = stored.RefreshToken
		}
		s.sessions.Put(sessionID, fresh)
	}
	return fresh, nil
}

// generateState returns 32 bytes from crypto/rand, hex encoded.
func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
