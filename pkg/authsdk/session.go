package authsdk

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Session is an authenticated session. Tokens are long-lived; call Refresh
// to extend one before it expires.
type Session struct {
	client *SDKClient

	mu          sync.RWMutex
	token       string
	expiresAt   time.Time
	mfaVerified bool
	user        UserSummary
}

func newSession(client *SDKClient, resp *SessionResponse) *Session {
	s := &Session{client: client}
	s.update(resp)
	return s
}

func (s *Session) update(resp *SessionResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = resp.Token
	s.expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	s.mfaVerified = resp.MFAVerified
	s.user = resp.User
}

// Token returns the current session token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt is the client-side estimate of the token expiry.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// MFAVerified reports whether the session satisfied a second factor.
func (s *Session) MFAVerified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mfaVerified
}

// User returns the user summary from the last login or refresh.
func (s *Session) User() UserSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Refresh swaps the session token for a fresh one.
func (s *Session) Refresh(ctx context.Context) error {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/auth/refresh", s.Token(), nil)
	if err != nil {
		return err
	}

	var sessionResp SessionResponse
	if err := decodeJSON(resp, &sessionResp, http.StatusOK); err != nil {
		return err
	}
	s.update(&sessionResp)
	return nil
}

// Verify asks the service whether the token is still valid.
func (s *Session) Verify(ctx context.Context) (*VerifyResponse, error) {
	resp, err := s.client.doRequest(ctx, http.MethodGet, "/v1/auth/verify", s.Token(), nil)
	if err != nil {
		return nil, err
	}

	var verifyResp VerifyResponse
	if err := decodeJSON(resp, &verifyResp, http.StatusOK); err != nil {
		return nil, err
	}
	return &verifyResp, nil
}

// Logout revokes the token when the service supports revocation. The
// session should be discarded either way.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/auth/logout", s.Token(), nil)
	if err != nil {
		return err
	}

	var msg MessageResponse
	return decodeJSON(resp, &msg, http.StatusOK)
}
