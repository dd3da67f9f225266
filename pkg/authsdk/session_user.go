package authsdk

import (
	"context"
	"net/http"
)

// UpdatePreferences applies a partial preferences update and returns the
// stored result.
func (s *Session) UpdatePreferences(ctx context.Context, req PreferencesRequest) (*Preferences, error) {
	resp, err := s.client.doRequest(ctx, http.MethodPut, "/v1/auth/preferences", s.Token(), req)
	if err != nil {
		return nil, err
	}

	var prefsResp PreferencesResponse
	if err := decodeJSON(resp, &prefsResp, http.StatusOK); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user.Preferences = prefsResp.Preferences
	s.mu.Unlock()

	return &prefsResp.Preferences, nil
}
