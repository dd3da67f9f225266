package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the Synapse authentication service.
// It provides access to unauthenticated operations and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login authenticates with email and password, plus an MFA code when the
// account has MFA enabled. Use IsMFARequired to detect the MFA prompt.
func (c *SDKClient) Login(ctx context.Context, email, password, mfaCode string) (*Session, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/login", "", LoginRequest{
		Email:    email,
		Password: password,
		MFACode:  mfaCode,
	})
	if err != nil {
		return nil, err
	}

	var sessionResp SessionResponse
	if err := decodeJSON(resp, &sessionResp, http.StatusOK); err != nil {
		return nil, err
	}

	return newSession(c, &sessionResp), nil
}

// NewSessionFromToken wraps a token obtained elsewhere.
func (c *SDKClient) NewSessionFromToken(token string) *Session {
	return &Session{client: c, token: token}
}
