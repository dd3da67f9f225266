package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/synapse/internal/auth/service"
	"github.com/aussiebroadwan/synapse/pkg/authsdk"
	"github.com/aussiebroadwan/synapse/pkg/httpx"
	"github.com/aussiebroadwan/synapse/pkg/slogx"
)

// serviceErrors maps service sentinels to their wire errors. Order matters
// only in that the first match wins.
var serviceErrors = []struct {
	err error
	api *authsdk.APIError
}{
	{service.ErrInvalidCredentials, authsdk.ErrInvalidCredentials},
	{service.ErrAccountLocked, authsdk.ErrAccountLocked},
	{service.ErrMFARequired, authsdk.ErrMFARequired},
	{service.ErrInvalidMFACode, authsdk.ErrInvalidMFACode},
	{service.ErrMFAAlreadyEnabled, authsdk.ErrMFAAlreadyEnabled},
	{service.ErrMFANotEnabled, authsdk.ErrMFANotEnabled},
	{service.ErrMFANotPending, authsdk.ErrMFANotPending},
	{service.ErrInvalidToken, authsdk.ErrInvalidToken},
	{service.ErrUserNotFound, authsdk.ErrInvalidToken},
}

// writeServiceError writes the wire error for err. Anything unmapped is
// logged and reported as server_error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			m.api.WriteError(w)
			return
		}
	}
	slogx.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
	authsdk.ErrServerError.WriteError(w)
}

// writeMFASettingsError is writeServiceError for the MFA management
// endpoints, where a wrong code is a 400 rather than a login failure.
func writeMFASettingsError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrInvalidMFACode) {
		authsdk.ErrInvalidMFACodeSettings.WriteError(w)
		return
	}
	writeServiceError(w, r, err)
}

// decodeRequest reads and validates a JSON body, writing the error response
// itself when it returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		slogx.FromContext(r.Context()).Warn("failed to parse request", "err", err)
		authsdk.ErrInvalidRequest.WriteError(w)
		return false
	}
	if details := httpx.ValidateStruct(v); details != nil {
		authsdk.NewValidationError(details).WriteError(w)
		return false
	}
	return true
}
