package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/synapse/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeAccountLocked      = "account_locked"
	ErrorCodeMFARequired        = "mfa_required"
	ErrorCodeInvalidMFACode     = "invalid_mfa_code"
	ErrorCodeMFAAlreadyEnabled  = "mfa_already_enabled"
	ErrorCodeMFANotEnabled      = "mfa_not_enabled"
	ErrorCodeMFANotPending      = "mfa_not_pending"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeRateLimitExceeded  = "rate_limit_exceeded"
	ErrorCodeServerError        = "server_error"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is the error body every endpoint returns. It is used both by the
// server (to write responses) and by the SDK client (to report them).
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the stable machine-readable error code (e.g. "account_locked")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`

	// MFARequired is set on the login response that asks for a second factor
	MFARequired bool `json:"mfa_required,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, e.StatusCode, e)
}

// Is matches APIErrors by code so callers can use errors.Is(err, authsdk.ErrAccountLocked).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request body is malformed",
	}

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	// ErrAccountLocked never says when the lock ends.
	ErrAccountLocked = &APIError{
		StatusCode:  http.StatusLocked,
		Code:        ErrorCodeAccountLocked,
		Description: "account is temporarily locked, try again later",
	}

	ErrMFARequired = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeMFARequired,
		Description: "an MFA code is required to complete login",
		MFARequired: true,
	}

	// ErrInvalidMFACode is the login variant (401).
	ErrInvalidMFACode = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidMFACode,
		Description: "invalid MFA code",
	}

	// ErrInvalidMFACodeSettings is returned by the MFA management endpoints (400).
	ErrInvalidMFACodeSettings = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidMFACode,
		Description: "invalid MFA code",
	}

	ErrMFAAlreadyEnabled = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeMFAAlreadyEnabled,
		Description: "MFA is already enabled for this account",
	}

	ErrMFANotEnabled = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeMFANotEnabled,
		Description: "MFA is not enabled for this account",
	}

	ErrMFANotPending = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeMFANotPending,
		Description: "no MFA setup is pending, call setup-mfa first",
	}

	// ErrInvalidToken is returned when the session token is missing, invalid, expired or revoked.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the session token is missing, invalid, expired or revoked",
	}

	// ErrServerError never carries internals.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// IsMFARequired reports whether err asks the caller to retry login with an MFA code.
func IsMFARequired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.MFARequired
}

// ============================================================================
// Validation Errors
// ============================================================================

// ValidationError is a 400 response listing per-field problems.
type ValidationError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func NewValidationError(details map[string]string) *ValidationError {
	return &ValidationError{
		Code:    ErrorCodeValidation,
		Message: "request validation failed",
		Details: details,
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %v", e.Code, e.Message, e.Details)
}

func (e *ValidationError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusBadRequest, e)
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into *APIError or *ValidationError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	var valErr ValidationError
	if err := json.Unmarshal(body, &valErr); err == nil && valErr.Code != "" {
		return &valErr
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
