package authsdk

import (
	"github.com/aussiebroadwan/synapse/pkg/jwtx"
)

// ============================================================================
// Auth Types
// ============================================================================

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" example:"alice@example.com"`
	Password string `json:"password" validate:"required,max=1024"`

	// MFACode is a 6-digit TOTP code or a backup code. Required when the
	// account has MFA enabled.
	MFACode string `json:"mfa_code,omitempty" validate:"omitempty,max=32" example:"123456"`
}

// SessionResponse is returned by login and refresh.
type SessionResponse struct {
	Token string `json:"token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime of the token in seconds
	ExpiresIn int `json:"expires_in"`

	MFAVerified bool        `json:"mfa_verified"`
	User        UserSummary `json:"user"`
}

// UserSummary is the public view of an account. It never carries the
// password hash or the MFA secret.
type UserSummary struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Username    string      `json:"username"`
	MFAEnabled  bool        `json:"mfa_enabled"`
	Preferences Preferences `json:"preferences"`
}

type Preferences struct {
	Theme         string `json:"theme" example:"light"`
	Notifications bool   `json:"notifications"`
	Language      string `json:"language" example:"en"`
}

// VerifyResponse is returned by GET /v1/auth/verify.
type VerifyResponse struct {
	User        UserSummary `json:"user"`
	MFAVerified bool        `json:"mfa_verified"`
	ExpiresAt   int64       `json:"expires_at"` // unix seconds
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// MFA Types
// ============================================================================

// MFASetupResponse is shown once. The backup codes cannot be retrieved again.
type MFASetupResponse struct {
	Secret          string   `json:"mfa_secret" example:"JBSWY3DPEHPK3PXP"`
	ProvisioningURI string   `json:"provisioning_uri" example:"otpauth://totp/Synapse:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=Synapse"`
	QRCode          string   `json:"qr_code"` // PNG data URL
	BackupCodes     []string `json:"backup_codes"`
}

// MFACodeRequest carries a TOTP code for enable, disable and backup-code
// regeneration.
type MFACodeRequest struct {
	MFACode string `json:"mfa_code" validate:"required,max=32" example:"123456"`
}

type BackupCodesResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

// ============================================================================
// Preferences Types
// ============================================================================

// PreferencesRequest is a partial update; omitted fields keep their value.
type PreferencesRequest struct {
	Theme         *string `json:"theme,omitempty" validate:"omitempty,oneof=light dark auto"`
	Notifications *bool   `json:"notifications,omitempty"`
	Language      *string `json:"language,omitempty" validate:"omitempty,min=2,max=5"`
}

type PreferencesResponse struct {
	Preferences Preferences `json:"preferences"`
}

// ============================================================================
// Internal Response Types (used for JSON unmarshaling)
// ============================================================================

// ErrorResponse documents the error body for the API docs.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	MFARequired      bool   `json:"mfa_required,omitempty"`
}

// ValidationErrorResponse documents the validation error body for the API docs.
type ValidationErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks holds one entry per dependency, "ok" or "error: ...".
type HealthChecks struct {
	Database   string `json:"database"`
	Signer     string `json:"signer"`
	Revocation string `json:"revocation,omitempty"`
}

// JWKSResponse contains the JSON Web Key Set.
type JWKSResponse jwtx.JWKS
