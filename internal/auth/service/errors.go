package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountLocked      = errors.New("account_locked")
	ErrMFARequired        = errors.New("mfa_required")
	ErrInvalidMFACode     = errors.New("invalid_mfa_code")
	ErrMFAAlreadyEnabled  = errors.New("mfa_already_enabled")
	ErrMFANotEnabled      = errors.New("mfa_not_enabled")
	ErrMFANotPending      = errors.New("mfa_not_pending")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidToken       = errors.New("invalid_token")
)
