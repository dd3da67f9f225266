package authsdk

import (
	"context"
	"net/http"
)

// SetupMFA starts MFA setup. The returned backup codes are shown only once.
func (s *Session) SetupMFA(ctx context.Context) (*MFASetupResponse, error) {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/auth/setup-mfa", s.Token(), nil)
	if err != nil {
		return nil, err
	}

	var setup MFASetupResponse
	if err := decodeJSON(resp, &setup, http.StatusOK); err != nil {
		return nil, err
	}
	return &setup, nil
}

// EnableMFA confirms a pending setup with a TOTP code.
func (s *Session) EnableMFA(ctx context.Context, code string) error {
	return s.postCode(ctx, "/v1/auth/enable-mfa", code)
}

// DisableMFA turns MFA off. Requires a TOTP code.
func (s *Session) DisableMFA(ctx context.Context, code string) error {
	return s.postCode(ctx, "/v1/auth/disable-mfa", code)
}

// RegenerateBackupCodes replaces every backup code. Requires a TOTP code.
func (s *Session) RegenerateBackupCodes(ctx context.Context, code string) (*BackupCodesResponse, error) {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/auth/mfa/backup-codes", s.Token(), MFACodeRequest{MFACode: code})
	if err != nil {
		return nil, err
	}

	var codes BackupCodesResponse
	if err := decodeJSON(resp, &codes, http.StatusOK); err != nil {
		return nil, err
	}
	return &codes, nil
}

func (s *Session) postCode(ctx context.Context, path, code string) error {
	resp, err := s.client.doRequest(ctx, http.MethodPost, path, s.Token(), MFACodeRequest{MFACode: code})
	if err != nil {
		return err
	}

	var msg MessageResponse
	return decodeJSON(resp, &msg, http.StatusOK)
}
