package http

import (
	"net/http"

	"github.com/aussiebroadwan/synapse/internal/auth/service"
	"github.com/aussiebroadwan/synapse/pkg/authsdk"
	"github.com/aussiebroadwan/synapse/pkg/httpx"
	"github.com/aussiebroadwan/synapse/pkg/slogx"
)

// MFAHandler handles all MFA-related endpoints.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleSetup handles POST /v1/auth/setup-mfa
//
//	@Summary		Start MFA setup
//	@Description	Generates a TOTP secret and a fresh set of backup codes. MFA stays off until enable-mfa confirms a code.
//	@Description	Calling it again before enabling replaces the pending secret and codes.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MFASetupResponse	"TOTP secret, QR code and backup codes (shown once)"
//	@Failure		400	{object}	authsdk.ErrorResponse		"MFA already enabled"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing session token"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/auth/setup-mfa [post].
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())

	setup, err := h.MFAService.Setup(r.Context(), userID)
	if err != nil {
		writeMFASettingsError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MFASetupResponse{
		Secret:          setup.Secret,
		ProvisioningURI: setup.ProvisioningURI,
		QRCode:          setup.QRCode,
		BackupCodes:     setup.BackupCodes,
	})
}

// HandleEnable handles POST /v1/auth/enable-mfa
//
//	@Summary		Enable MFA
//	@Description	Confirms the pending TOTP secret with a code from the authenticator app.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFACodeRequest	true	"TOTP code"
//	@Success		200		{object}	authsdk.MessageResponse	"MFA enabled"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid code, no pending setup, or already enabled"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid or missing session token"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/enable-mfa [post].
func (h *MFAHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	var req authsdk.MFACodeRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	userID := httpx.UserIDFromContext(r.Context())
	if err := h.MFAService.Enable(r.Context(), userID, req.MFACode); err != nil {
		writeMFASettingsError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("mfa enabled")
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "MFA enabled"})
}

// HandleDisable handles POST /v1/auth/disable-mfa
//
//	@Summary		Disable MFA
//	@Description	Turns MFA off and deletes the secret and all backup codes. Requires a current TOTP code.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFACodeRequest	true	"TOTP code"
//	@Success		200		{object}	authsdk.MessageResponse	"MFA disabled"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid code or MFA not enabled"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid or missing session token"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/disable-mfa [post].
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	var req authsdk.MFACodeRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	userID := httpx.UserIDFromContext(r.Context())
	if err := h.MFAService.Disable(r.Context(), userID, req.MFACode); err != nil {
		writeMFASettingsError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("mfa disabled")
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "MFA disabled"})
}

// HandleRegenerateBackupCodes handles POST /v1/auth/mfa/backup-codes
//
//	@Summary		Regenerate backup codes
//	@Description	Replaces every backup code. Requires a current TOTP code.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFACodeRequest		true	"TOTP code"
//	@Success		200		{object}	authsdk.BackupCodesResponse	"New backup codes (shown once)"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Invalid code or MFA not enabled"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid or missing session token"
//	@Failure		500		{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/auth/mfa/backup-codes [post].
func (h *MFAHandler) HandleRegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	var req authsdk.MFACodeRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	userID := httpx.UserIDFromContext(r.Context())
	codes, err := h.MFAService.RegenerateBackupCodes(r.Context(), userID, req.MFACode)
	if err != nil {
		writeMFASettingsError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.BackupCodesResponse{BackupCodes: codes})
}
