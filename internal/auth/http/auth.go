package http

import (
	"net/http"

	"github.com/aussiebroadwan/synapse/internal/auth/service"
	"github.com/aussiebroadwan/synapse/pkg/authsdk"
	"github.com/aussiebroadwan/synapse/pkg/httpx"
)

// AuthHandler handles login and the session token lifecycle.
type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Log in
//	@Description	Checks email and password, the account lock and, for MFA accounts, a TOTP or backup code.
//	@Description	Omitting mfa_code on an MFA account returns 400 with mfa_required set.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest				true	"Credentials"
//	@Success		200		{object}	authsdk.SessionResponse				"Session token"
//	@Failure		400		{object}	authsdk.ErrorResponse				"MFA code required"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse		"Invalid request"
//	@Failure		401		{object}	authsdk.ErrorResponse				"Invalid credentials or MFA code"
//	@Failure		423		{object}	authsdk.ErrorResponse				"Account locked"
//	@Failure		429		{object}	authsdk.ErrorResponse				"Rate limit exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse				"Internal server error"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	session, err := h.AuthService.Login(r.Context(), req.Email, req.Password, req.MFACode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// HandleRefresh handles POST /v1/auth/refresh
//
//	@Summary		Refresh session token
//	@Description	Issues a new token for the same session. The old token is revoked when revocation is enabled.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionResponse	"New session token"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing session token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	session, err := h.AuthService.Refresh(r.Context(), claims)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// HandleVerify handles GET /v1/auth/verify
//
//	@Summary		Verify session token
//	@Description	Returns the account behind a valid session token.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.VerifyResponse	"Token owner"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing session token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/verify [get].
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.AuthService.Verify(r.Context(), claims)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyResponse{
		User:        toUserSummary(user),
		MFAVerified: claims.MFAVerified,
		ExpiresAt:   claims.Expiry().Unix(),
	})
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Log out
//	@Description	Revokes the session token when revocation is enabled. Clients should discard the token either way.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse	"Logged out"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing session token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.AuthService.Logout(r.Context(), claims); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "logged out"})
}
