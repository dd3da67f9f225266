package http

import (
	"net/http"

	"github.com/aussiebroadwan/synapse/internal/auth/domain"
	"github.com/aussiebroadwan/synapse/internal/auth/service"
	"github.com/aussiebroadwan/synapse/pkg/authsdk"
	"github.com/aussiebroadwan/synapse/pkg/httpx"
)

type PreferencesHandler struct {
	UserService *service.UserService
}

// ServeHTTP handles PUT /v1/auth/preferences
//
//	@Summary		Update preferences
//	@Description	Partially updates the caller's preferences. Omitted fields keep their value.
//	@Tags			Account
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.PreferencesRequest			true	"Fields to change"
//	@Success		200		{object}	authsdk.PreferencesResponse			"Stored preferences"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse		"Invalid request"
//	@Failure		401		{object}	authsdk.ErrorResponse				"Invalid or missing session token"
//	@Failure		500		{object}	authsdk.ErrorResponse				"Internal server error"
//	@Router			/v1/auth/preferences [put].
func (h *PreferencesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.PreferencesRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	userID := httpx.UserIDFromContext(r.Context())
	prefs, err := h.UserService.UpdatePreferences(r.Context(), userID, domain.PreferencesPatch{
		Theme:         req.Theme,
		Notifications: req.Notifications,
		Language:      req.Language,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.PreferencesResponse{Preferences: toPreferences(prefs)})
}
