package http

import (
	"net/http"

	"github.com/aussiebroadwan/synapse/pkg/authsdk"
	"github.com/aussiebroadwan/synapse/pkg/httpx"
	"github.com/aussiebroadwan/synapse/pkg/jwtx"
)

// JWKSHandler exposes the JSON Web Key Set for public key discovery. The set
// is empty when tokens are signed with a shared secret.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify EdDSA session tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(keys.PublicJWKS()))
	}
}
