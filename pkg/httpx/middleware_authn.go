package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/synapse/pkg/jwtx"
	"github.com/aussiebroadwan/synapse/pkg/slogx"
)

// ErrTokenRejected marks a token the verifier refused. Verifiers wrap it for
// bad, expired or revoked tokens; any other error is treated as an outage.
var ErrTokenRejected = errors.New("token rejected")

// TokenVerifier checks a raw bearer token. Implementations may consult a
// revocation list, so the request context is passed through.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (jwtx.Claims, error)
}

// AuthnMiddleware requires a valid bearer token and stores its claims in the
// request context.
func AuthnMiddleware(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.VerifyToken(ctx, raw)
			if errors.Is(err, ErrTokenRejected) {
				log.Warn("bearer token rejected", "err", err)
				writeBearerError(w, "the access token is missing, invalid, expired or revoked")
				return
			}
			if err != nil {
				log.Error("bearer token check failed", "err", err)
				WriteJSON(w, http.StatusInternalServerError, map[string]string{
					"error":             "server_error",
					"error_description": "internal server error",
				})
				return
			}

			ctx = contextWithAuth(ctx, claims)
			ctx = slogx.WithUserID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_token",
		"error_description": desc,
	})
}
