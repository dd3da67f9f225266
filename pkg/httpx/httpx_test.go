package httpx_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/synapse/pkg/httpx"
	"github.com/aussiebroadwan/synapse/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]jwtx.Claims

func (s stubVerifier) VerifyToken(_ context.Context, raw string) (jwtx.Claims, error) {
	if raw == "outage" {
		return jwtx.Claims{}, errors.New("denylist unavailable")
	}
	c, ok := s[raw]
	if !ok {
		return jwtx.Claims{}, fmt.Errorf("%w: unknown token", httpx.ErrTokenRejected)
	}
	return c, nil
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mw("a"), mw("b"), mw("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	v := stubVerifier{"good": {RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}, MFAVerified: true}}

	var gotUser string
	var gotMFA bool
	h := httpx.AuthnMiddleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = httpx.UserIDFromContext(r.Context())
		c, _ := httpx.ClaimsFromContext(r.Context())
		gotMFA = c.MFAVerified
	}))

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "user-1", gotUser)
		require.True(t, gotMFA)
	})

	for name, header := range map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"bad token":      "Bearer nope",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
			require.Contains(t, rec.Body.String(), "invalid_token")
		})
	}

	t.Run("verifier failure", func(t *testing.T) {
		gotUser = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer outage")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Empty(t, rec.Header().Get("WWW-Authenticate"))
		require.Contains(t, rec.Body.String(), "server_error")
		require.Empty(t, gotUser)
	})
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co"}`))
	require.NoError(t, httpx.DecodeJSON(rec, req, &dst))
	require.Equal(t, "a@b.co", dst.Email)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","extra":1}`))
	require.Error(t, httpx.DecodeJSON(rec, req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	require.NoError(t, httpx.DecodeJSON(rec, req, &dst))
}

func TestValidateStruct(t *testing.T) {
	type loginLike struct {
		Email    string  `json:"email" validate:"required,email"`
		Password string  `json:"password" validate:"required"`
		Theme    *string `json:"theme" validate:"omitempty,oneof=light dark auto"`
	}

	require.Nil(t, httpx.ValidateStruct(loginLike{Email: "a@b.co", Password: "x"}))

	bad := "neon"
	details := httpx.ValidateStruct(loginLike{Email: "nope", Theme: &bad})
	require.Equal(t, "must be a valid email address", details["email"])
	require.Equal(t, "is required", details["password"])
	require.Contains(t, details["theme"], "light dark auto")
}

func TestCORS(t *testing.T) {
	h := httpx.CORS([]string{"http://localhost:3000"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/v1/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
