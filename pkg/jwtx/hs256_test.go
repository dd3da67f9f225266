package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/synapse/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte(strings.Repeat("s", jwtx.MinHS256SecretLength))

func TestHS256SignAndVerify(t *testing.T) {
	signer, err := jwtx.NewSignerHS256("", testSecret)
	require.NoError(t, err)
	require.Equal(t, "HS256", signer.Alg())

	claims := jwtx.NewSessionClaims("user-123", false, jwtx.DefaultSessionTTL, exampleIssuer, time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	parsed, err := jwtx.NewVerifierHS256(testSecret, jwtx.WithIssuer(exampleIssuer)).Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", parsed.Subject)
	require.False(t, parsed.MFAVerified)
	require.WithinDuration(t, claims.Expiry(), parsed.Expiry(), time.Second)
}

func TestHS256RejectsWeakSecret(t *testing.T) {
	_, err := jwtx.NewSignerHS256("", []byte("short"))
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestHS256VerifyFailures(t *testing.T) {
	signer, err := jwtx.NewSignerHS256("", testSecret)
	require.NoError(t, err)
	now := time.Now()

	t.Run("wrong secret", func(t *testing.T) {
		token, err := signer.Sign(jwtx.NewSessionClaims("u", false, time.Hour, exampleIssuer, now))
		require.NoError(t, err)
		_, err = jwtx.NewVerifierHS256([]byte(strings.Repeat("x", 32))).Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("clock past expiry", func(t *testing.T) {
		token, err := signer.Sign(jwtx.NewSessionClaims("u", false, time.Hour, exampleIssuer, now))
		require.NoError(t, err)
		later := func() time.Time { return now.Add(2 * time.Hour) }
		_, err = jwtx.NewVerifierHS256(testSecret, jwtx.WithTimeFunc(later)).Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := jwtx.NewVerifierHS256(testSecret).Verify("not.a.jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("eddsa token rejected", func(t *testing.T) {
		ed := newEdDSASigner(t, "k")
		token, err := ed.Sign(jwtx.NewSessionClaims("u", false, time.Hour, exampleIssuer, now))
		require.NoError(t, err)
		_, err = jwtx.NewVerifierHS256(testSecret).Verify(token)
		require.Error(t, err)
	})
}
