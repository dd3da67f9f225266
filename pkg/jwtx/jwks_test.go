package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJWK_PEM_Ed25519(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	pemStr, err := NewEd25519JWK("kid", "sig", "EdDSA", pub).PEM()
	require.NoError(t, err)

	block, _ := pem.Decode([]byte(pemStr))
	require.NotNil(t, block)
	require.Equal(t, "PUBLIC KEY", block.Type)

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)
	require.Equal(t, pub, parsed.(ed25519.PublicKey))
}

func TestJWK_PEM_Unsupported(t *testing.T) {
	_, err := JWK{Kty: "RSA"}.PEM()
	require.Error(t, err)

	_, err = JWK{Kty: "OKP", Crv: "X25519"}.PEM()
	require.Error(t, err)
}

func TestKeySet_EmptyJWKSMarshalsAsArray(t *testing.T) {
	ks := NewKeySet()
	require.NotNil(t, ks.PublicJWKS().Keys)
	_, err := ks.Get("missing")
	require.ErrorIs(t, err, ErrNoKey)
}
