package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aussiebroadwan/synapse/pkg/cryptox"
	"github.com/aussiebroadwan/synapse/pkg/jwtx"
)

// AuthKeys is the signing and verification material for session tokens.
type AuthKeys struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	KeySet   *jwtx.KeySet // public keys served at the JWKS endpoint, empty for HS256
}

// InitAuthKeys builds the token signer for the configured algorithm.
//
// Supported algorithms:
//   - "HS256": shared secret from AUTH_JWT_SECRET. Every service that
//     verifies tokens needs the same secret.
//   - "EdDSA": Ed25519 key from AUTH_SIGNING_KEY_FILE, generated on first
//     start. The public key is published in the JWKS so other services can
//     verify tokens without a shared secret.
//
// The key survives restarts in both modes, so issued tokens stay valid.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*AuthKeys, error) {
	keys := &AuthKeys{KeySet: jwtx.NewKeySet()}

	switch strings.ToUpper(cfg.Algorithm) {
	case "HS256":
		if cfg.JWTSecret == "" {
			return nil, errors.New("AUTH_JWT_SECRET is required for HS256")
		}
		signer, err := jwtx.NewSignerHS256("hs256", []byte(cfg.JWTSecret))
		if err != nil {
			return nil, err
		}
		if err := signer.Validate(); err != nil {
			return nil, fmt.Errorf("invalid AUTH_JWT_SECRET: %w", err)
		}
		keys.Signer = signer
		keys.Verifier = jwtx.NewVerifierHS256([]byte(cfg.JWTSecret), jwtx.WithIssuer(cfg.Issuer))

	case "EDDSA":
		pemKey, err := loadOrGenerateSigningKey(cfg.SigningKeyFile, logger)
		if err != nil {
			return nil, err
		}
		kid, err := keyID(pemKey)
		if err != nil {
			return nil, err
		}
		signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}
		if err := keys.KeySet.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("failed to publish signing key: %w", err)
		}
		keys.Signer = signer
		keys.Verifier = jwtx.NewVerifierEdDSA(keys.KeySet, jwtx.WithIssuer(cfg.Issuer))

	default:
		return nil, fmt.Errorf("unsupported AUTH_ALGORITHM %q (want HS256 or EdDSA)", cfg.Algorithm)
	}

	logger.Info("session token signer ready",
		"algorithm", keys.Signer.Alg(),
		"kid", keys.Signer.KID(),
		"issuer", cfg.Issuer,
	)
	return keys, nil
}

func loadOrGenerateSigningKey(file string, logger *slog.Logger) ([]byte, error) {
	file = filepath.Clean(file)

	b, err := os.ReadFile(file) // #nosec G304 - operator supplied path
	if err == nil {
		return b, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	pemKey, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return nil, err
	}
	if err := os.WriteFile(file, pemKey, 0600); err != nil {
		return nil, fmt.Errorf("failed to write signing key: %w", err)
	}
	logger.Warn("generated new signing key", "path", file)
	return pemKey, nil
}

// keyID derives a stable kid from the public key.
func keyID(pemKey []byte) (string, error) {
	priv, err := cryptox.ParseEd25519PrivateKey(pemKey)
	if err != nil {
		return "", fmt.Errorf("failed to load signing key: %w", err)
	}
	pub := priv.Public()
	return "ed25519-" + cryptox.FingerprintToken(fmt.Sprintf("%x", pub))[:16], nil
}
