package jwtx

import (
	"github.com/golang-jwt/jwt/v5"
)

// HS256Verifier validates JWTs signed with a shared HMAC secret.
type HS256Verifier struct {
	secret []byte
	cfg    verifyConfig
}

// NewVerifierHS256 creates a verifier for tokens signed by an HS256Signer
// holding the same secret.
func NewVerifierHS256(secret []byte, opts ...VerifierOption) *HS256Verifier {
	return &HS256Verifier{
		secret: append([]byte(nil), secret...),
		cfg:    newVerifyConfig(opts),
	}
}

func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	return v.cfg.parse(tokenStr, jwt.SigningMethodHS256, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
}
