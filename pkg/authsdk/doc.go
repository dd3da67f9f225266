/*
Package authsdk provides a client SDK for the Synapse authentication service,
along with the request and response types the service itself uses on the wire.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (login, health, JWKS)
  - Session: operations that need a session token

	client := authsdk.NewSDKClient("https://auth.example.com")

	session, err := client.Login(ctx, "alice@example.com", password, "")
	if authsdk.IsMFARequired(err) {
		session, err = client.Login(ctx, "alice@example.com", password, totpCode)
	}

# MFA

	setup, err := session.SetupMFA(ctx)     // secret, otpauth URI, QR code, backup codes
	err = session.EnableMFA(ctx, totpCode)  // confirm the authenticator
	err = session.DisableMFA(ctx, totpCode) // clears secret and backup codes

A backup code may be passed to Login in place of a TOTP code. Each one works once.

# Errors

Every failed call returns *APIError (or *ValidationError for malformed
input). APIError implements Is by code:

	if errors.Is(err, authsdk.ErrAccountLocked) {
		// try again later
	}
*/
package authsdk
