package otpx_test

import (
	"bytes"
	"encoding/base32"
	"encoding/base64"
	"image/png"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/synapse/pkg/otpx"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	secret, err := otpx.GenerateSecret()
	require.NoError(t, err)
	require.Len(t, secret, 32)
	require.NotContains(t, secret, "=")

	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	require.NoError(t, err)
	require.Len(t, raw, otpx.SecretSize)

	other, err := otpx.GenerateSecret()
	require.NoError(t, err)
	require.NotEqual(t, secret, other)
}

func TestProvisioningURI(t *testing.T) {
	secret, err := otpx.GenerateSecret()
	require.NoError(t, err)

	uri, err := otpx.ProvisioningURI(secret, "alice@example.com", "Synapse")
	require.NoError(t, err)

	u, err := url.Parse(uri)
	require.NoError(t, err)
	require.Equal(t, "otpauth", u.Scheme)
	require.Equal(t, "totp", u.Host)
	require.Contains(t, u.Path, "alice@example.com")

	q := u.Query()
	require.Equal(t, secret, q.Get("secret"))
	require.Equal(t, "Synapse", q.Get("issuer"))
	require.Equal(t, "6", q.Get("digits"))
	require.Equal(t, "30", q.Get("period"))

	_, err = otpx.ProvisioningURI("not base32!", "alice@example.com", "Synapse")
	require.ErrorIs(t, err, otpx.ErrInvalidSecret)
}

func TestValidateTOTP_Window(t *testing.T) {
	secret, err := otpx.GenerateSecret()
	require.NoError(t, err)

	now := time.Unix(1_700_000_010, 0)
	step := time.Duration(otpx.Period) * time.Second

	tests := []struct {
		name   string
		offset time.Duration
		valid  bool
	}{
		{"current step", 0, true},
		{"one step behind", -step, true},
		{"two steps behind", -2 * step, true},
		{"two steps ahead", 2 * step, true},
		{"three steps behind", -3 * step, false},
		{"three steps ahead", 3 * step, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := otpx.GenerateCode(secret, now.Add(tt.offset))
			require.NoError(t, err)
			require.Equal(t, tt.valid, otpx.ValidateTOTP(code, secret, now, otpx.DefaultSkew))
		})
	}
}

func TestValidateTOTP_Malformed(t *testing.T) {
	secret, err := otpx.GenerateSecret()
	require.NoError(t, err)
	now := time.Now()

	require.False(t, otpx.ValidateTOTP("", secret, now, otpx.DefaultSkew))
	require.False(t, otpx.ValidateTOTP("12345", secret, now, otpx.DefaultSkew))
	require.False(t, otpx.ValidateTOTP("1234567", secret, now, otpx.DefaultSkew))
	require.False(t, otpx.ValidateTOTP("ABCD2345EF", secret, now, otpx.DefaultSkew))

	code, err := otpx.GenerateCode(secret, now)
	require.NoError(t, err)
	require.True(t, otpx.ValidateTOTP(" "+code+" ", secret, now, otpx.DefaultSkew))
}

func TestGenerateBackupCodes(t *testing.T) {
	codes, err := otpx.GenerateBackupCodes(otpx.DefaultBackupCodeCount)
	require.NoError(t, err)
	require.Len(t, codes, otpx.DefaultBackupCodeCount)

	seen := map[string]bool{}
	for _, c := range codes {
		require.Len(t, c, otpx.BackupCodeLength)
		require.False(t, strings.ContainsAny(c, "01IO"), "ambiguous character in %q", c)
		require.Equal(t, c, otpx.NormalizeBackupCode(c))
		require.False(t, seen[c])
		seen[c] = true
	}

	_, err = otpx.GenerateBackupCodes(0)
	require.Error(t, err)
}

func TestNormalizeBackupCode(t *testing.T) {
	require.Equal(t, "ABCDE23456", otpx.NormalizeBackupCode("abcde-23456"))
	require.Equal(t, "ABCDE23456", otpx.NormalizeBackupCode(" ABCDE 23456 "))
}

func TestQRCodeDataURL(t *testing.T) {
	dataURL, err := otpx.QRCodeDataURL("otpauth://totp/Synapse:alice?secret=ABC&issuer=Synapse", 0)
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(dataURL, prefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, otpx.DefaultQRSize, img.Bounds().Dx())
}
