package domain_test

import (
	"testing"

	"github.com/aussiebroadwan/synapse/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestPreferencesPatchApply(t *testing.T) {
	dark := "dark"
	off := false

	got := domain.PreferencesPatch{Theme: &dark, Notifications: &off}.Apply(domain.DefaultPreferences())
	require.Equal(t, domain.Preferences{Theme: "dark", Notifications: false, Language: "en"}, got)

	require.Equal(t, domain.DefaultPreferences(), domain.PreferencesPatch{}.Apply(domain.DefaultPreferences()))
}

func TestUserMFAStates(t *testing.T) {
	secret := "ABC"
	var u domain.User
	require.False(t, u.MFAEnabled())
	require.False(t, u.MFAPending())

	u.MFASecret = &secret
	require.True(t, u.MFAPending())

	now := u.CreatedAt
	u.MFAEnabledAt = &now
	require.True(t, u.MFAEnabled())
	require.False(t, u.MFAPending())
}
