package http

import (
	"github.com/aussiebroadwan/synapse/internal/auth/domain"
	"github.com/aussiebroadwan/synapse/pkg/authsdk"
)

func toUserSummary(u domain.User) authsdk.UserSummary {
	return authsdk.UserSummary{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		MFAEnabled:  u.MFAEnabled(),
		Preferences: toPreferences(u.Preferences),
	}
}

func toPreferences(p domain.Preferences) authsdk.Preferences {
	return authsdk.Preferences{
		Theme:         p.Theme,
		Notifications: p.Notifications,
		Language:      p.Language,
	}
}

func toSessionResponse(s domain.Session) authsdk.SessionResponse {
	return authsdk.SessionResponse{
		Token:       s.Token,
		TokenType:   s.TokenType,
		ExpiresIn:   int(s.ExpiresIn.Seconds()),
		MFAVerified: s.MFAVerified,
		User:        toUserSummary(s.User),
	}
}
