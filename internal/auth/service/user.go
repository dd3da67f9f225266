package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/synapse/internal/auth/domain"
	"github.com/aussiebroadwan/synapse/internal/auth/store"
	"github.com/aussiebroadwan/synapse/pkg/cryptox"
	"github.com/aussiebroadwan/synapse/pkg/idx"
	"github.com/aussiebroadwan/synapse/pkg/slogx"
)

type UserService struct {
	Store store.Store
	Now   func() time.Time
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, mapUserErr(err)
	}
	return user, nil
}

// CreateUser provisions an account with default preferences.
func (s *UserService) CreateUser(ctx context.Context, email, username, password string) (domain.User, error) {
	now := clock(s.Now)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		Preferences:  domain.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// UpdatePreferences applies patch to the stored preferences and returns the
// result.
func (s *UserService) UpdatePreferences(ctx context.Context, userID string, patch domain.PreferencesPatch) (domain.Preferences, error) {
	now := clock(s.Now)

	var updated domain.Preferences
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return mapUserErr(err)
		}
		updated = patch.Apply(user.Preferences)
		return tx.Users().UpdatePreferences(ctx, userID, updated, now)
	})
	if err != nil {
		return domain.Preferences{}, err
	}
	return updated, nil
}

// Unlock clears the failure counter and any lock on the account with the
// given email. It is an operator action.
func (s *UserService) Unlock(ctx context.Context, email string) (domain.User, error) {
	now := clock(s.Now)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapUserErr(err)
	}
	if err := s.Store.Users().ForceResetLockout(ctx, user.ID, now); err != nil {
		return domain.User{}, mapUserErr(err)
	}
	user.FailedLoginAttempts = 0
	user.LockUntil = nil

	slogx.FromContext(ctx).Info("account unlocked", slog.String("user_id", user.ID))
	return user, nil
}
