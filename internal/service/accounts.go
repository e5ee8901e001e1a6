package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/codementorx/internal/model"
	"github.com/iliyamo/codementorx/internal/repository"
	"github.com/iliyamo/codementorx/internal/utils"
)

// Accounts serves password login, profile lookups and refresh-token rotation.
type Accounts struct {
	Users    UserStore
	Refresh  RefreshStore
	Sessions SessionIssuer
	Now      func() time.Time
}

func NewAccounts(users UserStore, refresh RefreshStore, sessions SessionIssuer) *Accounts {
	return &Accounts{Users: users, Refresh: refresh, Sessions: sessions, Now: time.Now}
}

// Login authenticates by username (ignoring case) and password.  Accounts
// that never confirmed their OTP are refused with ErrNotVerified.
func (a *Accounts) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	u, err := a.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return Session{}, ErrNotVerified
	}
	return a.Sessions.Issue(ctx, u)
}

// Profile returns the user behind an access token.
func (a *Accounts) Profile(ctx context.Context, userID uint64) (model.User, error) {
	u, err := a.Users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, notFound(err)
	}
	return u, nil
}

// RefreshSession revokes the presented refresh token and issues a new pair.
func (a *Accounts) RefreshSession(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, ErrUnauthorized
	}
	hash := utils.HashRefreshRaw(raw)
	now := a.Now()

	userID, err := a.Refresh.ValidateRefresh(ctx, hash, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}
	if err := a.Refresh.RevokeByHash(ctx, hash, now); err != nil {
		return Session{}, err
	}
	u, err := a.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}
	if !u.IsActive {
		return Session{}, ErrNotVerified
	}
	return a.Sessions.Issue(ctx, u)
}

// Logout revokes one refresh token.  Tokens that are unknown, expired or
// already revoked are reported as ErrUnauthorized.
func (a *Accounts) Logout(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrUnauthorized
	}
	hash := utils.HashRefreshRaw(raw)
	now := a.Now()
	if _, err := a.Refresh.ValidateRefresh(ctx, hash, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	return a.Refresh.RevokeByHash(ctx, hash, now)
}
