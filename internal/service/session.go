package service

import (
	"context"
	"time"

	"github.com/iliyamo/codementorx/internal/model"
	"github.com/iliyamo/codementorx/internal/utils"
)

// Session is the access/refresh pair handed out after login or a successful
// OTP verification.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// SessionIssuer creates sessions for an authenticated user.
type SessionIssuer interface {
	Issue(ctx context.Context, u model.User) (Session, error)
}

// TokenIssuer signs HS256 access tokens and stores the SHA-256 of each
// refresh token.
type TokenIssuer struct {
	Secret         string
	AccessTTLMin   int
	RefreshTTLDays int
	Store          RefreshStore
	Now            func() time.Time
}

func NewTokenIssuer(secret string, accessTTLMin, refreshTTLDays int, store RefreshStore) *TokenIssuer {
	return &TokenIssuer{
		Secret:         secret,
		AccessTTLMin:   accessTTLMin,
		RefreshTTLDays: refreshTTLDays,
		Store:          store,
		Now:            time.Now,
	}
}

func (t *TokenIssuer) Issue(ctx context.Context, u model.User) (Session, error) {
	now := t.Now()
	access, err := utils.NewAccessToken(t.Secret, u.ID, u.Username, t.AccessTTLMin, now)
	if err != nil {
		return Session{}, err
	}
	refresh, err := utils.NewRefreshToken(t.RefreshTTLDays, now)
	if err != nil {
		return Session{}, err
	}
	if err := t.Store.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, err
	}
	return Session{User: u, Access: access, Refresh: refresh}, nil
}
