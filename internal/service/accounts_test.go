package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	f := newFixture()
	f.codes = []string{"123456"}
	id, err := f.verify.Signup(context.Background(), "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	_, err = f.acct.Login(context.Background(), "alice", "secret1")
	assert.ErrorIs(t, err, ErrNotVerified)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.verify.Verify(context.Background(), id, "123456")
	require.NoError(t, err)

	sess, err := f.acct.Login(context.Background(), "Alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, sess.User.ID)

	for _, c := range []struct{ user, pass string }{
		{"alice", "wrong"},
		{"mallory", "secret1"},
		{"", ""},
	} {
		_, err := f.acct.Login(context.Background(), c.user, c.pass)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
}

func TestProfile(t *testing.T) {
	f := newFixture()
	id, err := f.verify.Signup(context.Background(), "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	u, err := f.acct.Profile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = f.acct.Profile(context.Background(), id+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshSession_Rotates(t *testing.T) {
	f := newFixture()
	id := activeUser(t, f)
	sess, err := f.acct.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	next, err := f.acct.RefreshSession(context.Background(), sess.Refresh.Raw)
	require.NoError(t, err)
	assert.Equal(t, id, next.User.ID)
	assert.NotEqual(t, sess.Refresh.Raw, next.Refresh.Raw)

	_, err = f.acct.RefreshSession(context.Background(), sess.Refresh.Raw)
	assert.ErrorIs(t, err, ErrUnauthorized, "old token revoked")

	f.clock.Advance(8 * 24 * time.Hour)
	_, err = f.acct.RefreshSession(context.Background(), next.Refresh.Raw)
	assert.ErrorIs(t, err, ErrUnauthorized, "expired")

	_, err = f.acct.RefreshSession(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	f := newFixture()
	activeUser(t, f)
	sess, err := f.acct.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.acct.Logout(context.Background(), sess.Refresh.Raw))
	assert.ErrorIs(t, f.acct.Logout(context.Background(), sess.Refresh.Raw), ErrUnauthorized)
	_, err = f.acct.RefreshSession(context.Background(), sess.Refresh.Raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
