package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/tailorbook/internal/auth/domain"
	"github.com/smallbiznis/tailorbook/internal/auth/password"
	"github.com/smallbiznis/tailorbook/internal/auth/repository"
	"github.com/smallbiznis/tailorbook/internal/clock"
	"github.com/smallbiznis/tailorbook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, authCfg config.AuthConfig) (domain.Service, *clock.FakeClock) {
	t.Helper()
	fake := clock.NewFakeClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	svc, err := New(Params{
		Cfg:      config.Config{Auth: authCfg},
		Log:      zap.NewNop(),
		Clock:    fake,
		Sessions: repository.NewMemoryRepository(fake),
	})
	require.NoError(t, err)
	return svc, fake
}

func TestLoginWithArgonHash(t *testing.T) {
	hash, err := password.Hash("sui-dhaga")
	require.NoError(t, err)
	svc, _ := newTestService(t, config.AuthConfig{Enabled: true, Username: "admin", PasswordHash: hash, SessionTTL: time.Hour})
	ctx := context.Background()

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "someone", Password: "sui-dhaga"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	res, err := svc.Login(ctx, domain.LoginRequest{Username: " admin ", Password: "sui-dhaga"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RawToken)

	session, err := svc.Authenticate(ctx, res.RawToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)
	assert.NotEqual(t, res.RawToken, session.TokenHash)
}

func TestSessionExpiresAndLogoutRevokes(t *testing.T) {
	svc, fake := newTestService(t, config.AuthConfig{Enabled: true, Username: "admin", Password: "plain", SessionTTL: time.Hour})
	ctx := context.Background()

	res, err := svc.Login(ctx, domain.LoginRequest{Username: "admin", Password: "plain"})
	require.NoError(t, err)

	fake.Advance(59 * time.Minute)
	_, err = svc.Authenticate(ctx, res.RawToken)
	require.NoError(t, err)

	fake.Advance(time.Minute)
	_, err = svc.Authenticate(ctx, res.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	res, err = svc.Login(ctx, domain.LoginRequest{Username: "admin", Password: "plain"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, res.RawToken))
	_, err = svc.Authenticate(ctx, res.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestLoginWhenDisabled(t *testing.T) {
	svc, _ := newTestService(t, config.AuthConfig{})
	assert.False(t, svc.Enabled())

	_, err := svc.Login(context.Background(), domain.LoginRequest{Username: "admin"})
	assert.ErrorIs(t, err, domain.ErrAuthDisabled)
}

func TestEnabledWithoutSecretFails(t *testing.T) {
	_, err := New(Params{
		Cfg:      config.Config{Auth: config.AuthConfig{Enabled: true, Username: "admin"}},
		Log:      zap.NewNop(),
		Clock:    clock.SystemClock{},
		Sessions: repository.NewMemoryRepository(nil),
	})
	assert.Error(t, err)
}
