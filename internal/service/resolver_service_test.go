package service_test

import (
	"context"
	"factory-server/config"
	"factory-server/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverService_FreshAccessToken(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.addUser(t, "master1", goodPassword, model.RoleMaster)
	login := env.login(t, "master1", goodPassword)

	env.clock.Advance(5 * time.Minute)
	resolution, err := env.resolver.Resolve(context.Background(), login.Access.Token, login.Refresh.Token, desktop)
	require.NoError(t, err)

	assert.Equal(t, user.ID, resolution.User.ID)
	assert.Equal(t, login.Session.ID, resolution.Session.ID)
	assert.Nil(t, resolution.Rotated)
	assert.Equal(t, baseTime.Add(5*time.Minute), env.store.session(t, login.Session.ID).LastActivity)
	assert.Zero(t, env.metrics.get("refresh:success"))
}

func TestResolverService_SilentRefresh(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "master1", goodPassword, model.RoleMaster)
	login := env.login(t, "master1", goodPassword)
	ctx := context.Background()

	env.clock.Advance(21 * time.Minute)
	resolution, err := env.resolver.Resolve(ctx, login.Access.Token, login.Refresh.Token, desktop)
	require.NoError(t, err)

	require.NotNil(t, resolution.Rotated)
	require.NotNil(t, resolution.Rotated.Access)
	assert.Nil(t, resolution.Rotated.Refresh)
	assert.NotEqual(t, login.Access.JTI, resolution.Rotated.Access.JTI)
	assert.Equal(t, 1, env.metrics.get("refresh:success"))

	stored := env.store.session(t, login.Session.ID)
	assert.Equal(t, resolution.Rotated.Access.JTI, stored.AccessTokenJTI)
	assert.Equal(t, login.Refresh.JTI, stored.RefreshTokenJTI)

	_, revoked := env.store.revokedToken(login.Refresh.JTI)
	assert.False(t, revoked)

	resolution, err = env.resolver.Resolve(ctx, resolution.Rotated.Access.Token, login.Refresh.Token, desktop)
	require.NoError(t, err)
	assert.Nil(t, resolution.Rotated)
}

func TestResolverService_ExpiredAccessTokenIsRefreshed(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "master1", goodPassword, model.RoleMaster)
	login := env.login(t, "master1", goodPassword)

	env.clock.Advance(45 * time.Minute)
	resolution, err := env.resolver.Resolve(context.Background(), login.Access.Token, login.Refresh.Token, desktop)
	require.NoError(t, err)
	require.NotNil(t, resolution.Rotated)
	assert.Equal(t, env.clock.Now().Add(30*time.Minute), resolution.Rotated.Access.ExpiresAt)
}

func TestResolverService_RefreshRotation(t *testing.T) {
	env := newTestEnv(t, func(p *config.SessionConfig) { p.IdleTimeout = 200 * time.Hour })
	env.addUser(t, "adjuster1", goodPassword, model.RoleAdjuster)
	login := env.login(t, "adjuster1", goodPassword)
	ctx := context.Background()

	env.clock.Advance(121 * time.Hour)
	resolution, err := env.resolver.Resolve(ctx, login.Access.Token, login.Refresh.Token, desktop)
	require.NoError(t, err)
	require.NotNil(t, resolution.Rotated.Refresh)

	stored := env.store.session(t, login.Session.ID)
	assert.Equal(t, resolution.Rotated.Refresh.JTI, stored.RefreshTokenJTI)

	old, ok := env.store.revokedToken(login.Refresh.JTI)
	require.True(t, ok)
	assert.Equal(t, model.ReasonRotation, old.Reason)
	assert.Equal(t, model.TokenRefresh, old.TokenType)
	require.NotNil(t, old.SessionID)
	assert.Equal(t, login.Session.ID, *old.SessionID)

	_, err = env.resolver.Resolve(ctx, login.Access.Token, login.Refresh.Token, desktop)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.ErrorIs(t, err, model.ErrTokenRevoked)
}

func TestResolverService_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		tweak     func(*config.SessionConfig)
		prepare   func(t *testing.T, env *testEnv, login *model.LoginResult) (access, refresh string, client model.ClientInfo)
		expectErr []error
	}{
		{
			name: "no access token",
			prepare: func(t *testing.T, env *testEnv, login *model.LoginResult) (string, string, model.ClientInfo) {
				return "", login.Refresh.Token, desktop
			},
			expectErr: []error{model.ErrUnauthenticated},
		},
		{
			name: "garbage token",
			prepare: func(t *testing.T, env *testEnv, login *model.LoginResult) (string, string, model.ClientInfo) {
				return "not.a.jwt", login.Refresh.Token, desktop
			},
			expectErr: []error{model.ErrUnauthenticated, model.ErrMalformedToken},
		},
		{
			name: "refresh token used as access",
			prepare: func(t *testing.T, env *testEnv, login *model.LoginResult) (string, string, model.ClientInfo) {
				return login.Refresh.Token, login.Refresh.Token, desktop
			},
			expectErr: []error{model.ErrUnauthenticated, model.ErrMalformedToken},
		},
		{
			name: "revoked after logout",
			prepare: func(t *testing.T, env *testEnv, login *model.LoginResult) (string, string, model.ClientInfo) {
				require.NoError(t, env.auth.Logout(context.Background(), login.Session.ID, login.User.ID))
				return login.Access.Token, login.Refresh.Token, desktop
			},
			expectErr: []error{model.ErrUnauthenticated, model.ErrTokenRevoked},
		},
		{
			name: "near expiry without refresh token",
			prepare: func(t *testing.T, env *testEnv, login *model.LoginResult) (string, string, model.ClientInfo) {
				env.clock.Advance(25 * time.Minute)
				return login.Access.Token, "", desktop
			},
			expectErr: []error{model.ErrUnauthenticated, model.ErrExpiredToken},
		},
		{
			name:  "expired refresh token",
			tweak: func(p *config.SessionConfig) { p.IdleTimeout = 500 * time.Hour; p.AbsoluteTimeout = 500 * time.Hour },
			prepare: func(t *testing.T, env *testEnv, login *model.LoginResult) (string, string, model.ClientInfo) {
				env.clock.Advance(169 * time.Hour)
				return login.Access.Token, login.Refresh.Token, desktop
			},
			expectErr: []error{model.ErrUnauthenticated, model.ErrExpiredToken},
		},
		{
			name: "ip mismatch with strict binding",
			tweak: func(p *config.SessionConfig) {
				p.StrictIPBinding = true
			},
			prepare: func(t *testing.T, env *testEnv, login *model.LoginResult) (string, string, model.ClientInfo) {
				return login.Access.Token, login.Refresh.Token, model.ClientInfo{IP: "10.0.0.99", UserAgent: desktop.UserAgent}
			},
			expectErr: []error{model.ErrUnauthenticated, model.ErrInvalidClientIP},
		},
		{
			name: "disabled user",
			prepare: func(t *testing.T, env *testEnv, login *model.LoginResult) (string, string, model.ClientInfo) {
				env.store.mu.Lock()
				u := env.store.users[login.User.ID]
				u.IsActive = false
				env.store.users[login.User.ID] = u
				env.store.mu.Unlock()
				return login.Access.Token, login.Refresh.Token, desktop
			},
			expectErr: []error{model.ErrUserNotFound},
		},
		{
			name: "rotation lost the race",
			prepare: func(t *testing.T, env *testEnv, login *model.LoginResult) (string, string, model.ClientInfo) {
				env.store.updateTokensErr = model.ErrSessionConflict
				env.clock.Advance(25 * time.Minute)
				return login.Access.Token, login.Refresh.Token, desktop
			},
			expectErr: []error{model.ErrUnauthenticated, model.ErrTokenRevoked},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.tweak)
			env.addUser(t, "worker1", goodPassword, model.RoleWorker)
			login := env.login(t, "worker1", goodPassword)

			access, refresh, client := tt.prepare(t, env, login)
			resolution, err := env.resolver.Resolve(context.Background(), access, refresh, client)

			assert.Nil(t, resolution)
			for _, expected := range tt.expectErr {
				assert.ErrorIs(t, err, expected)
			}
		})
	}
}

func TestResolverService_IPMismatchIsLoggedOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "worker1", goodPassword, model.RoleWorker)
	login := env.login(t, "worker1", goodPassword)

	roaming := model.ClientInfo{IP: "192.168.5.20", UserAgent: desktop.UserAgent}
	resolution, err := env.resolver.Resolve(context.Background(), login.Access.Token, login.Refresh.Token, roaming)
	require.NoError(t, err)
	assert.Equal(t, login.Session.ID, resolution.Session.ID)
}

func TestResolverService_UserAgentMismatchRevokesSession(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "worker1", goodPassword, model.RoleWorker)
	login := env.login(t, "worker1", goodPassword)

	env.clock.Advance(25 * time.Minute)
	stolen := model.ClientInfo{IP: desktop.IP, UserAgent: "curl/8.5.0"}
	_, err := env.resolver.Resolve(context.Background(), login.Access.Token, login.Refresh.Token, stolen)
	require.ErrorIs(t, err, model.ErrUnauthenticated)

	stored := env.store.session(t, login.Session.ID)
	assert.False(t, stored.IsActive)
	assert.Equal(t, model.ReasonUserAgentMismatch, *stored.DeactivationReason)
	assert.Equal(t, 1, env.metrics.get("refresh:failure"))

	_, revoked := env.store.revokedToken(login.Refresh.JTI)
	assert.True(t, revoked)
}

func TestResolverService_IdleSessionIsDeactivated(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "worker1", goodPassword, model.RoleWorker)
	login := env.login(t, "worker1", goodPassword)

	env.clock.Advance(73 * time.Hour)
	_, err := env.resolver.Resolve(context.Background(), login.Access.Token, login.Refresh.Token, desktop)
	require.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.ErrorIs(t, err, model.ErrSessionInactive)

	stored := env.store.session(t, login.Session.ID)
	assert.False(t, stored.IsActive)
	assert.Equal(t, model.ReasonInactivity, *stored.DeactivationReason)
}

func TestResolverService_OldAccessTokenAfterRefresh(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "worker1", goodPassword, model.RoleWorker)
	login := env.login(t, "worker1", goodPassword)
	ctx := context.Background()

	env.clock.Advance(21 * time.Minute)
	first, err := env.resolver.Resolve(ctx, login.Access.Token, login.Refresh.Token, desktop)
	require.NoError(t, err)
	require.NotNil(t, first.Rotated)

	// вторая вкладка со старым access токеном получает свой новый токен по тому же refresh
	second, err := env.resolver.Resolve(ctx, login.Access.Token, login.Refresh.Token, desktop)
	require.NoError(t, err)
	require.NotNil(t, second.Rotated)
	assert.NotEqual(t, first.Rotated.Access.JTI, second.Rotated.Access.JTI)
	assert.Equal(t, second.Rotated.Access.JTI, env.store.session(t, login.Session.ID).AccessTokenJTI)
}

func TestResolverService_SupersededAccessTokenFallsBackToRefresh(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "worker1", goodPassword, model.RoleWorker)
	login := env.login(t, "worker1", goodPassword)
	ctx := context.Background()

	env.clock.Advance(21 * time.Minute)
	first, err := env.resolver.Resolve(ctx, login.Access.Token, login.Refresh.Token, desktop)
	require.NoError(t, err)
	second, err := env.resolver.Resolve(ctx, login.Access.Token, login.Refresh.Token, desktop)
	require.NoError(t, err)
	require.NotEqual(t, first.Rotated.Access.JTI, second.Rotated.Access.JTI)

	// первая вкладка приходит с токеном, который сессия уже не хранит
	_, err = env.resolver.Resolve(ctx, first.Rotated.Access.Token, "", desktop)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	third, err := env.resolver.Resolve(ctx, first.Rotated.Access.Token, login.Refresh.Token, desktop)
	require.NoError(t, err)
	require.NotNil(t, third.Rotated)
	assert.Equal(t, login.Session.ID, third.Session.ID)
	assert.Equal(t, third.Rotated.Access.JTI, env.store.session(t, login.Session.ID).AccessTokenJTI)
	assert.Equal(t, 3, env.metrics.get("refresh:success"))

	require.NoError(t, env.auth.Logout(ctx, login.Session.ID, login.User.ID))
	_, err = env.resolver.Resolve(ctx, first.Rotated.Access.Token, login.Refresh.Token, desktop)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.ErrorIs(t, err, model.ErrTokenRevoked)
}
