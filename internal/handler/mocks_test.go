package handler_test

import (
	"context"
	"factory-server/config"
	"factory-server/internal/handler"
	"factory-server/internal/middleware"
	"factory-server/internal/model"
	"factory-server/internal/security"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, username, password string, client model.ClientInfo) (*model.LoginResult, error) {
	args := m.Called(ctx, username, password, client)
	result, _ := args.Get(0).(*model.LoginResult)
	return result, args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, sessionID, actorID string) error {
	args := m.Called(ctx, sessionID, actorID)
	return args.Error(0)
}

func (m *MockAuthService) ListSessions(ctx context.Context, userID string) ([]model.Session, error) {
	args := m.Called(ctx, userID)
	sessions, _ := args.Get(0).([]model.Session)
	return sessions, args.Error(1)
}

func (m *MockAuthService) RevokeSession(ctx context.Context, actor *model.User, sessionID string) error {
	args := m.Called(ctx, actor, sessionID)
	return args.Error(0)
}

func (m *MockAuthService) RevokeOtherSessions(ctx context.Context, actor *model.User, keepSessionID string) (int, error) {
	args := m.Called(ctx, actor, keepSessionID)
	return args.Int(0), args.Error(1)
}

func (m *MockAuthService) RevokeAllForUser(ctx context.Context, actor *model.User, userID string) (int, error) {
	args := m.Called(ctx, actor, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockAuthService) RevokeToken(ctx context.Context, actor *model.User, jti string, kind model.TokenKind, reason string) error {
	args := m.Called(ctx, actor, jti, kind, reason)
	return args.Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, username, email, fullName, password string) (*model.User, error) {
	args := m.Called(ctx, username, email, fullName, password)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *MockUserService) UpdateRole(ctx context.Context, actor *model.User, userID string, role model.Role) (*model.User, error) {
	args := m.Called(ctx, actor, userID, role)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

type MockRecoveryService struct {
	mock.Mock
}

func (m *MockRecoveryService) RequestReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockRecoveryService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	args := m.Called(ctx, email, code, newPassword)
	return args.Error(0)
}

// stubResolver : каждый валидный access токен из карты соответствует своему разрешению
type stubResolver struct {
	resolutions map[string]*model.Resolution
}

func (s *stubResolver) Resolve(ctx context.Context, accessToken, refreshToken string, client model.ClientInfo) (*model.Resolution, error) {
	resolution, ok := s.resolutions[accessToken]
	if !ok {
		return nil, model.Unauthenticated(model.ErrMalformedToken)
	}
	return resolution, nil
}

const (
	workerID         = "8a3b1f52-6c1d-4e8a-b0f7-5d2c9e41a7b3"
	adminID          = "c47e0d19-2b8f-4a6e-9d35-71f0a8e2b6c4"
	missingUserID    = "0f9e8d7c-6b5a-4c3d-9e2f-1a0b9c8d7e6f"
	phoneSessionID   = "5e0b7c2a-91d4-4f63-8a2e-c3d1b6f09e74"
	foreignSessionID = "e2f4a6c8-0b1d-4e3f-8a5c-7d9e1f2a3b4c"
)

var (
	testWorker = &model.User{ID: workerID, Username: "worker1", Role: model.RoleWorker, IsActive: true, CreatedAt: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)}
	testAdmin  = &model.User{ID: adminID, Username: "admin1", Role: model.RoleAdmin, IsActive: true}

	workerSession = &model.Session{ID: "3b6f1e2d-7a8c-4d9e-b0f1-2c3d4e5f6a7b", UserID: workerID, IsActive: true}
	adminSession  = &model.Session{ID: "9c8b7a6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d", UserID: adminID, IsActive: true}
)

type testServer struct {
	router   http.Handler
	auth     *MockAuthService
	users    *MockUserService
	recovery *MockRecoveryService
	resolver *stubResolver
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	cookies := security.NewCookieManager(
		&config.CookieConfig{Secure: "never", SameSite: "lax", Path: "/"},
		&config.JWTConfig{AccessTokenTTL: 30 * time.Minute, RefreshTokenTTL: 168 * time.Hour},
	)

	ts := &testServer{
		auth:     new(MockAuthService),
		users:    new(MockUserService),
		recovery: new(MockRecoveryService),
		resolver: &stubResolver{resolutions: map[string]*model.Resolution{
			"worker-access": {User: testWorker, Session: workerSession},
			"admin-access":  {User: testAdmin, Session: adminSession},
		}},
	}

	authenticator := middleware.NewAuthenticator(ts.resolver, cookies, logger)
	router := chi.NewRouter()
	handler.MountAPI(router, authenticator,
		handler.NewAuthenticationHandler(ts.auth, cookies, logger),
		handler.NewUserHandler(ts.users, logger),
		handler.NewAdminHandler(ts.auth, logger),
		handler.NewRecoveryHandler(ts.recovery, logger),
	)
	ts.router = router
	return ts
}

func (ts *testServer) do(req *http.Request, access string) *httptest.ResponseRecorder {
	if access != "" {
		req.AddCookie(&http.Cookie{Name: security.AccessTokenCookie, Value: access})
		req.AddCookie(&http.Cookie{Name: security.RefreshTokenCookie, Value: "refresh"})
	}
	req.RemoteAddr = "10.0.0.15:40000"
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
