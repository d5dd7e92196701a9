package service_test

import (
	"context"
	"factory-server/config"
	"factory-server/internal/model"
	"factory-server/internal/ports"
	"factory-server/internal/security"
	"factory-server/internal/service"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "test-secret-key-0123456789-abcdefghijklmnop"

var baseTime = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

// fakeTransactor : транзакция без БД, считает commit и rollback
type fakeTransactor struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (f *fakeTransactor) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	done := false
	commit := func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		done = true
		f.commits++
		return nil
	}
	rollback := func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !done {
			done = true
			f.rollbacks++
		}
		return nil
	}
	return nil, commit, rollback, nil
}

// memStore : хранилище в памяти для users, user_sessions и revoked_tokens
type memStore struct {
	mu       sync.Mutex
	users    map[string]model.User
	sessions map[string]model.Session
	revoked  map[string]model.RevokedToken

	updateTokensErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]model.User{},
		sessions: map[string]model.Session{},
		revoked:  map[string]model.RevokedToken{},
	}
}

type memUsers struct{ *memStore }
type memSessions struct{ *memStore }
type memRevoked struct{ *memStore }

func (s memUsers) Create(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, model.ErrUserExists
		}
	}
	created := *user
	created.CreatedAt = baseTime
	s.users[created.ID] = created
	return &created, nil
}

func (s memUsers) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (s memUsers) FindByUsername(ctx context.Context, exec sqlx.ExtContext, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (s memUsers) FindByUsernameForUpdate(ctx context.Context, exec sqlx.ExtContext, username string) (*model.User, error) {
	return s.FindByUsername(ctx, exec, username)
}

func (s memUsers) FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (s memUsers) UpdatePassword(ctx context.Context, exec sqlx.ExtContext, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.FailedLoginAttempts = 0
	u.LastFailedLogin = nil
	s.users[id] = u
	return nil
}

func (s memUsers) RecordFailedLogin(ctx context.Context, exec sqlx.ExtContext, id string, attempts int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.FailedLoginAttempts = attempts
	u.LastFailedLogin = &at
	s.users[id] = u
	return nil
}

func (s memUsers) ResetFailedLogins(ctx context.Context, exec sqlx.ExtContext, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.FailedLoginAttempts = 0
	u.LastFailedLogin = nil
	s.users[id] = u
	return nil
}

func (s memUsers) UpdateRole(ctx context.Context, exec sqlx.ExtContext, id string, role model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.Role = role
	s.users[id] = u
	return nil
}

func (s memSessions) Create(ctx context.Context, exec sqlx.ExtContext, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.AccessTokenJTI == session.AccessTokenJTI || existing.RefreshTokenJTI == session.RefreshTokenJTI {
			return model.ErrSessionConflict
		}
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s memSessions) find(match func(model.Session) bool) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if match(session) {
			found := session
			return &found, nil
		}
	}
	return nil, model.ErrSessionNotFound
}

func (s memSessions) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.Session, error) {
	return s.find(func(m model.Session) bool { return m.ID == id })
}

func (s memSessions) FindByAccessJTI(ctx context.Context, exec sqlx.ExtContext, jti string) (*model.Session, error) {
	return s.find(func(m model.Session) bool { return m.AccessTokenJTI == jti })
}

func (s memSessions) FindByRefreshJTIForUpdate(ctx context.Context, exec sqlx.ExtContext, jti string) (*model.Session, error) {
	return s.find(func(m model.Session) bool { return m.RefreshTokenJTI == jti })
}

func (s memSessions) filter(match func(model.Session) bool, less func(a, b model.Session) bool) []model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Session
	for _, session := range s.sessions {
		if match(session) {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (s memSessions) ListActiveByUser(ctx context.Context, exec sqlx.ExtContext, userID string) ([]model.Session, error) {
	return s.filter(
		func(m model.Session) bool { return m.UserID == userID && m.IsActive },
		func(a, b model.Session) bool { return a.LastActivity.After(b.LastActivity) },
	), nil
}

func (s memSessions) ListActiveByUserForUpdate(ctx context.Context, exec sqlx.ExtContext, userID string) ([]model.Session, error) {
	return s.filter(
		func(m model.Session) bool { return m.UserID == userID && m.IsActive },
		func(a, b model.Session) bool { return a.CreatedAt.Before(b.CreatedAt) },
	), nil
}

func (s memSessions) CountActiveByUser(ctx context.Context, exec sqlx.ExtContext, userID string) (int, error) {
	active, _ := s.ListActiveByUser(ctx, exec, userID)
	return len(active), nil
}

func (s memSessions) Deactivate(ctx context.Context, exec sqlx.ExtContext, id, reason string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok || !session.IsActive {
		return false, nil
	}
	session.IsActive = false
	session.ExpiredAt = &at
	session.DeactivationReason = &reason
	s.sessions[id] = session
	return true, nil
}

func (s memSessions) UpdateTokens(ctx context.Context, exec sqlx.ExtContext, id, oldRefreshJTI, accessJTI, refreshJTI string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateTokensErr != nil {
		return s.updateTokensErr
	}
	session, ok := s.sessions[id]
	if !ok || !session.IsActive || session.RefreshTokenJTI != oldRefreshJTI {
		return model.ErrSessionConflict
	}
	session.AccessTokenJTI = accessJTI
	session.RefreshTokenJTI = refreshJTI
	session.LastActivity = at
	s.sessions[id] = session
	return nil
}

func (s memSessions) Touch(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return model.ErrSessionNotFound
	}
	session.LastActivity = at
	s.sessions[id] = session
	return nil
}

func (s memSessions) ListIdleSince(ctx context.Context, exec sqlx.ExtContext, before time.Time) ([]model.Session, error) {
	return s.filter(
		func(m model.Session) bool { return m.IsActive && m.LastActivity.Before(before) },
		func(a, b model.Session) bool { return a.LastActivity.Before(b.LastActivity) },
	), nil
}

func (s memSessions) ListLastActiveBefore(ctx context.Context, exec sqlx.ExtContext, before time.Time) ([]model.Session, error) {
	return s.filter(
		func(m model.Session) bool { return m.LastActivity.Before(before) },
		func(a, b model.Session) bool { return a.LastActivity.Before(b.LastActivity) },
	), nil
}

func (s memSessions) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := s.sessions[id]; ok {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (s memRevoked) Insert(ctx context.Context, exec sqlx.ExtContext, token *model.RevokedToken) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.revoked[token.JTI]; ok {
		return false, nil
	}
	s.revoked[token.JTI] = *token
	return true, nil
}

func (s memRevoked) FindExpiry(ctx context.Context, exec sqlx.ExtContext, jti string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.revoked[jti]
	if !ok {
		return nil, nil
	}
	return &token.ExpiresAt, nil
}

func (s memRevoked) DeleteExpired(ctx context.Context, exec sqlx.ExtContext, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for jti, token := range s.revoked {
		if !token.ExpiresAt.After(now) {
			delete(s.revoked, jti)
			n++
		}
	}
	return n, nil
}

func (s *memStore) session(t *testing.T, id string) model.Session {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	require.True(t, ok, "сессия %s не найдена", id)
	return session
}

func (s *memStore) revokedToken(jti string) (model.RevokedToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.revoked[jti]
	return token, ok
}

func (s *memStore) user(t *testing.T, id string) model.User {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	require.True(t, ok)
	return u
}

// countingMetrics : счетчики по ключу "вид:метка"
type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counts: map[string]int{}}
}

func (m *countingMetrics) add(key string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key] += n
}

func (m *countingMetrics) get(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

func (m *countingMetrics) LoginAttempt(result string)          { m.add("login:"+result, 1) }
func (m *countingMetrics) TokenRefresh(result string)          { m.add("refresh:"+result, 1) }
func (m *countingMetrics) SessionRevoked(reason string)        { m.add("revoked:"+reason, 1) }
func (m *countingMetrics) CleanupRun(result string)            { m.add("cleanup:"+result, 1) }
func (m *countingMetrics) CleanupItems(kind string, count int) { m.add("items:"+kind, count) }

type MockRevocationCache struct {
	mock.Mock
}

func (m *MockRevocationCache) MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error {
	args := m.Called(ctx, jti, ttl)
	return args.Error(0)
}

func (m *MockRevocationCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

// memCodes : коды восстановления в памяти, окно счетчиков не истекает
type memCodes struct {
	mu     sync.Mutex
	codes  map[string]string
	ttls   map[string]time.Duration
	counts map[string]int
}

func newMemCodes() *memCodes {
	return &memCodes{codes: map[string]string{}, ttls: map[string]time.Duration{}, counts: map[string]int{}}
}

func (c *memCodes) SaveCode(ctx context.Context, email, code string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email] = code
	c.ttls[email] = ttl
	delete(c.counts, "verify:"+email)
	return nil
}

func (c *memCodes) Code(ctx context.Context, email string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email], nil
}

func (c *memCodes) DeleteCode(ctx context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.codes, email)
	delete(c.counts, "verify:"+email)
	return nil
}

func (c *memCodes) Allow(ctx context.Context, scope, email string, limit int, window time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[scope+":"+email]++
	return c.counts[scope+":"+email] <= limit, nil
}

func (c *memCodes) code(email string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	code, ok := c.codes[email]
	return code, ok
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendRecoveryCode(ctx context.Context, to, code string, ttl time.Duration) error {
	args := m.Called(ctx, to, code, ttl)
	return args.Error(0)
}

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) ArchiveSessions(ctx context.Context, sessions []model.Session) error {
	args := m.Called(ctx, sessions)
	return args.Error(0)
}

func defaultSessionPolicy() config.SessionConfig {
	return config.SessionConfig{
		RefreshThreshold:         10 * time.Minute,
		RefreshRotationThreshold: 48 * time.Hour,
		MaxActiveSessions:        5,
		IdleTimeout:              72 * time.Hour,
		AbsoluteTimeout:          168 * time.Hour,
	}
}

type testEnv struct {
	clock    *clockwork.FakeClock
	store    *memStore
	tx       *fakeTransactor
	metrics  *countingMetrics
	codec    *security.JWTService
	hasher   *security.BcryptHasher
	ledger   *service.RevocationService
	sessions *service.SessionService
	auth     *service.AuthenticationService
	resolver *service.ResolverService
	users    *service.UserService
	policy   config.SessionConfig
}

// newTestEnv : полный набор сервисов поверх memStore. tweak может поменять политику сессий
func newTestEnv(t *testing.T, tweak func(*config.SessionConfig)) *testEnv {
	t.Helper()

	policy := defaultSessionPolicy()
	if tweak != nil {
		tweak(&policy)
	}

	logger := zaptest.NewLogger(t)
	env := &testEnv{
		clock:   clockwork.NewFakeClockAt(baseTime),
		store:   newMemStore(),
		tx:      &fakeTransactor{},
		metrics: newCountingMetrics(),
		hasher:  security.NewBcryptHasher(4),
		policy:  policy,
	}
	env.codec = security.NewJWTService(&config.JWTConfig{
		SecretKey:       testSecret,
		Issuer:          "factory-server",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 168 * time.Hour,
	}, env.clock)

	users := memUsers{env.store}
	env.ledger = service.NewRevocationService(memRevoked{env.store}, nil, env.codec, env.clock, logger)
	env.sessions = service.NewSessionService(memSessions{env.store}, env.ledger, policy, env.clock, env.metrics, logger)
	env.auth = service.NewAuthenticationService(env.tx, users, env.sessions, env.ledger, env.codec, env.hasher,
		config.LockoutConfig{MaxFailedAttempts: 5, Window: 15 * time.Minute}, env.clock, env.metrics, logger)
	env.resolver = service.NewResolverService(env.tx, users, env.sessions, env.ledger, env.codec, policy,
		env.clock, env.metrics, logger)
	env.users = service.NewUserService(env.tx, users, env.hasher, logger)

	return env
}

func (e *testEnv) addUser(t *testing.T, username, password string, role model.Role) *model.User {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)

	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@factory.local",
		FullName:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    baseTime,
	}
	e.store.mu.Lock()
	e.store.users[user.ID] = user
	e.store.mu.Unlock()
	return &user
}

var desktop = model.ClientInfo{IP: "10.0.0.15", UserAgent: "Mozilla/5.0 (X11; Linux x86_64)"}

func (e *testEnv) login(t *testing.T, username, password string) *model.LoginResult {
	t.Helper()
	result, err := e.auth.Login(context.Background(), username, password, desktop)
	require.NoError(t, err)
	return result
}

var (
	_ ports.UserRepository         = memUsers{}
	_ ports.SessionRepository      = memSessions{}
	_ ports.RevokedTokenRepository = memRevoked{}
	_ ports.AuthMetrics            = (*countingMetrics)(nil)
	_ ports.RecoveryCodeStore      = (*memCodes)(nil)
	_ ports.Mailer                 = (*MockMailer)(nil)
)
