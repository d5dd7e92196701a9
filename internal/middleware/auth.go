package middleware

import (
	"context"
	"errors"
	"factory-server/internal/model"
	"factory-server/internal/ports"
	"factory-server/internal/security"
	"factory-server/internal/util"
	"net"
	"net/http"

	"go.uber.org/zap"
)

type contextKey string

const (
	userContextKey    contextKey = "user"
	sessionContextKey contextKey = "session"
	rotatedContextKey contextKey = "rotated"
)

// Authenticator : проверка cookie access_token/refresh_token на каждом запросе.
// Если резолвер выпустил новые токены, Set-Cookie пишется до вызова обработчика.
type Authenticator struct {
	resolver ports.Resolver
	cookies  *security.CookieManager
	logger   *zap.Logger
}

func NewAuthenticator(resolver ports.Resolver, cookies *security.CookieManager, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		resolver: resolver,
		cookies:  cookies,
		logger:   logger,
	}
}

// RequireAuth : без валидной сессии запрос получает 401 и очищенные cookie
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := a.authenticate(w, r)
		if err != nil {
			if isAuthFailure(err) {
				a.cookies.Clear(w, r)
				util.HandleError(w, "не авторизован", http.StatusUnauthorized)
				return
			}
			a.logger.Error("ошибка проверки сессии", zap.Error(err), zap.String("path", r.URL.Path))
			util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// OptionalAuth : пользователь в контексте, если он есть. Невалидные cookie очищаются
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if security.ReadToken(r, security.AccessTokenCookie) == "" {
			next.ServeHTTP(w, r)
			return
		}

		req, err := a.authenticate(w, r)
		if err != nil {
			if !isAuthFailure(err) {
				a.logger.Error("ошибка проверки сессии", zap.Error(err), zap.String("path", r.URL.Path))
				util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
				return
			}
			a.cookies.Clear(w, r)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (a *Authenticator) authenticate(w http.ResponseWriter, r *http.Request) (*http.Request, error) {
	access := security.ReadToken(r, security.AccessTokenCookie)
	refresh := security.ReadToken(r, security.RefreshTokenCookie)

	resolution, err := a.resolver.Resolve(r.Context(), access, refresh, ClientInfo(r))
	if err != nil {
		if isAuthFailure(err) {
			a.logger.Debug("запрос не аутентифицирован", zap.Error(err), zap.String("path", r.URL.Path))
		}
		return nil, err
	}

	if resolution.Rotated != nil {
		a.cookies.SetTokens(w, r, resolution.Rotated.Access, resolution.Rotated.Refresh)
	}

	ctx := context.WithValue(r.Context(), userContextKey, resolution.User)
	ctx = context.WithValue(ctx, sessionContextKey, resolution.Session)
	ctx = context.WithValue(ctx, rotatedContextKey, resolution.Rotated)
	return r.WithContext(ctx), nil
}

func isAuthFailure(err error) bool {
	return errors.Is(err, model.ErrUnauthenticated) || errors.Is(err, model.ErrUserNotFound)
}

// RequireRole : ставится после RequireAuth
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := security.RequireRole(CurrentUser(r.Context()), roles...); err != nil {
				if errors.Is(err, model.ErrUnauthenticated) {
					util.HandleError(w, "не авторизован", http.StatusUnauthorized)
					return
				}
				util.HandleError(w, "доступ запрещён", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func CurrentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

func CurrentSession(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}

// RotatedTokens : токены, выпущенные при тихом обновлении в этом запросе, или nil
func RotatedTokens(ctx context.Context) *model.RotatedTokens {
	rotated, _ := ctx.Value(rotatedContextKey).(*model.RotatedTokens)
	return rotated
}

// ClientInfo : адрес берется из RemoteAddr, за прокси его выставляет chi middleware.RealIP
func ClientInfo(r *http.Request) model.ClientInfo {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return model.ClientInfo{IP: host, UserAgent: r.UserAgent()}
}
