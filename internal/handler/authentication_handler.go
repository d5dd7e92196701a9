package handler

import (
	"factory-server/internal/middleware"
	"factory-server/internal/model"
	"factory-server/internal/model/requestresponse"
	"factory-server/internal/ports"
	"factory-server/internal/security"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
	cookies *security.CookieManager
	logger  *zap.Logger
}

func NewAuthenticationHandler(
	authenticationService ports.AuthenticationService,
	cookies *security.CookieManager,
	logger *zap.Logger,
) *AuthenticationHandler {
	return &AuthenticationHandler{
		authenticationService,
		cookies,
		logger,
	}
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Проверяет логин и пароль, создает сессию и выставляет cookie access_token и refresh_token.
// @Description После серии неудачных попыток учетная запись временно блокируется (423 и заголовок Retry-After).
// @Tags Authentication
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} requestresponse.LoginResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный запрос или ip клиента"
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный логин или пароль"
// @Failure 423 {object} requestresponse.ErrorResponse "Учетная запись заблокирована"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(w, r, &req); err != nil {
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			sendErrorResponse(w, http.StatusBadRequest, "некорректная форма")
			return
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		sendErrorResponse(w, http.StatusBadRequest, "username и password обязательны")
		return
	}

	result, err := h.AuthenticationService.Login(r.Context(), req.Username, req.Password, middleware.ClientInfo(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.cookies.SetTokens(w, r, result.Access, result.Refresh)
	writeJSON(w, http.StatusOK, requestresponse.LoginResponse{
		Success: true,
		User:    requestresponse.NewUserResponse(result.User),
	})
}

// Logout godoc
// @Summary Выход
// @Description Завершает текущую сессию и очищает cookie. Повторный вызов безопасен.
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.LoginResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/logout [post]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.CurrentSession(r.Context())
	user := middleware.CurrentUser(r.Context())

	if session != nil && user != nil {
		if err := h.AuthenticationService.Logout(r.Context(), session.ID, user.ID); err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		h.logger.Info("выход", zap.String("user", user.Username), zap.String("session", session.ID))
	}

	h.cookies.Clear(w, r)
	writeJSON(w, http.StatusOK, requestresponse.LoginResponse{Success: true})
}

// RefreshToken godoc
// @Summary Явное обновление токенов
// @Description Для клиентов без браузера. Проверка и обновление выполняются так же, как на любом защищенном запросе.
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.RefreshTokenResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	resp := requestresponse.RefreshTokenResponse{}

	if rotated := middleware.RotatedTokens(r.Context()); rotated != nil && rotated.Access != nil {
		resp.Refreshed = true
		resp.AccessExpiresAt = &rotated.Access.ExpiresAt
		resp.RefreshRotated = rotated.Refresh != nil
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCurrentUser godoc
// @Summary Текущий пользователь
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthenticationHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	session := middleware.CurrentSession(r.Context())
	if user == nil || session == nil {
		sendErrorResponse(w, http.StatusUnauthorized, "не авторизован")
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	writeJSON(w, http.StatusOK, requestresponse.CurrentUserResponse{
		User:      requestresponse.NewUserResponse(user),
		SessionID: session.ID,
	})
}

// GetCurrentUserHead godoc
// @Summary Проверка аутентификации
// @Tags Authentication
// @Success 200
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [head]
func (h *AuthenticationHandler) GetCurrentUserHead(w http.ResponseWriter, r *http.Request) {
	h.GetCurrentUser(w, r)
}

// ListSessions godoc
// @Summary Активные сессии текущего пользователя
// @Description Последние по активности первыми, текущая сессия помечена current=true
// @Tags Sessions
// @Produce json
// @Success 200 {object} requestresponse.SessionsResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/sessions [get]
func (h *AuthenticationHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	session := middleware.CurrentSession(r.Context())

	sessions, err := h.AuthenticationService.ListSessions(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := requestresponse.SessionsResponse{Sessions: make([]requestresponse.SessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, requestresponse.NewSessionResponse(s, session.ID))
	}
	writeJSON(w, http.StatusOK, resp)
}

// RevokeSession godoc
// @Summary Завершение сессии
// @Description Пользователь завершает свою сессию, администратор любую
// @Tags Sessions
// @Param id path string true "ID сессии"
// @Success 204
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Router /api/auth/sessions/{id} [delete]
func (h *AuthenticationHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, h.logger, model.ErrSessionNotFound)
	if !ok {
		return
	}
	user := middleware.CurrentUser(r.Context())

	if err := h.AuthenticationService.RevokeSession(r.Context(), user, sessionID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if current := middleware.CurrentSession(r.Context()); current != nil && current.ID == sessionID {
		h.cookies.Clear(w, r)
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevokeOtherSessions godoc
// @Summary Завершение всех остальных сессий
// @Tags Sessions
// @Produce json
// @Success 200 {object} requestresponse.RevokedCountResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/auth/sessions [delete]
func (h *AuthenticationHandler) RevokeOtherSessions(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	session := middleware.CurrentSession(r.Context())

	revoked, err := h.AuthenticationService.RevokeOtherSessions(r.Context(), user, session.ID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, requestresponse.RevokedCountResponse{Revoked: revoked})
}
