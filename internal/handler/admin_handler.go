package handler

import (
	"factory-server/internal/middleware"
	"factory-server/internal/model"
	"factory-server/internal/model/requestresponse"
	"factory-server/internal/ports"
	"net/http"

	"go.uber.org/zap"
)

// AdminHandler : управление чужими сессиями и токенами, маршруты закрыты RequireRole(admin)
type AdminHandler struct {
	auth   ports.AuthenticationService
	logger *zap.Logger
}

func NewAdminHandler(auth ports.AuthenticationService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{auth: auth, logger: logger}
}

// ListUserSessions godoc
// @Summary Активные сессии пользователя
// @Tags Admin
// @Produce json
// @Param id path string true "ID пользователя"
// @Success 200 {object} requestresponse.SessionsResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Router /api/admin/users/{id}/sessions [get]
func (h *AdminHandler) ListUserSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, h.logger, model.ErrUserNotFound)
	if !ok {
		return
	}

	sessions, err := h.auth.ListSessions(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := requestresponse.SessionsResponse{Sessions: make([]requestresponse.SessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, requestresponse.NewSessionResponse(s, ""))
	}
	writeJSON(w, http.StatusOK, resp)
}

// RevokeUserSessions godoc
// @Summary Завершение всех сессий пользователя
// @Tags Admin
// @Produce json
// @Param id path string true "ID пользователя"
// @Success 200 {object} requestresponse.RevokedCountResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Router /api/admin/users/{id}/sessions [delete]
func (h *AdminHandler) RevokeUserSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, h.logger, model.ErrUserNotFound)
	if !ok {
		return
	}

	revoked, err := h.auth.RevokeAllForUser(r.Context(), middleware.CurrentUser(r.Context()), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, requestresponse.RevokedCountResponse{Revoked: revoked})
}

// RevokeToken godoc
// @Summary Принудительный отзыв токена
// @Description Отзывает один jti до истечения его естественного срока жизни
// @Tags Admin
// @Accept json
// @Param body body requestresponse.RevokeTokenRequest true "jti и тип токена"
// @Success 204
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Router /api/admin/tokens/revoke [post]
func (h *AdminHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RevokeTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	err := h.auth.RevokeToken(r.Context(), middleware.CurrentUser(r.Context()), req.JTI, model.TokenKind(req.TokenType), req.Reason)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
