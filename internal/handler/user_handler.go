package handler

import (
	"factory-server/internal/middleware"
	"factory-server/internal/model"
	"factory-server/internal/model/requestresponse"
	"factory-server/internal/ports"
	"net/http"

	"go.uber.org/zap"
)

type UserHandler struct {
	ports.UserService
	logger *zap.Logger
}

func NewUserHandler(userService ports.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService, logger}
}

// RegisterUser godoc
// @Summary Регистрация нового пользователя
// @Description Создает пользователя с ролью worker. Пароль не короче 8 символов, буквы в разных регистрах и цифра.
// @Tags Users
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 201 {object} requestresponse.UserResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse "Логин или email уже заняты"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/register [post]
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	user, err := h.UserService.Register(r.Context(), req.Username, req.Email, req.FullName, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, requestresponse.NewUserResponse(user))
}

// GetUser godoc
// @Summary Пользователь по ID
// @Tags Admin
// @Produce json
// @Param id path string true "ID пользователя"
// @Success 200 {object} requestresponse.UserResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Router /api/admin/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, h.logger, model.ErrUserNotFound)
	if !ok {
		return
	}

	user, err := h.UserService.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, requestresponse.NewUserResponse(user))
}

// UpdateRole godoc
// @Summary Смена роли пользователя
// @Description Доступно только администратору. Роли: admin, master, adjuster, worker.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "ID пользователя"
// @Param body body requestresponse.UpdateRoleRequest true "Новая роль"
// @Success 200 {object} requestresponse.UserResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Router /api/admin/users/{id}/role [put]
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, h.logger, model.ErrUserNotFound)
	if !ok {
		return
	}

	var req requestresponse.UpdateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	user, err := h.UserService.UpdateRole(r.Context(), middleware.CurrentUser(r.Context()), userID, model.Role(req.Role))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, requestresponse.NewUserResponse(user))
}
