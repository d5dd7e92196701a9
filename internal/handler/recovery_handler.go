package handler

import (
	"factory-server/internal/model/requestresponse"
	"factory-server/internal/ports"
	"net/http"

	"go.uber.org/zap"
)

type RecoveryHandler struct {
	recovery ports.RecoveryService
	logger   *zap.Logger
}

func NewRecoveryHandler(recovery ports.RecoveryService, logger *zap.Logger) *RecoveryHandler {
	return &RecoveryHandler{recovery: recovery, logger: logger}
}

// ForgotPassword godoc
// @Summary Запрос кода сброса пароля
// @Description Отправляет шестизначный код на email. Ответ одинаков для существующих и неизвестных адресов.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body requestresponse.ForgotPasswordRequest true "Email пользователя"
// @Success 202 {object} requestresponse.StatusResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 429 {object} requestresponse.ErrorResponse
// @Router /api/auth/password/forgot [post]
func (h *RecoveryHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	if err := h.recovery.RequestReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, requestresponse.StatusResponse{Success: true})
}

// ResetPassword godoc
// @Summary Сброс пароля по коду
// @Description Устанавливает новый пароль и завершает все сессии пользователя
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body requestresponse.ResetPasswordRequest true "Email, код и новый пароль"
// @Success 200 {object} requestresponse.StatusResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 429 {object} requestresponse.ErrorResponse
// @Router /api/auth/password/reset [post]
func (h *RecoveryHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	if err := h.recovery.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, requestresponse.StatusResponse{Success: true})
}
