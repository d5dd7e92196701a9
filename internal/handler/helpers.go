package handler

import (
	"encoding/json"
	"errors"
	"factory-server/internal/model"
	"factory-server/internal/util"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	util.HandleError(w, message, statusCode)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("ошибка кодирования ответа", zap.Error(err))
	}
}

// pathID : {id} из пути в каноничной форме UUID. Иначе ответ notFound и false
func pathID(w http.ResponseWriter, r *http.Request, logger *zap.Logger, notFound error) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, logger, notFound)
		return "", false
	}
	return id.String(), true
}

// writeServiceError : ошибка сервиса в HTTP статус
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var locked model.AccountLockedError

	switch {
	case errors.As(err, &locked):
		retry := int(math.Ceil(locked.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		sendErrorResponse(w, http.StatusLocked, locked.Error())
	case errors.Is(err, model.ErrInvalidCredentials):
		sendErrorResponse(w, http.StatusUnauthorized, model.ErrInvalidCredentials.Error())
	case errors.Is(err, model.ErrUnauthenticated):
		sendErrorResponse(w, http.StatusUnauthorized, model.ErrUnauthenticated.Error())
	case errors.Is(err, model.ErrForbidden):
		sendErrorResponse(w, http.StatusForbidden, model.ErrForbidden.Error())
	case errors.Is(err, model.ErrUserExists):
		sendErrorResponse(w, http.StatusConflict, model.ErrUserExists.Error())
	case errors.Is(err, model.ErrTooManyRequests):
		sendErrorResponse(w, http.StatusTooManyRequests, model.ErrTooManyRequests.Error())
	case errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrWeakPassword),
		errors.Is(err, model.ErrInvalidResetCode),
		errors.Is(err, model.ErrInvalidRole),
		errors.Is(err, model.ErrInvalidClientIP):
		sendErrorResponse(w, http.StatusBadRequest, publicMessage(err))
	case errors.Is(err, model.ErrSessionNotFound),
		errors.Is(err, model.ErrUserNotFound):
		sendErrorResponse(w, http.StatusNotFound, publicMessage(err))
	default:
		logger.Error("внутренняя ошибка", zap.Error(err))
		sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
	}
}

// publicMessage : текст ошибки без префиксов вида "[UserService] "
func publicMessage(err error) string {
	msg := err.Error()
	for strings.HasPrefix(msg, "[") {
		end := strings.Index(msg, "] ")
		if end < 0 {
			break
		}
		msg = msg[end+2:]
	}
	return msg
}
