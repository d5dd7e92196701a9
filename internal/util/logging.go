package util

import (
	"encoding/json"
	"factory-server/config"
	"factory-server/internal/model/requestresponse"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger : создает логгер процесса и делает его глобальным для zap.L()
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("некорректный уровень логирования %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("ошибка создания логгера: %w", err)
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}

func LogError(message string, err error) error {
	zap.L().WithOptions(zap.AddCallerSkip(1)).Error(message, zap.Error(err))
	return fmt.Errorf("%s: %w", message, err)
}

// HandleError : JSON ответ об ошибке в формате requestresponse.ErrorResponse
func HandleError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := requestresponse.ErrorResponse{
		Error: requestresponse.ErrorDetail{
			Code: statusCode,
			Text: message,
		},
	}

	json.NewEncoder(w).Encode(errorResponse)
}
