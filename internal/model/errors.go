package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("неверный логин или пароль")
	ErrAccountLocked      = errors.New("учетная запись временно заблокирована")
	ErrMalformedToken     = errors.New("некорректный токен")
	ErrInvalidSignature   = errors.New("неверная подпись токена")
	ErrExpiredToken       = errors.New("срок действия токена истек")
	ErrTokenRevoked       = errors.New("токен отозван")
	ErrSessionNotFound    = errors.New("сессия не найдена")
	ErrSessionInactive    = errors.New("сессия неактивна")
	ErrSessionConflict    = errors.New("конфликт при обновлении сессии")
	ErrUserNotFound       = errors.New("пользователь не найден")
	ErrUserExists         = errors.New("пользователь уже существует")
	ErrInvalidRole        = errors.New("неизвестная роль")
	ErrWeakPassword       = errors.New("пароль не удовлетворяет требованиям")
	ErrInvalidInput       = errors.New("некорректные данные")
	ErrUnauthenticated    = errors.New("не авторизован")
	ErrForbidden          = errors.New("доступ запрещён")
	ErrInvalidClientIP    = errors.New("некорректный ip адрес клиента")
	ErrInvalidResetCode   = errors.New("неверный или просроченный код восстановления")
	ErrTooManyRequests    = errors.New("слишком много запросов, повторите позже")
)

// AccountLockedError : блокировка после серии неудачных входов
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e AccountLockedError) Error() string {
	return fmt.Sprintf("%s: повторите через %s", ErrAccountLocked.Error(), e.RetryAfter.Round(time.Second))
}

func (e AccountLockedError) Unwrap() error { return ErrAccountLocked }

// Unauthenticated : оборачивает причину в ErrUnauthenticated
func Unauthenticated(cause error) error {
	if cause == nil {
		return ErrUnauthenticated
	}
	return fmt.Errorf("%w: %w", ErrUnauthenticated, cause)
}
