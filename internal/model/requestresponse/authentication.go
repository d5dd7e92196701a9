package requestresponse

import (
	"factory-server/internal/model"
	"time"
)

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Username string `json:"username" example:"master1"`
	Password string `json:"password" example:"P@ssw0rd123"`
}

// LoginResponse : ответ на успешную аутентификацию, токены передаются в cookie
type LoginResponse struct {
	Success bool          `json:"success" example:"true"`
	User    *UserResponse `json:"user"`
}

// CurrentUserResponse : информация о текущем пользователе
type CurrentUserResponse struct {
	User      *UserResponse `json:"user"`
	SessionID string        `json:"session_id" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
}

// RefreshTokenResponse : результат явного обновления
type RefreshTokenResponse struct {
	Refreshed       bool       `json:"refreshed" example:"true"`
	AccessExpiresAt *time.Time `json:"access_expires_at,omitempty"`
	RefreshRotated  bool       `json:"refresh_rotated" example:"false"`
}

// SessionResponse : сессия пользователя
type SessionResponse struct {
	ID           string    `json:"id" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
	IPAddress    string    `json:"ip_address" example:"10.0.0.15"`
	UserAgent    string    `json:"user_agent" example:"Mozilla/5.0"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Current      bool      `json:"current" example:"true"`
}

// SessionsResponse : список активных сессий
type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// RevokedCountResponse : количество завершенных сессий
type RevokedCountResponse struct {
	Revoked int `json:"revoked" example:"3"`
}

// RevokeTokenRequest : принудительный отзыв токена администратором
type RevokeTokenRequest struct {
	JTI       string `json:"jti" example:"5f0c3a8e-3b7c-4a53-9b0e-2f1c8f9d2a11"`
	TokenType string `json:"token_type" example:"refresh"`
	Reason    string `json:"reason" example:"утерян терминал"`
}

func NewSessionResponse(session model.Session, currentID string) SessionResponse {
	return SessionResponse{
		ID:           session.ID,
		IPAddress:    session.IPAddress,
		UserAgent:    session.UserAgent,
		CreatedAt:    session.CreatedAt,
		LastActivity: session.LastActivity,
		Current:      session.ID == currentID,
	}
}

// ForgotPasswordRequest : запрос кода сброса пароля
type ForgotPasswordRequest struct {
	Email string `json:"email" example:"worker1@factory.local"`
}

// ResetPasswordRequest : новый пароль по коду из письма
type ResetPasswordRequest struct {
	Email       string `json:"email" example:"worker1@factory.local"`
	Code        string `json:"code" example:"042917"`
	NewPassword string `json:"new_password" example:"N3wSecretPass"`
}

// StatusResponse : ответ без данных
type StatusResponse struct {
	Success bool `json:"success" example:"true"`
}
