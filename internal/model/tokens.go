package model

import "time"

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

func (k TokenKind) Valid() bool {
	return k == TokenAccess || k == TokenRefresh
}

// IssuedToken : подписанный токен и его jti
type IssuedToken struct {
	Token     string
	JTI       string
	Kind      TokenKind
	ExpiresAt time.Time
}

// RotatedTokens : токены, выпущенные при тихом обновлении. Refresh может быть nil
type RotatedTokens struct {
	Access  *IssuedToken
	Refresh *IssuedToken
}

// RevokedToken : запись журнала отзыва
type RevokedToken struct {
	JTI             string    `db:"jti"`
	SessionID       *string   `db:"session_id"`
	RevokedAt       time.Time `db:"revoked_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	RevokedByUserID *string   `db:"revoked_by_user_id"`
	Reason          string    `db:"reason"`
	TokenType       TokenKind `db:"token_type"`
}

type LoginResult struct {
	User    *User
	Session *Session
	Access  *IssuedToken
	Refresh *IssuedToken
}

// Resolution : результат разбора cookie текущего запроса
type Resolution struct {
	User    *User
	Session *Session
	Rotated *RotatedTokens
}
