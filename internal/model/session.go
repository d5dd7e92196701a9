package model

import "time"

// Причины деактивации сессии и отзыва токенов
const (
	ReasonLogout            = "logout"
	ReasonUserRevoked       = "user_revoked"
	ReasonAdminRevoked      = "admin_revoked"
	ReasonTooManySessions   = "too_many_sessions"
	ReasonRotation          = "rotation"
	ReasonInactivity        = "inactivity"
	ReasonExpired           = "expired"
	ReasonUserAgentMismatch = "user_agent_mismatch"
	ReasonPasswordReset     = "password_reset"
)

// Session : запись о входе пользователя, поведение живет в SessionService
type Session struct {
	ID                 string     `db:"id" json:"id"`
	UserID             string     `db:"user_id" json:"user_id"`
	IPAddress          string     `db:"ip_address" json:"ip_address"`
	UserAgent          string     `db:"user_agent" json:"user_agent"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	LastActivity       time.Time  `db:"last_activity" json:"last_activity"`
	IsActive           bool       `db:"is_active" json:"is_active"`
	AccessTokenJTI     string     `db:"access_token_jti" json:"-"`
	RefreshTokenJTI    string     `db:"refresh_token_jti" json:"-"`
	ExpiredAt          *time.Time `db:"expired_at" json:"expired_at,omitempty"`
	DeactivationReason *string    `db:"deactivation_reason" json:"deactivation_reason,omitempty"`
}

// ClientInfo : данные клиента, к которым привязываются сессия и токены
type ClientInfo struct {
	IP        string
	UserAgent string
}

type CleanupReport struct {
	Deactivated    int
	Archived       int
	DeletedSession int64
	PurgedTokens   int64
}
