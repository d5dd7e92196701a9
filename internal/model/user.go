package model

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMaster   Role = "master"
	RoleAdjuster Role = "adjuster"
	RoleWorker   Role = "worker"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMaster, RoleAdjuster, RoleWorker:
		return true
	}
	return false
}

type User struct {
	ID                  string     `db:"id" json:"id"`
	Username            string     `db:"username" json:"username"`
	Email               string     `db:"email" json:"email"`
	FullName            string     `db:"full_name" json:"full_name"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Role                Role       `db:"role" json:"role"`
	IsActive            bool       `db:"is_active" json:"is_active"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LastFailedLogin     *time.Time `db:"last_failed_login" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}
