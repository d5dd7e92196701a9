package ports

import (
	"factory-server/internal/model"
	"factory-server/internal/security"
	"time"
)

type TokenCodec interface {
	Issue(kind model.TokenKind, subject string, client model.ClientInfo) (*model.IssuedToken, error)
	Decode(token string, verifyExpiry bool) (*security.Claims, error)
	TTL(kind model.TokenKind) time.Duration
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}
