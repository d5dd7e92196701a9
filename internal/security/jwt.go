package security

import (
	"errors"
	"factory-server/config"
	"factory-server/internal/model"
	"factory-server/internal/util"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type Claims struct {
	Type      model.TokenKind `json:"type"`
	IP        string          `json:"ip,omitempty"`
	UserAgent string          `json:"user_agent,omitempty"`
	jwt.RegisteredClaims
}

// JWTService : выпуск и проверка access/refresh токенов, у каждого токена свой jti
type JWTService struct {
	cfg   *config.JWTConfig
	clock clockwork.Clock
}

func NewJWTService(cfg *config.JWTConfig, clock clockwork.Clock) *JWTService {
	return &JWTService{cfg: cfg, clock: clock}
}

func (s *JWTService) TTL(kind model.TokenKind) time.Duration {
	if kind == model.TokenRefresh {
		return s.cfg.RefreshTokenTTL
	}
	return s.cfg.AccessTokenTTL
}

// Issue : выпускает токен с временем жизни из конфигурации
func (s *JWTService) Issue(kind model.TokenKind, subject string, client model.ClientInfo) (*model.IssuedToken, error) {
	return s.IssueWithTTL(kind, subject, client, s.TTL(kind))
}

func (s *JWTService) IssueWithTTL(kind model.TokenKind, subject string, client model.ClientInfo, ttl time.Duration) (*model.IssuedToken, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("неизвестный тип токена %q", kind)
	}

	now := s.clock.Now().UTC()
	claims := Claims{
		Type:      kind,
		IP:        client.IP,
		UserAgent: client.UserAgent,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := jwtToken.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return nil, util.LogError("ошибка подписи токена", err)
	}

	return &model.IssuedToken{
		Token:     signed,
		JTI:       claims.ID,
		Kind:      kind,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Decode : проверяет подпись текущим и предыдущими ключами.
// При verifyExpiry=false просроченный токен с верной подписью возвращается без ошибки.
func (s *JWTService) Decode(tokenStr string, verifyExpiry bool) (*Claims, error) {
	var lastErr error
	for _, key := range s.verificationKeys() {
		claims, err := s.parse(tokenStr, key, verifyExpiry)
		if err == nil {
			return claims, nil
		}
		if !errors.Is(err, model.ErrInvalidSignature) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *JWTService) verificationKeys() [][]byte {
	keys := make([][]byte, 0, 1+len(s.cfg.PreviousSecretKeys))
	keys = append(keys, []byte(s.cfg.SecretKey))
	for _, key := range s.cfg.PreviousSecretKeys {
		if key != "" {
			keys = append(keys, []byte(key))
		}
	}
	return keys
}

func (s *JWTService) parse(tokenStr string, key []byte, verifyExpiry bool) (*Claims, error) {
	claims := &Claims{}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithIssuer(s.cfg.Issuer),
	}
	if !verifyExpiry {
		options = append(options, jwt.WithoutClaimsValidation())
	}

	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, options...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", model.ErrExpiredToken, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", model.ErrMalformedToken, err)
		}
	}

	if claims.ID == "" || claims.Subject == "" || claims.ExpiresAt == nil || !claims.Type.Valid() {
		return nil, fmt.Errorf("%w: отсутствуют обязательные поля", model.ErrMalformedToken)
	}
	// без проверки claims WithIssuer не срабатывает
	if claims.Issuer != s.cfg.Issuer {
		return nil, fmt.Errorf("%w: неизвестный издатель %q", model.ErrMalformedToken, claims.Issuer)
	}

	return claims, nil
}

// Remaining : сколько осталось жить токену относительно now, может быть отрицательным
func (c *Claims) Remaining(now time.Time) time.Duration {
	return c.ExpiresAt.Time.Sub(now)
}
