package security

import (
	"factory-server/config"
	"factory-server/internal/model"
	"net/http"
	"strings"
	"time"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

type CookieManager struct {
	cfg        *config.CookieConfig
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCookieManager(cfg *config.CookieConfig, jwtCfg *config.JWTConfig) *CookieManager {
	return &CookieManager{
		cfg:        cfg,
		accessTTL:  jwtCfg.AccessTokenTTL,
		refreshTTL: jwtCfg.RefreshTokenTTL,
	}
}

// SetTokens : выставляет cookie для выпущенных токенов, nil пропускается
func (m *CookieManager) SetTokens(w http.ResponseWriter, r *http.Request, access, refresh *model.IssuedToken) {
	if access != nil {
		http.SetCookie(w, m.cookie(r, AccessTokenCookie, access.Token, m.accessTTL))
	}
	if refresh != nil {
		http.SetCookie(w, m.cookie(r, RefreshTokenCookie, refresh.Token, m.refreshTTL))
	}
}

func (m *CookieManager) Clear(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c := m.cookie(r, name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func (m *CookieManager) cookie(r *http.Request, name, value string, ttl time.Duration) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if m.cfg.SameSite == "strict" {
		sameSite = http.SameSiteStrictMode
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.cfg.Path,
		Domain:   m.cfg.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure(r),
		SameSite: sameSite,
	}
}

func (m *CookieManager) secure(r *http.Request) bool {
	switch m.cfg.Secure {
	case "always":
		return true
	case "never":
		return false
	}
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// ReadToken : значение cookie без кавычек и префикса Bearer
func ReadToken(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return CleanToken(c.Value)
}

func CleanToken(value string) string {
	value = strings.TrimSpace(value)
	value = strings.Trim(value, `"`)
	if len(value) >= 7 && strings.EqualFold(value[:7], "bearer ") {
		value = value[7:]
	}
	return strings.TrimSpace(value)
}
