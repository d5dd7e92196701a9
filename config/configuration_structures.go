package config

import "time"

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	PingTimeout     time.Duration `yaml:"ping_timeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// S3Config : архив сессий перед физическим удалением
type S3Config struct {
	Enabled  bool   `yaml:"enabled"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Local    bool   `yaml:"local"`
}

type JWTConfig struct {
	SecretKey string `yaml:"secret_key"`
	// PreviousSecretKeys : старые ключи, принимаются только при проверке подписи
	PreviousSecretKeys []string      `yaml:"previous_secret_keys"`
	Issuer             string        `yaml:"issuer"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL    time.Duration `yaml:"refresh_token_ttl"`
}

type SessionConfig struct {
	RefreshThreshold         time.Duration `yaml:"refresh_threshold"`
	RefreshRotationThreshold time.Duration `yaml:"refresh_rotation_threshold"`
	MaxActiveSessions        int           `yaml:"max_active_sessions"`
	IdleTimeout              time.Duration `yaml:"idle_timeout"`
	AbsoluteTimeout          time.Duration `yaml:"absolute_timeout"`
	StrictIPBinding          bool          `yaml:"strict_ip_binding"`
}

type LockoutConfig struct {
	MaxFailedAttempts int           `yaml:"max_failed_attempts"`
	Window            time.Duration `yaml:"window"`
}

type CleanupConfig struct {
	Interval    time.Duration `yaml:"interval"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	IdleCeiling time.Duration `yaml:"idle_ceiling"`
	Retention   time.Duration `yaml:"retention"`
}

// RecoveryConfig : одноразовые коды сброса пароля, хранятся в Redis
type RecoveryConfig struct {
	CodeTTL time.Duration `yaml:"code_ttl"`
	// MaxAttempts : неверных кодов до блокировки сброса для адреса
	MaxAttempts   int           `yaml:"max_attempts"`
	RequestLimit  int           `yaml:"request_limit"`
	RequestWindow time.Duration `yaml:"request_window"`
	SMTP          SMTPConfig    `yaml:"smtp"`
}

type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

type CookieConfig struct {
	// Secure : auto (только при https), always, never
	Secure   string `yaml:"secure"`
	SameSite string `yaml:"same_site"`
	Domain   string `yaml:"domain"`
	Path     string `yaml:"path"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type PasswordConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}
