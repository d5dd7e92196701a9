package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	SecretKeyEnv   = "JWT_SECRET_KEY"
	DatabaseDSNEnv = "DATABASE_DSN"
	RedisAddrEnv   = "REDIS_ADDR"
	SMTPPassEnv    = "SMTP_PASSWORD"

	minSecretKeyLength = 32
)

var ErrConfig = errors.New("некорректная конфигурация")

type AppConfig struct {
	DatabaseConfig DatabaseConfig `yaml:"databaseConfig"`
	RedisConfig    RedisConfig    `yaml:"redisConfig"`
	ServerAddr     string         `yaml:"serverAddr"`
	S3Config       S3Config       `yaml:"archive"`
	JWT            JWTConfig      `yaml:"jwt"`
	Session        SessionConfig  `yaml:"session"`
	Lockout        LockoutConfig  `yaml:"lockout"`
	Cleanup        CleanupConfig  `yaml:"cleanup"`
	Cookies        CookieConfig   `yaml:"cookies"`
	CORS           CORSConfig     `yaml:"cors"`
	Password       PasswordConfig `yaml:"password"`
	Recovery       RecoveryConfig `yaml:"recovery"`
	Log            LogConfig      `yaml:"log"`
}

// LoadConfig : читает yaml, применяет переменные окружения и значения по умолчанию.
// Секрет подписи никогда не генерируется, его отсутствие является ошибкой.
func LoadConfig(path string) (*AppConfig, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *AppConfig) applyEnv() {
	if v := os.Getenv(SecretKeyEnv); v != "" {
		cfg.JWT.SecretKey = v
	}
	if v := os.Getenv(DatabaseDSNEnv); v != "" {
		cfg.DatabaseConfig.DSN = v
	}
	if v := os.Getenv(RedisAddrEnv); v != "" {
		cfg.RedisConfig.Addr = v
	}
	if v := os.Getenv(SMTPPassEnv); v != "" {
		cfg.Recovery.SMTP.Password = v
	}
}

// ApplyDefaults : заполняет незаданные пороги значениями по умолчанию
func (cfg *AppConfig) ApplyDefaults() {
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = ":8080"
	}

	if cfg.DatabaseConfig.MaxOpenConns == 0 {
		cfg.DatabaseConfig.MaxOpenConns = 20
	}
	if cfg.DatabaseConfig.MaxIdleConns == 0 {
		cfg.DatabaseConfig.MaxIdleConns = 5
	}
	setDuration(&cfg.DatabaseConfig.ConnMaxLifetime, 30*time.Minute)
	setDuration(&cfg.DatabaseConfig.PingTimeout, 5*time.Second)

	setDuration(&cfg.JWT.AccessTokenTTL, 30*time.Minute)
	setDuration(&cfg.JWT.RefreshTokenTTL, 7*24*time.Hour)
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "factory-server"
	}

	setDuration(&cfg.Session.RefreshThreshold, 10*time.Minute)
	setDuration(&cfg.Session.RefreshRotationThreshold, 48*time.Hour)
	setDuration(&cfg.Session.IdleTimeout, 3*24*time.Hour)
	setDuration(&cfg.Session.AbsoluteTimeout, 7*24*time.Hour)
	if cfg.Session.MaxActiveSessions == 0 {
		cfg.Session.MaxActiveSessions = 5
	}

	if cfg.Lockout.MaxFailedAttempts == 0 {
		cfg.Lockout.MaxFailedAttempts = 5
	}
	setDuration(&cfg.Lockout.Window, 15*time.Minute)

	setDuration(&cfg.Cleanup.Interval, 24*time.Hour)
	setDuration(&cfg.Cleanup.RetryDelay, 5*time.Minute)
	setDuration(&cfg.Cleanup.IdleCeiling, 7*24*time.Hour)
	setDuration(&cfg.Cleanup.Retention, 30*24*time.Hour)

	if cfg.Cookies.Secure == "" {
		cfg.Cookies.Secure = "auto"
	}
	if cfg.Cookies.SameSite == "" {
		cfg.Cookies.SameSite = "lax"
	}
	if cfg.Cookies.Path == "" {
		cfg.Cookies.Path = "/"
	}

	setDuration(&cfg.Recovery.CodeTTL, 15*time.Minute)
	setDuration(&cfg.Recovery.RequestWindow, time.Hour)
	if cfg.Recovery.MaxAttempts == 0 {
		cfg.Recovery.MaxAttempts = 5
	}
	if cfg.Recovery.RequestLimit == 0 {
		cfg.Recovery.RequestLimit = 3
	}
	if cfg.Recovery.SMTP.Port == 0 {
		cfg.Recovery.SMTP.Port = 587
	}

	if cfg.Password.BcryptCost == 0 {
		cfg.Password.BcryptCost = 12
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func (cfg *AppConfig) Validate() error {
	if len(cfg.JWT.SecretKey) < minSecretKeyLength {
		return fmt.Errorf("%w: секрет подписи должен быть задан (jwt.secret_key или %s) и содержать не меньше %d байт",
			ErrConfig, SecretKeyEnv, minSecretKeyLength)
	}

	if cfg.JWT.AccessTokenTTL <= 0 || cfg.JWT.RefreshTokenTTL <= 0 {
		return fmt.Errorf("%w: время жизни токенов должно быть положительным", ErrConfig)
	}
	if cfg.JWT.AccessTokenTTL >= cfg.JWT.RefreshTokenTTL {
		return fmt.Errorf("%w: access токен должен жить меньше refresh токена", ErrConfig)
	}
	if cfg.Session.RefreshThreshold <= 0 || cfg.Session.RefreshThreshold >= cfg.JWT.AccessTokenTTL {
		return fmt.Errorf("%w: session.refresh_threshold должен быть меньше access_token_ttl", ErrConfig)
	}
	if cfg.Session.MaxActiveSessions < 1 {
		return fmt.Errorf("%w: session.max_active_sessions должен быть не меньше 1", ErrConfig)
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"session.refresh_rotation_threshold", cfg.Session.RefreshRotationThreshold},
		{"session.idle_timeout", cfg.Session.IdleTimeout},
		{"session.absolute_timeout", cfg.Session.AbsoluteTimeout},
		{"lockout.window", cfg.Lockout.Window},
		{"cleanup.interval", cfg.Cleanup.Interval},
		{"cleanup.retry_delay", cfg.Cleanup.RetryDelay},
		{"cleanup.idle_ceiling", cfg.Cleanup.IdleCeiling},
		{"cleanup.retention", cfg.Cleanup.Retention},
		{"recovery.code_ttl", cfg.Recovery.CodeTTL},
		{"recovery.request_window", cfg.Recovery.RequestWindow},
		{"databaseConfig.ping_timeout", cfg.DatabaseConfig.PingTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s должен быть положительным, получено %s", ErrConfig, p.name, p.value)
		}
	}

	if cfg.Lockout.MaxFailedAttempts < 1 {
		return fmt.Errorf("%w: lockout.max_failed_attempts должен быть не меньше 1", ErrConfig)
	}
	if cfg.Recovery.MaxAttempts < 1 || cfg.Recovery.RequestLimit < 1 {
		return fmt.Errorf("%w: recovery.max_attempts и recovery.request_limit должны быть не меньше 1", ErrConfig)
	}
	if cfg.DatabaseConfig.MaxOpenConns < 0 || cfg.DatabaseConfig.MaxIdleConns < 0 || cfg.DatabaseConfig.ConnMaxLifetime < 0 {
		return fmt.Errorf("%w: параметры пула соединений не могут быть отрицательными", ErrConfig)
	}
	if cfg.Session.IdleTimeout > cfg.Session.AbsoluteTimeout {
		return fmt.Errorf("%w: session.idle_timeout не может превышать absolute_timeout", ErrConfig)
	}
	if cfg.Cleanup.Retention < cfg.Cleanup.IdleCeiling {
		return fmt.Errorf("%w: cleanup.retention не может быть меньше idle_ceiling", ErrConfig)
	}

	switch cfg.Cookies.Secure {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("%w: cookies.secure: неизвестное значение %q", ErrConfig, cfg.Cookies.Secure)
	}
	switch cfg.Cookies.SameSite {
	case "lax", "strict":
	default:
		return fmt.Errorf("%w: cookies.same_site: неизвестное значение %q", ErrConfig, cfg.Cookies.SameSite)
	}

	if cfg.S3Config.Enabled && cfg.S3Config.Bucket == "" {
		return fmt.Errorf("%w: archive.bucket обязателен при включенном архиве", ErrConfig)
	}

	return nil
}

func setDuration(target *time.Duration, def time.Duration) {
	if *target == 0 {
		*target = def
	}
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:              serverAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, router
}

type Database struct {
	*sqlx.DB
}

// SetupDatabase : пул соединений к PostgreSQL с проверкой доступности
func SetupDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	database, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	database.SetMaxOpenConns(cfg.MaxOpenConns)
	database.SetMaxIdleConns(cfg.MaxIdleConns)
	database.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()

	if err := database.PingContext(pingCtx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ошибка пинга БД: %w", err)
	}

	zap.L().Info("подключение к БД успешно выполнено", zap.Int("max_open_conns", cfg.MaxOpenConns))
	return &Database{database}, nil
}

func (db *Database) Close() error {
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия соединения с БД: %w", err)
	}
	return nil
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
