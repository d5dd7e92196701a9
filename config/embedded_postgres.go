package config

import (
	"fmt"
	"os"
	"path/filepath"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"go.uber.org/zap"
)

const (
	embeddedPort     = 5433
	embeddedUser     = "factory"
	embeddedPassword = "factory_secret"
	embeddedDatabase = "factory"
)

// StartEmbeddedPostgres : поднимает локальный PostgreSQL для режима -dev и подменяет DSN
func StartEmbeddedPostgres(cfg *DatabaseConfig) (*embeddedpostgres.EmbeddedPostgres, error) {
	dataDir := filepath.Join(".", ".pgdata")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога pgdata: %w", err)
	}

	db := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(embeddedPort).
			Username(embeddedUser).
			Password(embeddedPassword).
			Database(embeddedDatabase).
			DataPath(dataDir).
			RuntimePath(filepath.Join(os.TempDir(), "factory-embedded-pg")),
	)

	zap.L().Info("запуск встроенного PostgreSQL")
	if err := db.Start(); err != nil {
		return nil, fmt.Errorf("ошибка запуска встроенного PostgreSQL: %w", err)
	}

	cfg.DSN = fmt.Sprintf(
		"postgres://%s:%s@localhost:%d/%s?sslmode=disable",
		embeddedUser, embeddedPassword, embeddedPort, embeddedDatabase,
	)
	zap.L().Info("встроенный PostgreSQL запущен", zap.Int("port", embeddedPort))
	return db, nil
}
