package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jmoiron/sqlx"
)

//go:embed *.sql
var Files embed.FS

// Apply : выполняет встроенные sql файлы по порядку имен. Используется в режиме -dev и в интеграционных тестах.
func Apply(ctx context.Context, db *sqlx.DB) error {
	names, err := fs.Glob(Files, "*.sql")
	if err != nil {
		return fmt.Errorf("ошибка чтения миграций: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := Files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("ошибка чтения %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("ошибка применения %s: %w", name, err)
		}
	}

	return nil
}
