package migration

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/jwalitptl/university-api/pkg/logger"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embeddedMigrations embed.FS

// Up applies every pending migration for the given database driver
// ("postgres" or "sqlite").
func Up(db *sql.DB, driver string, log *logger.Logger) error {
	dialect, dir, err := dialectFor(driver)
	if err != nil {
		return err
	}

	goose.SetBaseFS(embeddedMigrations)
	goose.SetLogger(NewGooseAdapter(log))
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Version reports the schema version currently applied.
func Version(db *sql.DB, driver string) (int64, error) {
	dialect, _, err := dialectFor(driver)
	if err != nil {
		return 0, err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}

func dialectFor(driver string) (dialect, dir string, err error) {
	switch driver {
	case "postgres":
		return "postgres", "migrations/postgres", nil
	case "sqlite", "sqlite3":
		return "sqlite3", "migrations/sqlite", nil
	default:
		return "", "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

// GooseAdapter routes goose output through the application logger.
type GooseAdapter struct {
	log *logger.Logger
}

func NewGooseAdapter(log *logger.Logger) *GooseAdapter {
	if log == nil {
		log = logger.NewNop()
	}
	return &GooseAdapter{log: log}
}

func (a *GooseAdapter) Printf(format string, v ...interface{}) {
	a.log.Info(fmt.Sprintf(format, v...))
}

func (a *GooseAdapter) Fatalf(format string, v ...interface{}) {
	a.log.Fatal(fmt.Errorf(format, v...), "migration failed")
}
