package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"igdash/pkg/errors"
	"igdash/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migration commands accepted by Migrate
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
	MigrateReset  = "reset"
)

// goose keeps its settings in package globals
var gooseMu sync.Mutex

// gooseLogger routes goose output through the application logger
type gooseLogger struct {
	log logger.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Info(fmt.Sprintf(format, v...))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Error(fmt.Sprintf(format, v...))
}

// Migrate runs a goose command against dsn using the embedded migrations
func Migrate(ctx context.Context, dsn, command string, log logger.Logger) error {
	if log == nil {
		log = logger.GetLogger()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return errors.NewStorageError("migrate", err)
	}
	defer db.Close()

	return errors.NewStorageError("migrate", migrateDB(ctx, db, command, log))
}

func migrateDB(ctx context.Context, db *sql.DB, command string, log logger.Logger) error {
	switch command {
	case MigrateUp, MigrateDown, MigrateStatus, MigrateReset:
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{log: log.WithField("component", "migrations")})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.RunContext(ctx, command, db, migrationsDir)
}
