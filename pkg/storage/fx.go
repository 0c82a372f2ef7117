package storage

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"igdash/pkg/config"
	"igdash/pkg/logger"
)

// Module provides the configured Store. For the postgres driver the pool is
// opened once, pinged on start and closed on stop. For the none driver the
// provided Store is nil.
var Module = fx.Module("storage",
	fx.Provide(New),
)

// Opts are the dependencies of New
type Opts struct {
	fx.In
	LC fx.Lifecycle

	Logger logger.Logger
	Config *config.Config
}

// New builds the Store selected by the storage driver
func New(opts Opts) (Store, error) {
	cfg := opts.Config.Storage

	switch cfg.Driver {
	case config.StorageDriverNone, "":
		opts.Logger.Warn("no storage driver configured, ingestion and queries are disabled")
		return nil, nil

	case config.StorageDriverFile:
		store, err := NewFileStore(cfg.Directory, opts.Logger)
		if err != nil {
			return nil, err
		}
		opts.Logger.InfoWithFields("using file storage", map[string]interface{}{
			"directory": cfg.Directory,
		})
		return store, nil

	case config.StorageDriverPostgres:
		pool, err := NewPool(context.Background(), cfg.Postgres)
		if err != nil {
			return nil, err
		}

		opts.LC.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := pool.Ping(ctx); err != nil {
					return err
				}
				opts.Logger.Info("connected to postgres")

				if cfg.AutoMigrate {
					return Migrate(ctx, cfg.Postgres.DSN(), MigrateUp, opts.Logger)
				}
				return nil
			},
			OnStop: func(ctx context.Context) error {
				pool.Close()
				return nil
			},
		})

		return NewPostgres(pool, opts.Logger), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
