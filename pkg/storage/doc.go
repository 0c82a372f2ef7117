// Package storage persists ingested posts and serves them back by handle.
//
// Two Store implementations exist:
//   - Postgres: pgx pool, statements built with squirrel, schema managed by
//     embedded goose migrations (see Migrate)
//   - FileStore: one JSON document per handle, written atomically through a
//     temporary file and rename
//
// Both append on every insert and never deduplicate. Reads match the handle
// exactly and return posts in insertion order.
//
// Usage:
//
//	pool, err := storage.NewPool(ctx, cfg.Storage.Postgres)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := storage.Migrate(ctx, cfg.Storage.Postgres.DSN(), storage.MigrateUp, log); err != nil {
//	    return err
//	}
//
//	store := storage.NewPostgres(pool, log)
//	n, err := store.InsertPosts(ctx, "natgeo", posts)
package storage
