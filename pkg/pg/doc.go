// Package pg bootstraps PostgreSQL access on pgx/v5.
//
// Connect opens a *pgxpool.Pool from Config (populated from PG_* environment
// variables) and retries until the database answers a ping. Migrate runs goose
// migrations from an fs.FS against the same pool, so store packages can embed
// their schema. Healthcheck adapts the pool to the readiness check of
// httpserver.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations, "migrations", log); err != nil {
//		return err
//	}
//
// Error helpers classify pgx errors: IsNotFoundError for pgx.ErrNoRows and
// SQLSTATE checks such as IsDuplicateKeyError.
package pg
