// Package postgres stores workflow checkpoints in a PostgreSQL table using
// pgx. The store accepts anything implementing Querier, typically a
// *pgxpool.Pool, so tests can inject pgxmock.
//
//	pool, err := pgxpool.New(ctx, os.Getenv("DATABASE_URL"))
//	if err != nil {
//		return err
//	}
//	store := postgres.New(pool)
//	if err := store.EnsureSchema(ctx); err != nil {
//		return err
//	}
package postgres
