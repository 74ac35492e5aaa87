// Package sqlite stores workflow checkpoints in a SQLite table through
// database/sql and the pure-Go modernc.org/sqlite driver.
//
//	store, err := sqlite.Open(ctx, "file:aigraph.db?_journal=WAL")
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//	graph, err := workflow.Compile(cfg, workflow.WithCheckpointer(store))
package sqlite
