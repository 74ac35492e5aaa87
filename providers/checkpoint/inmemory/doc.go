// Package inmemory provides a concurrency-safe, map-backed implementation of
// [checkpoint.Checkpointer] for single-process use where persistence across
// restarts is not required. States are stored JSON-encoded, so a loaded
// state never aliases the saved one and round-trips exactly like the
// database-backed stores. The main entry point is [New].
package inmemory
