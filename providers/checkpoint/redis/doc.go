// Package redis stores workflow checkpoints as JSON strings in Redis, one
// key per thread under a configurable prefix.
package redis
