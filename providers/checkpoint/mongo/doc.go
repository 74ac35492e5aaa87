// Package mongo stores workflow checkpoints in a MongoDB collection, one
// document per thread keyed by the thread id.
package mongo
