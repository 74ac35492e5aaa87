// Package checkpoint defines the Checkpointer contract a workflow run uses to
// resume from and persist its state between invocations of the same thread.
//
// Stores live in sibling packages:
//   - [github.com/leofalp/aigraph/providers/checkpoint/inmemory]
//   - [github.com/leofalp/aigraph/providers/checkpoint/sqlite]
//   - [github.com/leofalp/aigraph/providers/checkpoint/redis]
//   - [github.com/leofalp/aigraph/providers/checkpoint/mongo]
//   - [github.com/leofalp/aigraph/providers/checkpoint/postgres]
//
// Stores persist state as JSON, so values must be JSON-serializable.
package checkpoint
