// Package state holds the run state of a workflow: a field schema whose
// fields each carry a reducer, and the merge that applies node writes.
//
// Writes are applied in ascending Order (the config position of the edge
// that activated the writing node), never in completion order, so parallel
// branches produce the same state regardless of timing.
package state
