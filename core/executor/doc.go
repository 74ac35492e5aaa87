// Package executor provides node executors: the strategy a workflow node
// runs to turn its input into a result.
//
// Two kinds are built in. "llm" sends the input as a role-tagged
// conversation to an [ai.Provider], optionally requesting structured output
// validated against a [schema.Model]. "code" runs a Go snippet in a
// restricted yaegi interpreter under a wall-clock timeout. New kinds are
// added with [Registry.Register] without touching the compiler.
package executor
