// Package utils provides shared low-level helpers used throughout the aigraph
// internals: the synchronous JSON POST used by LLM transports, string
// truncation for log previews, and loose value coercion shared by the schema
// validator, the state adapters and the routers.
package utils
