// Package slogobs provides an observability.Provider backed by log/slog.
//
// Spans are logged at DEBUG on start and end, counters are kept in memory and
// logged on every increment, and log calls map onto slog levels (TRACE sits
// below DEBUG). Output format and level come from AIGRAPH_LOG_FORMAT and
// AIGRAPH_LOG_LEVEL unless overridden with [WithFormat] and [WithLevel].
package slogobs
