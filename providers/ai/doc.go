// Package ai defines the provider-agnostic chat types used by the LLM node
// executor. A concrete transport (see package openai) maps [ChatRequest] to
// its own wire format and returns a [ChatResponse].
package ai
