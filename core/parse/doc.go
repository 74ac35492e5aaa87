// Package parse decodes structured values out of raw LLM text. Models often
// wrap JSON in prose or markdown code fences, emit slightly malformed JSON,
// or echo a schema envelope around each value, so [Value] extracts a
// candidate, repairs it with jsonrepair when strict decoding fails, and
// [Unwrap] strips {"type": ..., "value": ...} wrappers.
package parse
