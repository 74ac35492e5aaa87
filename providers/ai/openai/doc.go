// Package openai implements [ai.Provider] over the OpenAI-compatible
// /chat/completions endpoint.
//
// [NewOpenAIProvider] reads OPENAI_API_KEY and OPENAI_API_BASE_URL (or the
// older OPENAI_API_BASE) from the environment. Structured output requests are
// sent as a json_schema response_format.
package openai
