package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across the engine, the executors and the transports.

// --- LLM Attributes ---

const (
	// AttrLLMProvider is the name of the LLM provider (e.g., "openai")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier (e.g., "gpt-4.1")
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMFinishReason is the reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMStructured is true when a response schema was sent
	AttrLLMStructured = "llm.structured"

	// AttrLLMTokensTotal is the total number of tokens
	AttrLLMTokensTotal = "llm.tokens.total" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrRequestMessagesCount is the number of messages in the request
	AttrRequestMessagesCount = "request.messages_count"
)

// --- Workflow Attributes ---

const (
	// AttrWorkflowName is the name declared by the workflow document.
	AttrWorkflowName = "workflow.name"

	// AttrWorkflowRunID identifies one invocation of a compiled graph.
	AttrWorkflowRunID = "workflow.run.id"

	// AttrWorkflowThreadID is the checkpoint thread of a run.
	AttrWorkflowThreadID = "workflow.thread.id"

	// AttrWorkflowStep is the superstep index (0-based).
	AttrWorkflowStep = "workflow.step"

	// AttrWorkflowNode is the node name.
	AttrWorkflowNode = "workflow.node"

	// AttrWorkflowNodeKind is the executor kind of a node (llm, code, ...).
	AttrWorkflowNodeKind = "workflow.node.kind"

	// AttrWorkflowNodeStatus is the execution status of a node.
	AttrWorkflowNodeStatus = "workflow.node.status"

	// AttrWorkflowRoute is the target chosen by a conditional edge.
	AttrWorkflowRoute = "workflow.route"

	// AttrWorkflowExpression is a routing expression being evaluated.
	AttrWorkflowExpression = "workflow.expression"

	// AttrWorkflowReadyNodes lists the nodes scheduled in a step.
	AttrWorkflowReadyNodes = "workflow.ready_nodes"

	// AttrWorkflowTotalNodes is the number of nodes in the compiled graph.
	AttrWorkflowTotalNodes = "workflow.total_nodes"
)

// --- Code Executor Attributes ---

const (
	// AttrCodeTimeout is the wall-clock limit applied to a snippet.
	AttrCodeTimeout = "code.timeout"

	// AttrCodeEntryPoint is "process" or "result".
	AttrCodeEntryPoint = "code.entry_point"
)

// --- Checkpoint Attributes ---

const (
	// AttrCheckpointBackend names the store (memory, sqlite, redis, mongo, postgres).
	AttrCheckpointBackend = "checkpoint.backend"

	// AttrCheckpointFound reports whether a saved state existed.
	AttrCheckpointFound = "checkpoint.found"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method (GET, POST, etc.)
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"

	// AttrHTTPDuration is the round-trip time of a request
	AttrHTTPDuration = "http.request.duration"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanWorkflowRun covers one invocation of a compiled graph.
	SpanWorkflowRun = "workflow.run"

	// SpanWorkflowNode covers one node invocation.
	SpanWorkflowNode = "workflow.node.execute"

	// SpanLLMRequest is the span name for LLM API requests
	SpanLLMRequest = "llm.request"
)

// --- Metric Names ---

const (
	// MetricWorkflowRunDuration is the histogram for total run duration in seconds.
	MetricWorkflowRunDuration = "aigraph.workflow.run.duration"

	// MetricWorkflowNodeDuration is the histogram for node duration in seconds.
	MetricWorkflowNodeDuration = "aigraph.workflow.node.duration"

	// MetricWorkflowNodeCount counts node executions by status.
	MetricWorkflowNodeCount = "aigraph.workflow.node.count"

	// MetricWorkflowRouteErrors counts routing expressions that failed to evaluate.
	MetricWorkflowRouteErrors = "aigraph.workflow.route.errors"

	// MetricLLMRequestCount counts LLM transport calls.
	MetricLLMRequestCount = "aigraph.llm.request.count"
)
