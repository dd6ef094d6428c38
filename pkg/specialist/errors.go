package specialist

import "errors"

var (
	// ErrToolInvocationFailed covers both a failing tool call and exceeding
	// MAX_TOOL_ITERS without a terminal reply (§4.4, §4.4.1).
	ErrToolInvocationFailed = errors.New("specialist: tool invocation failed")

	// ErrLLMSchemaError wraps a schema-constrained LLM call that never
	// produced a valid response (§4.4 "Errors").
	ErrLLMSchemaError = errors.New("specialist: llm schema error")

	// ErrTransport wraps a transport failure from the LLM Gateway.
	ErrTransport = errors.New("specialist: transport error")

	// ErrStepNotActionRequested is returned when HandleActionRequest is
	// called for a Step that is not in the action_requested state (§4.4
	// "Preconditions").
	ErrStepNotActionRequested = errors.New("specialist: step is not action_requested")
)
