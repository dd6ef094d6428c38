package llmgateway

import "errors"

// Failure taxonomy (§4.2 exactly).
var (
	// ErrRateLimited is retried inside Complete with bounded exponential
	// backoff, and surfaced only once those retries are exhausted.
	ErrRateLimited = errors.New("llmgateway: rate limited")

	// ErrSchemaViolation is returned once MaxSchemaRetries is exhausted without
	// the model producing content that validates against ResponseSchema, and
	// at once, without re-prompting, for a tool call whose arguments fail to
	// validate against its ParametersSchema.
	ErrSchemaViolation = errors.New("llmgateway: schema violation")

	// ErrUnauthorized signals an authentication failure talking to the
	// upstream model endpoint.
	ErrUnauthorized = errors.New("llmgateway: unauthorized")

	// ErrTransport signals a transient connectivity failure, retried with
	// bounded exponential backoff before being surfaced.
	ErrTransport = errors.New("llmgateway: transport error")

	// ErrContentFiltered signals the upstream endpoint refused the request
	// on content-policy grounds (§6 RAI gate "non-content-filter code" test).
	ErrContentFiltered = errors.New("llmgateway: content filtered")
)
