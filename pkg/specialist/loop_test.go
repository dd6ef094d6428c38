package specialist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/conductor/pkg/llmgateway"
	"github.com/codeready-toolchain/conductor/pkg/tools"
)

type scriptedLLM struct {
	responses []llmgateway.Response
	errs      []error
	calls     int
	seen      [][]llmgateway.Message
}

func (s *scriptedLLM) Complete(ctx context.Context, messages []llmgateway.Message, opts llmgateway.Options) (*llmgateway.Response, error) {
	i := s.calls
	s.calls++
	s.seen = append(s.seen, messages)
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.responses) {
		r := s.responses[i]
		return &r, nil
	}
	return &llmgateway.Response{}, nil
}

func echoRegistry() *tools.Registry {
	return tools.NewRegistry([]tools.Tool{
		{
			Name:        "grant_database_access",
			Description: "grants access",
			Invoke: func(args map[string]any) (string, error) {
				return "granted access to " + toString(args["database_name"]), nil
			},
		},
	})
}

func failingRegistry() *tools.Registry {
	return tools.NewRegistry([]tools.Tool{
		{
			Name: "broken_tool",
			Invoke: func(args map[string]any) (string, error) {
				return "", errors.New("tool exploded")
			},
		},
	})
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func TestLoop_Run_TerminatesOnFirstTextReply(t *testing.T) {
	llm := &scriptedLLM{responses: []llmgateway.Response{{Content: "Here is your answer."}}}
	loop := &Loop{LLM: llm, Registry: echoRegistry(), MaxIters: 8}

	reply, err := loop.Run(context.Background(), []llmgateway.Message{{Role: llmgateway.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "Here is your answer.", reply)
	assert.Equal(t, 1, llm.calls)
}

func TestLoop_Run_ExecutesToolThenTerminates(t *testing.T) {
	llm := &scriptedLLM{responses: []llmgateway.Response{
		{ToolCalls: []llmgateway.ToolCall{{ID: "c1", Name: "grant_database_access", Arguments: `{"database_name":"SalesDB"}`}}},
		{Content: "Done, access was granted."},
	}}
	loop := &Loop{LLM: llm, Registry: echoRegistry(), MaxIters: 8}

	reply, err := loop.Run(context.Background(), []llmgateway.Message{{Role: llmgateway.RoleUser, Content: "grant access"}})
	require.NoError(t, err)
	assert.Equal(t, "Done, access was granted.", reply)
	assert.Equal(t, 2, llm.calls)
}

func TestLoop_Run_UnknownToolFails(t *testing.T) {
	llm := &scriptedLLM{responses: []llmgateway.Response{
		{ToolCalls: []llmgateway.ToolCall{{ID: "c1", Name: "no_such_tool", Arguments: `{}`}}},
	}}
	loop := &Loop{LLM: llm, Registry: echoRegistry(), MaxIters: 8}

	_, err := loop.Run(context.Background(), []llmgateway.Message{{Role: llmgateway.RoleUser, Content: "do it"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolInvocationFailed))
}

func TestLoop_Run_ToolInvocationErrorFails(t *testing.T) {
	llm := &scriptedLLM{responses: []llmgateway.Response{
		{ToolCalls: []llmgateway.ToolCall{{ID: "c1", Name: "broken_tool", Arguments: `{}`}}},
	}}
	loop := &Loop{LLM: llm, Registry: failingRegistry(), MaxIters: 8}

	_, err := loop.Run(context.Background(), []llmgateway.Message{{Role: llmgateway.RoleUser, Content: "do it"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolInvocationFailed))
}

func TestLoop_Run_InvalidToolArgumentsJSONFails(t *testing.T) {
	llm := &scriptedLLM{responses: []llmgateway.Response{
		{ToolCalls: []llmgateway.ToolCall{{ID: "c1", Name: "grant_database_access", Arguments: `not json`}}},
	}}
	loop := &Loop{LLM: llm, Registry: echoRegistry(), MaxIters: 8}

	_, err := loop.Run(context.Background(), []llmgateway.Message{{Role: llmgateway.RoleUser, Content: "do it"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolInvocationFailed))
}

func TestLoop_Run_ExceedsMaxIters(t *testing.T) {
	// Every response keeps requesting the same tool call, never terminating.
	responses := make([]llmgateway.Response, 0, 10)
	for i := 0; i < 10; i++ {
		responses = append(responses, llmgateway.Response{
			ToolCalls: []llmgateway.ToolCall{{ID: "c", Name: "grant_database_access", Arguments: `{"database_name":"SalesDB"}`}},
		})
	}
	llm := &scriptedLLM{responses: responses}
	loop := &Loop{LLM: llm, Registry: echoRegistry(), MaxIters: 3}

	_, err := loop.Run(context.Background(), []llmgateway.Message{{Role: llmgateway.RoleUser, Content: "loop forever"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolInvocationFailed))
	assert.Equal(t, 3, llm.calls)
}

func TestLoop_Run_SchemaErrorPropagates(t *testing.T) {
	llm := &scriptedLLM{errs: []error{llmgateway.ErrSchemaViolation}}
	loop := &Loop{LLM: llm, Registry: echoRegistry(), MaxIters: 8}

	_, err := loop.Run(context.Background(), []llmgateway.Message{{Role: llmgateway.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLLMSchemaError))
}

func TestLoop_Run_TransportErrorPropagates(t *testing.T) {
	llm := &scriptedLLM{errs: []error{errors.New("connection reset")}}
	loop := &Loop{LLM: llm, Registry: echoRegistry(), MaxIters: 8}

	_, err := loop.Run(context.Background(), []llmgateway.Message{{Role: llmgateway.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestLoop_Run_DefaultsMaxIters(t *testing.T) {
	llm := &scriptedLLM{responses: []llmgateway.Response{{Content: "ok"}}}
	loop := &Loop{LLM: llm, Registry: echoRegistry()}

	_, err := loop.Run(context.Background(), []llmgateway.Message{{Role: llmgateway.RoleUser, Content: "hi"}})
	require.NoError(t, err)
}
