package specialist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/codeready-toolchain/conductor/pkg/llmgateway"
	"github.com/codeready-toolchain/conductor/pkg/tools"
)

// DefaultMaxToolIters is §4.4.1's MAX_TOOL_ITERS default.
const DefaultMaxToolIters = 8

// LLM is the narrow interface Loop needs from the LLM Gateway (accept
// interfaces, return structs).
type LLM interface {
	Complete(ctx context.Context, messages []llmgateway.Message, opts llmgateway.Options) (*llmgateway.Response, error)
}

// Loop runs the bounded tool-calling loop of §4.4.1: on each iteration the
// model either emits tool calls (executed in declaration order, appended as
// tool-role messages, loop continues) or emits final text (terminate).
// Grounded on the teacher's iteration Controller / IterationState shape
// (pkg/agent/iteration.go), adapted from tracking consecutive timeouts to
// tracking consecutive tool-calling iterations against MaxIters.
type Loop struct {
	LLM      LLM
	Registry *tools.Registry
	MaxIters int
}

// iterationState mirrors the teacher's IterationState, generalized from
// "consecutive timeout failures" to "tool-calling iterations taken".
type iterationState struct {
	CurrentIteration int
	MaxIterations    int
}

func (s *iterationState) exhausted() bool {
	return s.CurrentIteration >= s.MaxIterations
}

// Run executes the loop starting from `messages` (system prompt + action
// preface + human feedback + any prior tool outputs, per §4.4 step 2) and
// returns the model's terminal textual reply.
func (l *Loop) Run(ctx context.Context, messages []llmgateway.Message) (string, error) {
	maxIters := l.MaxIters
	if maxIters <= 0 {
		maxIters = DefaultMaxToolIters
	}
	state := &iterationState{MaxIterations: maxIters}

	toolDefs := l.Registry.ToLLMToolDefinitions()
	working := append([]llmgateway.Message(nil), messages...)

	for !state.exhausted() {
		state.CurrentIteration++

		resp, err := l.LLM.Complete(ctx, working, llmgateway.Options{
			Tools:       toolDefs,
			ToolChoice:  llmgateway.ToolChoiceAuto,
			Temperature: 0.2,
		})
		if err != nil {
			if errors.Is(err, llmgateway.ErrSchemaViolation) {
				return "", fmt.Errorf("%w: %v", ErrLLMSchemaError, err)
			}
			return "", fmt.Errorf("%w: %v", ErrTransport, err)
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		working = append(working, llmgateway.Message{
			Role:      llmgateway.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			result, invokeErr := l.invoke(call)
			if invokeErr != nil {
				return "", fmt.Errorf("%w: %v", ErrToolInvocationFailed, invokeErr)
			}
			working = append(working, llmgateway.Message{
				Role:       llmgateway.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	return "", fmt.Errorf("%w: exceeded %d tool-calling iterations", ErrToolInvocationFailed, maxIters)
}

func (l *Loop) invoke(call llmgateway.ToolCall) (string, error) {
	tool, ok := l.Registry.Get(call.Name)
	if !ok {
		return "", fmt.Errorf("unknown tool %q", call.Name)
	}

	var args map[string]any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for tool %q: %w", call.Name, err)
		}
	}

	result, err := tool.Invoke(args)
	if err != nil {
		return "", fmt.Errorf("tool %q failed: %w", call.Name, err)
	}
	return result, nil
}
