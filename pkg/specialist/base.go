package specialist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/conductor/pkg/llmgateway"
	"github.com/codeready-toolchain/conductor/pkg/models"
	"github.com/codeready-toolchain/conductor/pkg/tools"
)

// Store is the narrow slice of the §4.1 Store contract a Specialist needs.
type Store interface {
	GetStep(ctx context.Context, id, sessionID string) (models.Step, error)
	UpdateStep(ctx context.Context, step models.Step) (models.Step, error)
	AddAgentMessage(ctx context.Context, msg models.AgentMessage) (models.AgentMessage, error)
}

// Base implements the Base Specialist (C4), one instance per named agent in
// the roster, bound to one Tool Registry slice and one system prompt —
// the same "BaseAgent delegating to a Controller" shape as the teacher's
// pkg/agent.BaseAgent, generalized from an investigation controller to the
// §4.4.1 tool-calling Loop.
type Base struct {
	Name         models.AgentName
	SystemPrompt string
	Registry     *tools.Registry
	LLM          LLM
	Store        Store
	MaxToolIters int
}

// New constructs a Base Specialist. Panics if llm, registry, or store is
// nil — a wiring error in Session Runtime, not a runtime condition
// (mirrors the teacher's NewBaseAgent nil-controller panic).
func New(name models.AgentName, systemPrompt string, registry *tools.Registry, llm LLM, st Store, maxToolIters int) *Base {
	if registry == nil || llm == nil || st == nil {
		panic(fmt.Sprintf("specialist.New(%s): registry, llm, and store must not be nil", name))
	}
	return &Base{
		Name:         name,
		SystemPrompt: systemPrompt,
		Registry:     registry,
		LLM:          llm,
		Store:        st,
		MaxToolIters: maxToolIters,
	}
}

// HandleActionRequest implements §4.4 exactly.
func (b *Base) HandleActionRequest(ctx context.Context, req ActionRequest) (*ActionResponse, error) {
	step, err := b.Store.GetStep(ctx, req.StepID, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("specialist %s: load step %s: %w", b.Name, req.StepID, err)
	}
	if step.Status != models.StepActionRequested {
		return nil, fmt.Errorf("%w: step %s is %s", ErrStepNotActionRequested, step.ID, step.Status)
	}

	messages := []llmgateway.Message{
		{Role: llmgateway.RoleSystem, Content: b.SystemPrompt},
		{Role: llmgateway.RoleUser, Content: req.Action},
	}
	if step.HumanFeedback != "" {
		messages = append(messages, llmgateway.Message{Role: llmgateway.RoleUser, Content: step.HumanFeedback})
	}

	loop := &Loop{LLM: b.LLM, Registry: b.Registry, MaxIters: b.MaxToolIters}
	reply, loopErr := loop.Run(ctx, messages)
	if loopErr != nil {
		return b.fail(ctx, step, req, loopErr)
	}

	if _, err := b.Store.AddAgentMessage(ctx, models.AgentMessage{
		ID:        uuid.New().String(),
		SessionID: req.SessionID,
		UserID:    step.UserID,
		PlanID:    req.PlanID,
		StepID:    req.StepID,
		Source:    string(b.Name),
		Content:   reply,
	}); err != nil {
		return nil, fmt.Errorf("specialist %s: record reply: %w", b.Name, err)
	}

	step.Status = models.StepCompleted
	step.AgentReply = reply
	if _, err := b.Store.UpdateStep(ctx, step); err != nil {
		return nil, fmt.Errorf("specialist %s: complete step: %w", b.Name, err)
	}

	return &ActionResponse{
		StepID:    req.StepID,
		PlanID:    req.PlanID,
		SessionID: req.SessionID,
		Result:    reply,
		Status:    models.StepCompleted,
	}, nil
}

// fail routes ToolInvocationFailed / LLMSchemaError / Transport failures
// through the common "record Agent Message, transition Step to failed,
// emit failure response" path (§4.4 "Errors", §7 propagation policy: the
// orchestrator never throws across the session boundary).
func (b *Base) fail(ctx context.Context, step models.Step, req ActionRequest, cause error) (*ActionResponse, error) {
	slog.Warn("specialist: action failed", "agent", b.Name, "step_id", step.ID, "error", cause)

	errText := cause.Error()
	if _, err := b.Store.AddAgentMessage(ctx, models.AgentMessage{
		ID:        uuid.New().String(),
		SessionID: req.SessionID,
		UserID:    step.UserID,
		PlanID:    req.PlanID,
		StepID:    req.StepID,
		Source:    string(b.Name),
		Content:   errText,
	}); err != nil {
		return nil, fmt.Errorf("specialist %s: record failure: %w", b.Name, err)
	}

	step.Status = models.StepFailed
	step.AgentReply = errText
	if _, err := b.Store.UpdateStep(ctx, step); err != nil {
		return nil, fmt.Errorf("specialist %s: fail step: %w", b.Name, err)
	}

	return &ActionResponse{
		StepID:    req.StepID,
		PlanID:    req.PlanID,
		SessionID: req.SessionID,
		Result:    errText,
		Status:    models.StepFailed,
	}, nil
}
