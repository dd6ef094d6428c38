package planner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/conductor/pkg/llmgateway"
	"github.com/codeready-toolchain/conductor/pkg/models"
)

// LLM is the narrow interface Planner needs from the LLM Gateway.
type LLM interface {
	Complete(ctx context.Context, messages []llmgateway.Message, opts llmgateway.Options) (*llmgateway.Response, error)
}

// Store is the narrow slice of the §4.1 Store contract the Planner needs.
type Store interface {
	AddPlan(ctx context.Context, plan models.Plan) (models.Plan, error)
	UpdatePlan(ctx context.Context, plan models.Plan) (models.Plan, error)
	GetPlan(ctx context.Context, id string) (models.Plan, error)
	AddStep(ctx context.Context, step models.Step) (models.Step, error)
	AddAgentMessage(ctx context.Context, msg models.AgentMessage) (models.AgentMessage, error)
}

// Planner implements C7 (§4.6).
type Planner struct {
	LLM     LLM
	Store   Store
	Catalog Catalog
	Prompt  PromptBuilder
}

// New constructs a Planner, defaulting Prompt to DefaultPromptBuilder.
func New(llm LLM, st Store, catalog Catalog) *Planner {
	return &Planner{LLM: llm, Store: st, Catalog: catalog, Prompt: DefaultPromptBuilder{}}
}

// HandleInputTask implements §4.6 exactly, including the guaranteed
// fallback plan on exhaustion.
func (p *Planner) HandleInputTask(ctx context.Context, task Task) (*models.Plan, error) {
	plan, steps, err := p.synthesize(ctx, task)
	if err != nil {
		slog.Warn("planner: synthesis failed, falling back to minimal plan", "session_id", task.SessionID, "error", err)
		plan, steps = fallbackPlan(task)
	}

	persisted, err := p.Store.AddPlan(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("planner: persist plan: %w", err)
	}

	for i := range steps {
		steps[i].PlanID = persisted.ID
		steps[i].SessionID = task.SessionID
		steps[i].UserID = task.UserID
		steps[i].Ordinal = i
		if _, err := p.Store.AddStep(ctx, steps[i]); err != nil {
			return nil, fmt.Errorf("planner: persist step %d: %w", i, err)
		}
	}

	if _, err := p.Store.AddAgentMessage(ctx, models.AgentMessage{
		ID:        uuid.New().String(),
		SessionID: task.SessionID,
		UserID:    task.UserID,
		PlanID:    persisted.ID,
		Source:    models.PlannerSource,
		Content:   fmt.Sprintf("Generated a plan with %d step(s).", len(steps)),
	}); err != nil {
		return nil, fmt.Errorf("planner: record plan-created message: %w", err)
	}

	if persisted.HumanClarificationRequest != "" {
		if _, err := p.Store.AddAgentMessage(ctx, models.AgentMessage{
			ID:        uuid.New().String(),
			SessionID: task.SessionID,
			UserID:    task.UserID,
			PlanID:    persisted.ID,
			Source:    models.PlannerSource,
			Content:   persisted.HumanClarificationRequest,
		}); err != nil {
			return nil, fmt.Errorf("planner: record clarification-request message: %w", err)
		}
	}

	return &persisted, nil
}

// synthesize runs the schema-constrained LLM call and parsing ladder
// (§4.6 steps 1–3), returning an in_progress Plan and its Steps without
// persisting them.
func (p *Planner) synthesize(ctx context.Context, task Task) (models.Plan, []models.Step, error) {
	rosterNames := p.Catalog.Names()
	messages := p.Prompt.BuildPlanningMessages(task.Description, rosterNames, p.Catalog)

	resp, err := p.LLM.Complete(ctx, messages, llmgateway.Options{
		ResponseSchema: responseSchema(rosterNames),
		Temperature:    0,
	})
	if err != nil {
		return models.Plan{}, nil, fmt.Errorf("llm call failed: %w", err)
	}

	parsed, err := parsePlanResponse(resp.Content, rosterNames)
	if err != nil {
		return models.Plan{}, nil, fmt.Errorf("parse ladder exhausted: %w", err)
	}

	plan := models.Plan{
		ID:                        uuid.New().String(),
		SessionID:                 task.SessionID,
		UserID:                    task.UserID,
		InitialGoal:               parsed.InitialGoal,
		Summary:                   parsed.SummaryPlanAndSteps,
		OverallStatus:             models.PlanInProgress,
		HumanClarificationRequest: parsed.HumanClarificationRequest,
		Source:                    models.PlannerSource,
	}

	steps := make([]models.Step, 0, len(parsed.Steps))
	for _, rs := range parsed.Steps {
		agent := models.AgentName(rs.Agent)
		if agent != models.AgentHumanReserved && !isKnownAgent(agent, rosterNames) {
			agent = models.AgentGeneric
		}
		steps = append(steps, models.Step{
			ID:                  uuid.New().String(),
			Action:              rs.Action,
			Agent:               agent,
			Status:              models.StepPlanned,
			HumanApprovalStatus: models.ApprovalRequested,
		})
	}
	return plan, steps, nil
}

// isKnownAgent reports whether agent appears in rosterNames, kept as a plain
// function since it only needs the name list already fetched by the caller.
func isKnownAgent(agent models.AgentName, rosterNames []models.AgentName) bool {
	for _, n := range rosterNames {
		if n == agent {
			return true
		}
	}
	return false
}

// HandlePlanClarification implements §4.6's second operation.
func (p *Planner) HandlePlanClarification(ctx context.Context, msg ClarificationMsg) error {
	plan, err := p.Store.GetPlan(ctx, msg.PlanID)
	if err != nil {
		return fmt.Errorf("planner: load plan %s: %w", msg.PlanID, err)
	}

	plan.HumanClarificationResponse = msg.HumanClarification
	if _, err := p.Store.UpdatePlan(ctx, plan); err != nil {
		return fmt.Errorf("planner: update plan: %w", err)
	}

	if _, err := p.Store.AddAgentMessage(ctx, models.AgentMessage{
		ID:        uuid.New().String(),
		SessionID: msg.SessionID,
		UserID:    plan.UserID,
		PlanID:    plan.ID,
		Source:    "HumanAgent",
		Content:   msg.HumanClarification,
	}); err != nil {
		return fmt.Errorf("planner: record clarification message: %w", err)
	}

	if _, err := p.Store.AddAgentMessage(ctx, models.AgentMessage{
		ID:        uuid.New().String(),
		SessionID: msg.SessionID,
		UserID:    plan.UserID,
		PlanID:    plan.ID,
		Source:    models.PlannerSource,
		Content:   "Thank you, the clarification has been applied to the plan.",
	}); err != nil {
		return fmt.Errorf("planner: record acknowledgement message: %w", err)
	}

	return nil
}

// fallbackPlan builds the minimal two-step plan §4.6 "Errors" guarantees on
// unrecoverable synthesis failure: the Plan is never silently dropped.
func fallbackPlan(task Task) (models.Plan, []models.Step) {
	plan := models.Plan{
		ID:            uuid.New().String(),
		SessionID:     task.SessionID,
		UserID:        task.UserID,
		InitialGoal:   task.Description,
		Summary:       "Automatic fallback plan: synthesis failed, routed to Generic analysis and human follow-up.",
		OverallStatus: models.PlanInProgress,
		Source:        models.PlannerSource,
	}
	steps := []models.Step{
		{
			ID:                  uuid.New().String(),
			Action:              fmt.Sprintf("Analyze the task: %s", task.Description),
			Agent:               models.AgentGeneric,
			Status:              models.StepPlanned,
			HumanApprovalStatus: models.ApprovalRequested,
		},
		{
			ID:                  uuid.New().String(),
			Action:              fmt.Sprintf("Provide more details about: %s", task.Description),
			Agent:               models.AgentHumanReserved,
			Status:              models.StepPlanned,
			HumanApprovalStatus: models.ApprovalRequested,
		},
	}
	return plan, steps
}
