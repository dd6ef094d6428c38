// Package groupchat implements the Group Chat Manager (C8): the
// deterministic per-session coordinator that routes user input to the
// Planner, applies human approvals, assembles the conversation-history
// preface, and dispatches Action Requests to specialists. Nothing in the
// teacher repo plays exactly this role; built fresh in the teacher's idiom
// (small struct, narrow interfaces, per-key mutex for single-writer
// discipline — mirrors the teacher's pkg/session.Manager locking pattern),
// since no pack example implements this coordinator shape (see DESIGN.md).
package groupchat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/conductor/pkg/models"
	"github.com/codeready-toolchain/conductor/pkg/planner"
	"github.com/codeready-toolchain/conductor/pkg/specialist"
)

// Store is the narrow slice of the §4.1 Store contract the Group Chat
// Manager needs.
type Store interface {
	GetPlan(ctx context.Context, id string) (models.Plan, error)
	UpdatePlan(ctx context.Context, plan models.Plan) (models.Plan, error)
	UpdateStep(ctx context.Context, step models.Step) (models.Step, error)
	ListStepsByPlan(ctx context.Context, planID string) ([]models.Step, error)
	AddAgentMessage(ctx context.Context, msg models.AgentMessage) (models.AgentMessage, error)
}

// PlannerClient is the narrow view of pkg/planner.Planner the Manager
// drives from handleInputTask (§4.7).
type PlannerClient interface {
	HandleInputTask(ctx context.Context, task planner.Task) (*models.Plan, error)
}

// Dispatcher is the narrow view of a bound Base Specialist (§4.4) the
// Manager dispatches Action Requests to. *specialist.Base satisfies this.
type Dispatcher interface {
	HandleActionRequest(ctx context.Context, req specialist.ActionRequest) (*specialist.ActionResponse, error)
}

// RosterLookup is the narrow view of pkg/roster.Roster the Manager needs to
// resolve a Step's agent to a Dispatcher.
type RosterLookup interface {
	Get(name models.AgentName) *specialist.Base
}

// Feedback is the input to HandleHumanApproval (§4.7).
type Feedback struct {
	SessionID     string
	PlanID        string
	StepID        string // empty means "every non-terminal step"
	Approved      bool
	HumanFeedback string
}

// Manager implements the Group Chat Manager (C8).
type Manager struct {
	Store   Store
	Planner PlannerClient
	Roster  RosterLookup

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

// New constructs a Manager.
func New(st Store, pl PlannerClient, roster RosterLookup) *Manager {
	return &Manager{Store: st, Planner: pl, Roster: roster, sessions: make(map[string]*sync.Mutex)}
}

// lockFor returns the single-writer mutex for a session (§5 "single-writer
// discipline"), creating one on first use.
func (m *Manager) lockFor(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.sessions[sessionID]
	if !ok {
		l = &sync.Mutex{}
		m.sessions[sessionID] = l
	}
	return l
}

// HandleInputTask implements §4.7 step 1: record the user's message, then
// forward to the Planner.
func (m *Manager) HandleInputTask(ctx context.Context, sessionID, userID, description string) (*models.Plan, error) {
	lock := m.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := m.Store.AddAgentMessage(ctx, models.AgentMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		UserID:    userID,
		Source:    "User",
		Content:   description,
	}); err != nil {
		return nil, fmt.Errorf("groupchat: record user message: %w", err)
	}

	plan, err := m.Planner.HandleInputTask(ctx, planner.Task{SessionID: sessionID, UserID: userID, Description: description})
	if err != nil {
		return nil, fmt.Errorf("groupchat: forward to planner: %w", err)
	}
	return plan, nil
}

// ApprovalReceived implements pkg/human.Notifier: it re-enters the
// approved/rejected transition for the single step the Human Agent just
// recorded feedback for. A fresh background context is used since the
// originating HTTP request may already have returned (§5 "the HTTP request
// handler returns as soon as the orchestrator has persisted the initiating
// mutation; downstream work proceeds asynchronously").
func (m *Manager) ApprovalReceived(ctx context.Context, sessionID, planID, stepID string, approved bool, humanFeedback string) {
	go func() {
		if err := m.HandleHumanApproval(context.Background(), Feedback{
			SessionID:     sessionID,
			PlanID:        planID,
			StepID:        stepID,
			Approved:      approved,
			HumanFeedback: humanFeedback,
		}); err != nil {
			slog.Warn("groupchat: approval follow-up failed", "session_id", sessionID, "step_id", stepID, "error", err)
		}
	}()
}

// HandleHumanApproval implements §4.7's second operation.
func (m *Manager) HandleHumanApproval(ctx context.Context, fb Feedback) error {
	lock := m.lockFor(fb.SessionID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := m.Store.GetPlan(ctx, fb.PlanID)
	if err != nil {
		return fmt.Errorf("groupchat: load plan %s: %w", fb.PlanID, err)
	}
	steps, err := m.Store.ListStepsByPlan(ctx, fb.PlanID)
	if err != nil {
		return fmt.Errorf("groupchat: list steps for plan %s: %w", fb.PlanID, err)
	}

	planFeedback := plan.HumanClarificationResponse
	if planFeedback == "" {
		planFeedback = "No human feedback provided on the overall plan."
	}
	effective := fmt.Sprintf("%s Today's date is %s. %s", fb.HumanFeedback, time.Now().UTC().Format("2006-01-02"), planFeedback)

	var targets []models.Step
	if fb.StepID != "" {
		for _, st := range steps {
			if st.ID == fb.StepID {
				targets = append(targets, st)
				break
			}
		}
	} else {
		for _, st := range steps {
			if !st.Status.Terminal() {
				targets = append(targets, st)
			}
		}
	}

	for _, step := range targets {
		// Idempotence: a step already terminal (completed directly by the
		// Human Agent, or already processed) is left untouched.
		if step.Status.Terminal() {
			continue
		}

		if !fb.Approved {
			step.HumanApprovalStatus = models.ApprovalRejected
			step.Status = models.StepRejected
			if _, err := m.Store.UpdateStep(ctx, step); err != nil {
				return fmt.Errorf("groupchat: reject step %s: %w", step.ID, err)
			}
			continue
		}

		step.HumanApprovalStatus = models.ApprovalAccepted
		step.Status = models.StepApproved
		step.HumanFeedback = effective
		if step.Agent == models.AgentHumanReserved && step.AgentReply == "" {
			step.AgentReply = fb.HumanFeedback
		}
		step, err = m.Store.UpdateStep(ctx, step)
		if err != nil {
			return fmt.Errorf("groupchat: approve step %s: %w", step.ID, err)
		}

		m.executeStep(ctx, plan, step)
	}

	m.recomputePlanStatus(ctx, fb.PlanID)
	return nil
}

// executeStep implements §4.7's executeStep operation. Non-Human steps are
// dispatched to their specialist asynchronously; the caller does not wait
// for the specialist's eventual write-back (§5 suspension points).
func (m *Manager) executeStep(ctx context.Context, plan models.Plan, step models.Step) {
	step.Status = models.StepActionRequested
	step, err := m.Store.UpdateStep(ctx, step)
	if err != nil {
		slog.Warn("groupchat: mark step action_requested failed", "step_id", step.ID, "error", err)
		return
	}

	if step.Agent == models.AgentHumanReserved {
		step.Status = models.StepCompleted
		if step.AgentReply == "" {
			step.AgentReply = step.HumanFeedback
		}
		if _, err := m.Store.UpdateStep(ctx, step); err != nil {
			slog.Warn("groupchat: complete human step failed", "step_id", step.ID, "error", err)
		}
		m.recomputePlanStatus(ctx, plan.ID)
		return
	}

	sp := m.Roster.Get(step.Agent)
	preface, err := m.buildPreface(ctx, plan, step.ID)
	if err != nil {
		slog.Warn("groupchat: build preface failed", "step_id", step.ID, "error", err)
		preface = plan.Summary
	}
	// An updated_action supplied with the human's feedback supersedes the
	// planned action.
	stepAction := step.Action
	if step.UpdatedAction != "" {
		stepAction = step.UpdatedAction
	}
	action := preface + "\nHere is the step to action: " + stepAction +
		" ONLY perform this step; do not perform any other steps."

	req := specialist.ActionRequest{
		StepID:    step.ID,
		PlanID:    plan.ID,
		SessionID: step.SessionID,
		Action:    action,
	}

	go func() {
		bg := context.Background()
		if _, err := sp.HandleActionRequest(bg, req); err != nil {
			slog.Warn("groupchat: specialist dispatch failed", "agent", step.Agent, "step_id", step.ID, "error", err)
		}
		m.recomputePlanStatus(bg, plan.ID)
	}()
}

// buildPreface implements §4.7.1: a plaintext block enumerating every
// prior step in insertion order up to but not including stepID, prefixed
// by the Plan's summary — the only cross-step context a specialist gets.
func (m *Manager) buildPreface(ctx context.Context, plan models.Plan, stepID string) (string, error) {
	steps, err := m.Store.ListStepsByPlan(ctx, plan.ID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(plan.Summary)
	for i, st := range steps {
		if st.ID == stepID {
			break
		}
		sb.WriteString(fmt.Sprintf("\nStep %d / GroupChatManager: %s / %s: %s", i+1, st.Action, st.Agent, st.AgentReply))
	}
	return sb.String(), nil
}

// recomputePlanStatus implements §4.7.1 "Termination": once every Step in
// the plan is terminal, the Plan transitions to completed and no further
// dispatches occur.
func (m *Manager) recomputePlanStatus(ctx context.Context, planID string) {
	plan, err := m.Store.GetPlan(ctx, planID)
	if err != nil {
		slog.Warn("groupchat: recompute plan status: load plan failed", "plan_id", planID, "error", err)
		return
	}
	if plan.OverallStatus == models.PlanCompleted {
		return
	}

	steps, err := m.Store.ListStepsByPlan(ctx, planID)
	if err != nil {
		slog.Warn("groupchat: recompute plan status: list steps failed", "plan_id", planID, "error", err)
		return
	}
	if len(steps) == 0 {
		return
	}
	for _, st := range steps {
		if !st.Status.Terminal() {
			return
		}
	}

	plan.OverallStatus = models.PlanCompleted
	if _, err := m.Store.UpdatePlan(ctx, plan); err != nil {
		slog.Warn("groupchat: recompute plan status: update plan failed", "plan_id", planID, "error", err)
	}
}
