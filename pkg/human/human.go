// Package human implements the Human-in-the-Loop Agent (C6): accepts
// approval/feedback on a Step, updates the Store, and signals the Group
// Chat Manager to advance the plan. Nothing in the teacher repo plays
// exactly this role (tarsy has no approval gate); built fresh in the
// teacher's idiom — small struct, store handle, slog logging, sentinel
// errors — rather than adapted from one specific file (see DESIGN.md).
package human

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/conductor/pkg/models"
)

// Store is the narrow slice of the §4.1 Store contract the Human Agent needs.
type Store interface {
	GetStep(ctx context.Context, id, sessionID string) (models.Step, error)
	UpdateStep(ctx context.Context, step models.Step) (models.Step, error)
	AddAgentMessage(ctx context.Context, msg models.AgentMessage) (models.AgentMessage, error)
}

// Notifier is implemented by the Group Chat Manager: ApprovalReceived is
// called after a Step's feedback has been durably recorded, so the Manager
// can run the approved/rejected transition and, for approved non-Human
// steps, drive execution (§4.5 step 4 "Emit an ApprovalRequest", §4.7
// handleHumanApproval).
type Notifier interface {
	ApprovalReceived(ctx context.Context, sessionID, planID, stepID string, approved bool, humanFeedback string)
}

// Feedback is the input to HandleStepFeedback (§4.5).
type Feedback struct {
	SessionID     string
	StepID        string
	PlanID        string
	Approved      bool
	HumanFeedback string
	UpdatedAction string
}

// Agent implements the Human-in-the-Loop Agent (C6).
type Agent struct {
	Store    Store
	Notifier Notifier

	mu sync.Mutex
}

// New constructs a Human Agent.
func New(st Store, notifier Notifier) *Agent {
	return &Agent{Store: st, Notifier: notifier}
}

// HandleStepFeedback implements §4.5 exactly. Session Runtime builds one
// Agent per session, and the Agent serialises its own calls, so feedback for
// a session is processed strictly one call at a time.
func (a *Agent) HandleStepFeedback(ctx context.Context, fb Feedback) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	step, err := a.Store.GetStep(ctx, fb.StepID, fb.SessionID)
	if err != nil {
		slog.Warn("human: feedback for unknown step, ignoring", "step_id", fb.StepID, "session_id", fb.SessionID)
		return nil
	}

	// §8 P10 idempotence: a second call against an already-terminal Step is a
	// no-op, it does not re-append a message or re-fire the notifier.
	if step.Status.Terminal() {
		return nil
	}

	step.HumanFeedback = fb.HumanFeedback
	if fb.UpdatedAction != "" {
		step.UpdatedAction = fb.UpdatedAction
	}

	// Human steps complete (or are rejected) directly on feedback receipt —
	// there is no separate execution phase for them. Every other step is
	// left exactly as the Planner created it; the approved/rejected
	// transition and any execution are the Group Chat Manager's job,
	// reached below via the Notifier (§4.6 "execution precedes completion
	// for non-Human steps").
	if step.Agent == models.AgentHumanReserved {
		if fb.Approved {
			step.HumanApprovalStatus = models.ApprovalAccepted
			step.Status = models.StepCompleted
			step.AgentReply = fb.HumanFeedback
		} else {
			step.HumanApprovalStatus = models.ApprovalRejected
			step.Status = models.StepRejected
		}
	}

	if _, err := a.Store.UpdateStep(ctx, step); err != nil {
		return fmt.Errorf("human: update step %s: %w", step.ID, err)
	}

	if _, err := a.Store.AddAgentMessage(ctx, models.AgentMessage{
		ID:        uuid.New().String(),
		SessionID: fb.SessionID,
		UserID:    step.UserID,
		PlanID:    fb.PlanID,
		StepID:    fb.StepID,
		Source:    "HumanAgent",
		Content:   fb.HumanFeedback,
	}); err != nil {
		return fmt.Errorf("human: record feedback message: %w", err)
	}

	if a.Notifier != nil {
		a.Notifier.ApprovalReceived(ctx, fb.SessionID, fb.PlanID, fb.StepID, fb.Approved, fb.HumanFeedback)
	}
	return nil
}
