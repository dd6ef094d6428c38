// Package models defines the shared data-transfer types for the orchestrator:
// Session, Plan, Step, and Agent Message (spec §3), plus their status enums.
// These are plain structs shared by pkg/store, pkg/planner, pkg/groupchat,
// pkg/human, and pkg/api — the same "DTO package imported by every service"
// shape as the teacher's pkg/models.
package models

import "time"

// PlanStatus is the Plan.OverallStatus enum (§3).
type PlanStatus string

const (
	PlanInProgress PlanStatus = "in_progress"
	PlanCompleted  PlanStatus = "completed"
	PlanFailed     PlanStatus = "failed"
)

// StepStatus is the Step.Status enum (§3).
type StepStatus string

const (
	StepPlanned          StepStatus = "planned"
	StepAwaitingFeedback StepStatus = "awaiting_feedback"
	StepApproved         StepStatus = "approved"
	StepRejected         StepStatus = "rejected"
	StepActionRequested  StepStatus = "action_requested"
	StepCompleted        StepStatus = "completed"
	StepFailed           StepStatus = "failed"
)

// Terminal reports whether a Step status can never transition further (§3
// "Lifecycles": completed, failed, rejected are immutable).
func (s StepStatus) Terminal() bool {
	switch s {
	case StepCompleted, StepFailed, StepRejected:
		return true
	default:
		return false
	}
}

// HumanApprovalStatus is the Step.HumanApprovalStatus enum (§3).
type HumanApprovalStatus string

const (
	ApprovalRequested HumanApprovalStatus = "requested"
	ApprovalAccepted  HumanApprovalStatus = "accepted"
	ApprovalRejected  HumanApprovalStatus = "rejected"
)

// AgentName enumerates the Specialist Roster (Generic included, as the
// fallback specialist) plus the reserved Human pseudo-agent (§4.6, §9
// "dynamic roster").
type AgentName string

const (
	AgentHR            AgentName = "HR"
	AgentMarketing     AgentName = "Marketing"
	AgentProcurement   AgentName = "Procurement"
	AgentProduct       AgentName = "Product"
	AgentTechSupport   AgentName = "TechSupport"
	AgentGeneric       AgentName = "Generic"
	AgentHumanReserved AgentName = "Human"
)

// PlannerSource is the fixed Plan.Source value (§3).
const PlannerSource = "PlannerAgent"

// Session identifies a single user objective run (§3).
type Session struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	CurrentStatus string    `json:"current_status"`
	MessageToUser string    `json:"message_to_user,omitempty"`
	Ts            time.Time `json:"ts"`
}

// Plan is the Planner's decomposition of one Session's objective (§3).
type Plan struct {
	ID                         string     `json:"id"`
	SessionID                  string     `json:"session_id"`
	UserID                     string     `json:"user_id"`
	InitialGoal                string     `json:"initial_goal"`
	Summary                    string     `json:"summary"`
	OverallStatus              PlanStatus `json:"overall_status"`
	HumanClarificationRequest  string     `json:"human_clarification_request,omitempty"`
	HumanClarificationResponse string     `json:"human_clarification_response,omitempty"`
	Source                     string     `json:"source"`
	Ts                         time.Time  `json:"ts"`
}

// Step is an ordered unit of work within a Plan (§3). Ordinal preserves
// insertion order independently of timestamp resolution (§9 Open Questions).
type Step struct {
	ID                  string              `json:"id"`
	PlanID              string              `json:"plan_id"`
	SessionID           string              `json:"session_id"`
	UserID              string              `json:"user_id"`
	Ordinal             int                 `json:"ordinal"`
	Action              string              `json:"action"`
	Agent               AgentName           `json:"agent"`
	Status              StepStatus          `json:"status"`
	HumanApprovalStatus HumanApprovalStatus `json:"human_approval_status"`
	HumanFeedback       string              `json:"human_feedback,omitempty"`
	UpdatedAction       string              `json:"updated_action,omitempty"`
	AgentReply          string              `json:"agent_reply,omitempty"`
	Ts                  time.Time           `json:"ts"`
}

// AgentMessage is an append-only conversational record within a session (§3).
type AgentMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	PlanID    string    `json:"plan_id"`
	StepID    string    `json:"step_id,omitempty"`
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	Ts        time.Time `json:"ts"`
}

// PlanWithSteps is the §6 aggregate view returned by GET /plans: a Plan plus
// its Steps and terminal/non-terminal counters, with OverallStatus recomputed
// from I5 (completed iff every step is terminal).
type PlanWithSteps struct {
	Plan           Plan       `json:"plan"`
	Steps          []Step     `json:"steps"`
	TotalSteps     int        `json:"total_steps"`
	CompletedSteps int        `json:"completed_steps"`
	FailedSteps    int        `json:"failed_steps"`
	OverallStatus  PlanStatus `json:"overall_status"`
}

// NewPlanWithSteps assembles the aggregate view and recomputes OverallStatus
// per invariant I5, independent of whatever OverallStatus was persisted —
// the teacher's lazily-recomputed status pattern (see pkg/groupchat).
func NewPlanWithSteps(plan Plan, steps []Step) PlanWithSteps {
	pws := PlanWithSteps{Plan: plan, Steps: steps, TotalSteps: len(steps)}
	for _, st := range steps {
		switch st.Status {
		case StepCompleted:
			pws.CompletedSteps++
		case StepFailed:
			pws.FailedSteps++
		}
	}
	if pws.TotalSteps > 0 && pws.CompletedSteps+pws.FailedSteps == pws.TotalSteps {
		pws.OverallStatus = PlanCompleted
	} else {
		pws.OverallStatus = plan.OverallStatus
	}
	return pws
}
