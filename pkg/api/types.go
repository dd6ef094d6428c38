package api

// inputTaskRequest is POST /input_task's body (§6).
type inputTaskRequest struct {
	SessionID   string `json:"session_id"`
	Description string `json:"description" binding:"required"`
}

// humanFeedbackRequest is POST /human_feedback's body (§6, §4.5).
type humanFeedbackRequest struct {
	SessionID     string `json:"session_id" binding:"required"`
	StepID        string `json:"step_id" binding:"required"`
	PlanID        string `json:"plan_id" binding:"required"`
	Approved      bool   `json:"approved"`
	HumanFeedback string `json:"human_feedback"`
	UpdatedAction string `json:"updated_action"`
}

// clarificationRequest is POST /human_clarification_on_plan's body (§6, §4.6).
type clarificationRequest struct {
	SessionID          string `json:"session_id" binding:"required"`
	PlanID             string `json:"plan_id" binding:"required"`
	HumanClarification string `json:"human_clarification" binding:"required"`
}

// approveRequest is POST /approve_step_or_steps's body (§6, §4.7).
type approveRequest struct {
	SessionID     string `json:"session_id" binding:"required"`
	PlanID        string `json:"plan_id" binding:"required"`
	StepID        string `json:"step_id"`
	Approved      bool   `json:"approved"`
	HumanFeedback string `json:"human_feedback"`
}

// agentToolEntry is one row of GET /api/agent-tools's flattened catalog (§6).
type agentToolEntry struct {
	Agent       string `json:"agent"`
	Function    string `json:"function"`
	Description string `json:"description"`
	Arguments   string `json:"arguments"`
}
