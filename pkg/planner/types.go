// Package planner implements the Planner (C7): transforms an objective into
// a structured Plan and its ordered Steps via a schema-constrained LLM call
// with a four-rung parsing ladder and a guaranteed fallback plan. Grounded
// on the teacher's pkg/agent/prompt package (a small interface building
// typed message slices from typed inputs) for prompt assembly; the parsing
// ladder and fallback-plan policy are built fresh since no pack example
// implements this exact problem (LLM output drifting between schema JSON,
// fenced JSON, and prose — see DESIGN.md).
package planner

import (
	"github.com/codeready-toolchain/conductor/pkg/models"
	"github.com/codeready-toolchain/conductor/pkg/tools"
)

// Task is the input to HandleInputTask (§4.6).
type Task struct {
	SessionID   string
	UserID      string
	Description string
}

// ClarificationMsg is the input to HandlePlanClarification (§4.6).
type ClarificationMsg struct {
	SessionID          string
	PlanID             string
	HumanClarification string
}

// Catalog is the narrow view of the Specialist Roster the Planner needs to
// assemble its prompt and validate proposed agent names (§4.6 step 1, §9
// "dynamic roster"). pkg/roster.Roster satisfies this structurally.
type Catalog interface {
	Names() []models.AgentName
	ToolsFor(name models.AgentName) []tools.Tool
}

// rawStep/rawPlan are the intermediate shape every rung of the parsing
// ladder (§4.6 step 3) produces, before HandleInputTask persists them as
// models.Plan / models.Step.
type rawStep struct {
	Action string `json:"action"`
	Agent  string `json:"agent"`
}

type rawPlan struct {
	InitialGoal               string    `json:"initial_goal"`
	Steps                     []rawStep `json:"steps"`
	SummaryPlanAndSteps       string    `json:"summary_plan_and_steps"`
	HumanClarificationRequest string    `json:"human_clarification_request,omitempty"`
}
