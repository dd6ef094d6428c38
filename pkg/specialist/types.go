// Package specialist implements the Base Specialist (C4): the generic
// per-agent execution loop that receives an action, chooses a tool via the
// LLM Gateway, invokes it, and records the reply. Grounded on the teacher's
// two-layer pkg/agent shape (BaseAgent delegating to a Controller) — here
// specialist.Base delegates the bounded tool-calling loop (§4.4.1) to
// specialist.Loop.
package specialist

import "github.com/codeready-toolchain/conductor/pkg/models"

// ActionRequest carries one Step from the Group Chat Manager to a
// Specialist (§4.4, GLOSSARY "Action Request").
type ActionRequest struct {
	StepID    string
	PlanID    string
	SessionID string
	Action    string
}

// ActionResponse carries the Specialist's result back (§4.4 step 6).
type ActionResponse struct {
	StepID    string
	PlanID    string
	SessionID string
	Result    string
	Status    models.StepStatus // StepCompleted or StepFailed
}
