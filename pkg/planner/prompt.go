package planner

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/conductor/pkg/llmgateway"
	"github.com/codeready-toolchain/conductor/pkg/models"
)

// PromptBuilder assembles the planning prompt (§4.6 step 1), grounded on the
// teacher's pkg/agent/prompt.PromptBuilder-style interface: a small,
// injectable interface building typed message slices from typed inputs so
// tests can substitute a stub builder.
type PromptBuilder interface {
	BuildPlanningMessages(objective string, rosterNames []models.AgentName, catalog Catalog) []llmgateway.Message
}

// DefaultPromptBuilder is the production PromptBuilder.
type DefaultPromptBuilder struct{}

const planningPolicyPrompt = `You are the Planner for a multi-agent task orchestrator. Given a user
objective, decompose it into at most 6 ordered steps. Each step is assigned
to exactly one specialist agent from the roster below.

Planning policy:
- Prefer a single step that calls a specific function/tool directly when one
  solves the task.
- If no specialist tool applies but a general-purpose LLM can still complete
  the step, assign it to "Generic" and include the marker
  "EXCEPTION: No suitable function found. A generic LLM model is being used"
  in that step's action.
- If neither applies, assign the step to "Human" and include the marker
  "EXCEPTION: Human support required" in that step's action.
- Each action must be a single instruction sentence that names the target
  tool verbatim when one is used.
- If the objective is genuinely ambiguous, set human_clarification_request
  to a concrete question; otherwise omit it.

Respond with ONLY a JSON object matching the required schema. Do not wrap it
in prose or code fences.`

// BuildPlanningMessages implements PromptBuilder.
func (DefaultPromptBuilder) BuildPlanningMessages(objective string, rosterNames []models.AgentName, catalog Catalog) []llmgateway.Message {
	var sb strings.Builder
	sb.WriteString("Available specialists: ")
	names := make([]string, 0, len(rosterNames))
	for _, n := range rosterNames {
		names = append(names, string(n))
	}
	names = append(names, string(models.AgentHumanReserved))
	sb.WriteString(strings.Join(names, ", "))
	sb.WriteString("\n\nTool catalog:\n")

	for _, n := range rosterNames {
		for _, t := range catalog.ToolsFor(n) {
			sb.WriteString(fmt.Sprintf("- [%s] %s: %s (parameters: %s)\n", n, t.Name, t.Description, t.ParameterSchema))
		}
	}

	return []llmgateway.Message{
		{Role: llmgateway.RoleSystem, Content: planningPolicyPrompt},
		{Role: llmgateway.RoleUser, Content: sb.String() + "\nObjective: " + objective},
	}
}
