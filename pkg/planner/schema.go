package planner

import (
	"encoding/json"

	"github.com/codeready-toolchain/conductor/pkg/models"
)

// responseSchema renders the §4.6 step 2 response schema, constraining
// `agent` to the roster names plus the reserved Human pseudo-agent, and
// `steps` to at most 6 entries (§4.6, §8 P6).
func responseSchema(rosterNames []models.AgentName) string {
	agentEnum := make([]string, 0, len(rosterNames)+1)
	for _, n := range rosterNames {
		agentEnum = append(agentEnum, string(n))
	}
	agentEnum = append(agentEnum, string(models.AgentHumanReserved))

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"initial_goal": map[string]any{"type": "string"},
			"steps": map[string]any{
				"type":     "array",
				"maxItems": 6,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"action": map[string]any{"type": "string"},
						"agent":  map[string]any{"type": "string", "enum": agentEnum},
					},
					"required": []string{"action", "agent"},
				},
			},
			"summary_plan_and_steps":      map[string]any{"type": "string"},
			"human_clarification_request": map[string]any{"type": "string"},
		},
		"required": []string{"initial_goal", "steps", "summary_plan_and_steps"},
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		panic("planner: marshal response schema: " + err.Error())
	}
	return string(raw)
}
