package planner

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/codeready-toolchain/conductor/pkg/models"
)

// parsePlanResponse runs the §4.6 step 3 four-rung parsing ladder against
// raw LLM content, in order, returning the first rung that succeeds. This
// is a design decision, not an accident (§9 "Fallback-on-parse strategy"):
// LLM output reliably drifts between schema-validated JSON, fenced JSON,
// and prose.
func parsePlanResponse(content string, rosterNames []models.AgentName) (rawPlan, error) {
	if p, err := parseDirect(content); err == nil {
		return p, nil
	}
	if p, err := parseFencedJSON(content); err == nil {
		return p, nil
	}
	if p, err := parseRegexObject(content); err == nil {
		return p, nil
	}
	if p, err := parseBulletList(content, rosterNames); err == nil {
		return p, nil
	}
	return rawPlan{}, fmt.Errorf("planner: all parsing rungs failed")
}

// parseDirect is rung (a): the response is already a bare JSON object.
func parseDirect(content string) (rawPlan, error) {
	var p rawPlan
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &p); err != nil {
		return rawPlan{}, err
	}
	return validateRawPlan(p)
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// parseFencedJSON is rung (b): JSON extracted from a fenced code block.
func parseFencedJSON(content string) (rawPlan, error) {
	m := fencedBlockRe.FindStringSubmatch(content)
	if m == nil {
		return rawPlan{}, fmt.Errorf("no fenced JSON block found")
	}
	var p rawPlan
	if err := json.Unmarshal([]byte(m[1]), &p); err != nil {
		return rawPlan{}, err
	}
	return validateRawPlan(p)
}

// parseRegexObject is rung (c): a best-effort extraction of a JSON-object-
// shaped substring that mentions both required keys, found by a plain
// marker search and a balanced-brace scan from the last "{" before the
// first "initial_goal" occurrence.
func parseRegexObject(content string) (rawPlan, error) {
	idx := strings.Index(content, `"initial_goal"`)
	if idx == -1 || !strings.Contains(content, `"steps"`) {
		return rawPlan{}, fmt.Errorf("no initial_goal/steps markers found")
	}
	start := strings.LastIndex(content[:idx], "{")
	if start == -1 {
		return rawPlan{}, fmt.Errorf("no opening brace found before initial_goal")
	}

	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := content[start : i+1]
				var p rawPlan
				if err := json.Unmarshal([]byte(candidate), &p); err != nil {
					return rawPlan{}, err
				}
				return validateRawPlan(p)
			}
		}
	}
	return rawPlan{}, fmt.Errorf("unbalanced braces")
}

var (
	numberedLineRe = regexp.MustCompile(`(?m)^\s*(?:[-*]|\d+[.)])\s+(.*)$`)
	agentTagRe     = regexp.MustCompile(`(?i)\b(HR|Marketing|Procurement|Product|TechSupport|Tech Support|Generic|Human)\b`)
)

// parseBulletList is rung (d): reconstruct steps from a bullet/numbered
// prose list, assigning any step whose agent can't be recognised to Generic
// (§4.6 step 3d).
func parseBulletList(content string, rosterNames []models.AgentName) (rawPlan, error) {
	matches := numberedLineRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return rawPlan{}, fmt.Errorf("no bullet/numbered list found")
	}

	known := make(map[string]models.AgentName, len(rosterNames)+1)
	for _, n := range rosterNames {
		known[strings.ToLower(string(n))] = n
	}
	known["human"] = models.AgentHumanReserved
	known["tech support"] = models.AgentTechSupport

	var steps []rawStep
	for _, m := range matches {
		line := strings.TrimSpace(m[1])
		if line == "" {
			continue
		}
		agent := models.AgentGeneric
		if tagMatch := agentTagRe.FindString(line); tagMatch != "" {
			if a, ok := known[strings.ToLower(tagMatch)]; ok {
				agent = a
			}
		}
		steps = append(steps, rawStep{Action: line, Agent: string(agent)})
		if len(steps) == 6 {
			break
		}
	}
	if len(steps) == 0 {
		return rawPlan{}, fmt.Errorf("no usable steps reconstructed from prose")
	}

	return rawPlan{
		InitialGoal:         firstNonEmptyLine(content),
		Steps:               steps,
		SummaryPlanAndSteps: fmt.Sprintf("Reconstructed %d step(s) from free-form planner output.", len(steps)),
	}, nil
}

func firstNonEmptyLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return "Untitled objective"
}

// validateRawPlan enforces §8 P6 (≤6 steps) and that every step has a
// non-empty action and agent for the three JSON rungs; parseBulletList
// builds its steps within the same limits itself.
func validateRawPlan(p rawPlan) (rawPlan, error) {
	if p.InitialGoal == "" {
		return rawPlan{}, fmt.Errorf("missing initial_goal")
	}
	if len(p.Steps) == 0 {
		return rawPlan{}, fmt.Errorf("no steps")
	}
	if len(p.Steps) > 6 {
		p.Steps = p.Steps[:6]
	}
	for i, st := range p.Steps {
		if st.Action == "" || st.Agent == "" {
			return rawPlan{}, fmt.Errorf("step %d missing action or agent", i)
		}
	}
	return p, nil
}
