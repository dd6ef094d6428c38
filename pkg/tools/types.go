// Package tools implements the Tool Registry (C3): per-specialist catalogs
// of callable, deterministic, side-effect-free tools, loaded at startup from
// the §6 tool-catalog JSON format. Grounded on the teacher's split between
// config.AgentConfig (static per-agent metadata) and pkg/mcp's tool routing,
// simplified per §4.3 to a built-in Markdown-responder catalog rather than a
// live MCP client (see DESIGN.md).
package tools

import "fmt"

// Parameter is one typed, named argument a tool accepts (§9 "Dynamic tool
// signatures" — declared, not reflected from a function signature).
type Parameter struct {
	Name        string
	Type        string // "string", "number", "boolean", "integer"
	Description string
	Required    bool
}

// Tool is a single callable exposed to the LLM Gateway's function-calling
// interface (§4.3).
type Tool struct {
	Name             string
	Description      string
	Parameters       []Parameter
	ParameterSchema  string // JSON Schema rendered from Parameters, for §4.2 validation
	ResponseTemplate string
	Invoke           func(args map[string]any) (string, error)
}

// renderTemplate fills {placeholder} markers in ResponseTemplate from args,
// the deterministic Markdown-confirmation behaviour §4.3 requires of every
// built-in tool.
func renderTemplate(template string, args map[string]any) string {
	out := make([]byte, 0, len(template))
	i := 0
	for i < len(template) {
		if template[i] == '{' {
			end := i + 1
			for end < len(template) && template[end] != '}' {
				end++
			}
			if end < len(template) {
				key := template[i+1 : end]
				if v, ok := args[key]; ok {
					out = append(out, []byte(fmt.Sprintf("%v", v))...)
				} else {
					out = append(out, []byte(template[i:end+1])...)
				}
				i = end + 1
				continue
			}
		}
		out = append(out, template[i])
		i++
	}
	return string(out)
}
