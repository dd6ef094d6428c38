package tools

import (
	"encoding/json"
	"fmt"
)

// Catalog is the §6 "Tool catalog JSON format": one file per specialist,
// loaded at startup by pkg/config.
type Catalog struct {
	AgentName     string        `json:"agent_name"`
	SystemMessage string        `json:"system_message"`
	Tools         []CatalogTool `json:"tools"`
}

// CatalogTool is one entry of Catalog.Tools.
type CatalogTool struct {
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	Parameters       []CatalogParameter `json:"parameters"`
	ResponseTemplate string             `json:"response_template"`
}

// CatalogParameter is one entry of CatalogTool.Parameters.
type CatalogParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required,omitempty"`
}

// ParseCatalog decodes one tool-catalog JSON document.
func ParseCatalog(data []byte) (Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("tools: invalid catalog JSON: %w", err)
	}
	if cat.AgentName == "" {
		return Catalog{}, fmt.Errorf("tools: catalog missing agent_name")
	}
	return cat, nil
}

// helpToolName is the mandatory fallback every specialist registry carries
// (§4.3 "<agent>_help_with_tasks").
func helpToolName(agentName string) string {
	return agentName + "_help_with_tasks"
}

// BuildRegistry turns a parsed Catalog into a Registry of deterministic,
// Markdown-responding Tools (§4.3: "deterministic functions of their
// arguments that return Markdown-formatted confirmation strings"), appending
// the mandatory `<agent>_help_with_tasks` fallback tool.
func BuildRegistry(cat Catalog) *Registry {
	toolList := make([]Tool, 0, len(cat.Tools)+1)
	for _, ct := range cat.Tools {
		ct := ct
		toolList = append(toolList, Tool{
			Name:             ct.Name,
			Description:      ct.Description,
			Parameters:       toParameters(ct.Parameters),
			ParameterSchema:  parametersToJSONSchema(ct.Parameters),
			ResponseTemplate: ct.ResponseTemplate,
			Invoke: func(args map[string]any) (string, error) {
				return renderTemplate(ct.ResponseTemplate, args), nil
			},
		})
	}

	helpName := helpToolName(cat.AgentName)
	helpParams := []CatalogParameter{{Name: "input", Type: "string",
		Description: "Free-form description of what the user needs help with.", Required: true}}
	toolList = append(toolList, Tool{
		Name:            helpName,
		Description:     fmt.Sprintf("Fallback tool for %s: ask a general question when no specific tool applies.", cat.AgentName),
		Parameters:      toParameters(helpParams),
		ParameterSchema: parametersToJSONSchema(helpParams),
		Invoke: func(args map[string]any) (string, error) {
			return fmt.Sprintf("Acknowledged request: %v", args["input"]), nil
		},
	})

	return NewRegistry(toolList)
}

func toParameters(params []CatalogParameter) []Parameter {
	out := make([]Parameter, 0, len(params))
	for _, p := range params {
		out = append(out, Parameter{
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
			Required:    p.Required,
		})
	}
	return out
}

// parametersToJSONSchema renders the declared parameter array into a JSON
// Schema object, which is what the LLM Gateway's schema validator and the
// wire "parameters" field of a function-call definition both expect.
func parametersToJSONSchema(params []CatalogParameter) string {
	properties := make(map[string]any, len(params))
	var required []string
	for _, p := range params {
		properties[p.Name] = map[string]any{
			"type":        jsonSchemaType(p.Type),
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		// Parameter names/descriptions are plain strings; this cannot fail.
		panic(fmt.Sprintf("tools: marshal parameter schema: %v", err))
	}
	return string(raw)
}

func jsonSchemaType(t string) string {
	switch t {
	case "number", "integer", "boolean", "array", "object", "string":
		return t
	default:
		return "string"
	}
}
