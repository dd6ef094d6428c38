package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalogJSON = `{
  "agent_name": "HR",
  "system_message": "You are the HR specialist.",
  "tools": [
    {
      "name": "onboard_employee",
      "description": "Onboard a new employee.",
      "parameters": [
        { "name": "employee_name", "type": "string", "description": "Full name.", "required": true },
        { "name": "start_date", "type": "string", "description": "Start date.", "required": false }
      ],
      "response_template": "Onboarding started for {employee_name} on {start_date}."
    }
  ]
}`

func TestParseCatalog(t *testing.T) {
	cat, err := ParseCatalog([]byte(sampleCatalogJSON))
	require.NoError(t, err)
	assert.Equal(t, "HR", cat.AgentName)
	assert.Equal(t, "You are the HR specialist.", cat.SystemMessage)
	require.Len(t, cat.Tools, 1)
	assert.Equal(t, "onboard_employee", cat.Tools[0].Name)
}

func TestParseCatalog_MissingAgentName(t *testing.T) {
	_, err := ParseCatalog([]byte(`{"tools": []}`))
	assert.Error(t, err)
}

func TestParseCatalog_InvalidJSON(t *testing.T) {
	_, err := ParseCatalog([]byte(`not json`))
	assert.Error(t, err)
}

func TestBuildRegistry_IncludesHelpFallbackTool(t *testing.T) {
	cat, err := ParseCatalog([]byte(sampleCatalogJSON))
	require.NoError(t, err)

	reg := BuildRegistry(cat)

	_, ok := reg.Get("HR_help_with_tasks")
	require.True(t, ok, "fallback tool must exist for every specialist (§4.3)")

	tool, ok := reg.Get("onboard_employee")
	require.True(t, ok)
	result, err := tool.Invoke(map[string]any{"employee_name": "Jessica Smith", "start_date": "2025-06-01"})
	require.NoError(t, err)
	assert.Equal(t, "Onboarding started for Jessica Smith on 2025-06-01.", result)
}

func TestBuildRegistry_HelpTool_EchoesInput(t *testing.T) {
	cat, _ := ParseCatalog([]byte(sampleCatalogJSON))
	reg := BuildRegistry(cat)

	tool, ok := reg.Get("HR_help_with_tasks")
	require.True(t, ok)
	result, err := tool.Invoke(map[string]any{"input": "what benefits do we offer?"})
	require.NoError(t, err)
	assert.Contains(t, result, "what benefits do we offer?")
}

func TestParametersToJSONSchema_MarksRequiredFields(t *testing.T) {
	cat, _ := ParseCatalog([]byte(sampleCatalogJSON))
	reg := BuildRegistry(cat)

	tool, _ := reg.Get("onboard_employee")
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(tool.ParameterSchema), &schema))

	required, ok := schema["required"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"employee_name"}, required)

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "employee_name")
	assert.Contains(t, props, "start_date")
}

func TestJSONSchemaType_UnknownFallsBackToString(t *testing.T) {
	assert.Equal(t, "string", jsonSchemaType("weird-type"))
	assert.Equal(t, "number", jsonSchemaType("number"))
	assert.Equal(t, "boolean", jsonSchemaType("boolean"))
}
