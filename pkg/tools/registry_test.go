package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_DuplicateNamePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry([]Tool{
			{Name: "dup"},
			{Name: "dup"},
		})
	})
}

func TestRegistry_ListPreservesDeclarationOrder(t *testing.T) {
	r := NewRegistry([]Tool{
		{Name: "c"},
		{Name: "a"},
		{Name: "b"},
	})

	got := r.List()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].Name, got[1].Name, got[2].Name})
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry([]Tool{{Name: "only", Description: "d"}})

	tool, ok := r.Get("only")
	require.True(t, ok)
	assert.Equal(t, "d", tool.Description)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_ToLLMToolDefinitions(t *testing.T) {
	r := NewRegistry([]Tool{
		{Name: "t1", Description: "desc", ParameterSchema: `{"type":"object"}`},
	})

	defs := r.ToLLMToolDefinitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "t1", defs[0].Name)
	assert.Equal(t, "desc", defs[0].Description)
	assert.Equal(t, `{"type":"object"}`, defs[0].ParametersSchema)
}

func TestRenderTemplate(t *testing.T) {
	tmpl := "Hello {name}, your id is {id}. Unknown: {missing}"
	args := map[string]any{"name": "Alice", "id": 42}

	got := renderTemplate(tmpl, args)
	assert.Equal(t, "Hello Alice, your id is 42. Unknown: {missing}", got)
}
