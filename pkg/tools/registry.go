package tools

import (
	"fmt"
	"sync"

	"github.com/codeready-toolchain/conductor/pkg/llmgateway"
)

// Registry holds one specialist's tool catalog, guarded the same way the
// teacher's config.AgentRegistry guards its map (RLock reads, defensive
// copies on GetAll-equivalent calls).
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	ordered []string // preserves catalog declaration order for List()/prompts
}

// NewRegistry builds a Registry from an ordered slice of Tools. Panics if two
// tools share a name — a configuration error, not a runtime condition.
func NewRegistry(toolList []Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(toolList))}
	for _, t := range toolList {
		if _, exists := r.tools[t.Name]; exists {
			panic(fmt.Sprintf("tools: duplicate tool name %q", t.Name))
		}
		r.tools[t.Name] = t
		r.ordered = append(r.ordered, t.Name)
	}
	return r
}

// List returns every tool descriptor in catalog order (§4.3).
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.ordered))
	for _, name := range r.ordered {
		out = append(out, r.tools[name])
	}
	return out
}

// Get returns the invocable Tool by name (§4.3).
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// ToLLMToolDefinitions renders the catalog into the shape the LLM Gateway
// expects (§4.3).
func (r *Registry) ToLLMToolDefinitions() []llmgateway.ToolDefinition {
	list := r.List()
	defs := make([]llmgateway.ToolDefinition, 0, len(list))
	for _, t := range list {
		defs = append(defs, llmgateway.ToolDefinition{
			Name:             t.Name,
			Description:      t.Description,
			ParametersSchema: t.ParameterSchema,
		})
	}
	return defs
}
