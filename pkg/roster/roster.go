// Package roster implements the Specialist Roster (C5): a set of named Base
// Specialists, each bound to one Tool Registry slice and one system prompt.
// Grounded on the teacher's config.AgentRegistry (pkg/config/agent.go) — the
// same mutex-guarded, defensive-copy-on-read map shape, generalized from
// "AgentConfig metadata" to "bound *specialist.Base instances" (§9 "dynamic
// roster and duck-typed agent dispatch").
package roster

import (
	"fmt"
	"sync"

	"github.com/codeready-toolchain/conductor/pkg/models"
	"github.com/codeready-toolchain/conductor/pkg/specialist"
	"github.com/codeready-toolchain/conductor/pkg/tools"
)

// Names lists the six Roster specialists (§4.6, §9). Human is excluded — it
// is a reserved pseudo-agent handled by pkg/human, not a Base Specialist.
var Names = []models.AgentName{
	models.AgentHR,
	models.AgentMarketing,
	models.AgentProcurement,
	models.AgentProduct,
	models.AgentTechSupport,
	models.AgentGeneric,
}

// Roster maps AgentName to a bound Specialist instance.
type Roster struct {
	mu          sync.RWMutex
	specialists map[models.AgentName]*specialist.Base
}

// New builds a Roster from a complete set of specialists. Returns an error
// if any name in Names is missing — a roster is either fully wired or not
// constructed, matching the teacher's fail-fast config validation style.
func New(specialists map[models.AgentName]*specialist.Base) (*Roster, error) {
	copied := make(map[models.AgentName]*specialist.Base, len(Names))
	for _, name := range Names {
		sp, ok := specialists[name]
		if !ok || sp == nil {
			return nil, fmt.Errorf("roster: missing specialist for %s", name)
		}
		copied[name] = sp
	}
	return &Roster{specialists: copied}, nil
}

// Get returns the Specialist bound to name, falling back to Generic for any
// name the roster doesn't recognise (§4.6 "unknown agent strings fall back
// to Generic", §9 "dynamic roster").
func (r *Roster) Get(name models.AgentName) *specialist.Base {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if sp, ok := r.specialists[name]; ok {
		return sp
	}
	return r.specialists[models.AgentGeneric]
}

// Has reports whether name is a roster member (excludes Generic's fallback
// behaviour, so an unknown name is reported as absent rather than coerced).
func (r *Roster) Has(name models.AgentName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.specialists[name]
	return ok
}

// Names returns the roster membership (§4.6 step 1 "the roster of available
// specialists (names only)"). Satisfies pkg/planner's Catalog interface.
func (r *Roster) Names() []models.AgentName {
	return Names
}

// ToolsFor returns the flattened tool catalog for one specialist (§4.6 step
// 1 "the full catalog of tools ... drawn from every specialist in the
// roster"). Satisfies pkg/planner's Catalog interface.
func (r *Roster) ToolsFor(name models.AgentName) []tools.Tool {
	r.mu.RLock()
	sp, ok := r.specialists[name]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return sp.Registry.List()
}
