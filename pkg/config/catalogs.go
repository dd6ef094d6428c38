package config

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/codeready-toolchain/conductor/pkg/tools"
)

//go:embed toolcatalogs/*.json
var toolCatalogsFS embed.FS

// LoadToolCatalogs parses every embedded §6 tool-catalog JSON file into a
// Registry keyed by agent name, env-expanding each file first (envexpand.go).
func LoadToolCatalogs() (map[string]*tools.Registry, error) {
	entries, err := toolCatalogsFS.ReadDir("toolcatalogs")
	if err != nil {
		return nil, fmt.Errorf("config: reading embedded tool catalogs: %w", err)
	}

	registries := make(map[string]*tools.Registry, len(entries))
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, rErr := toolCatalogsFS.ReadFile("toolcatalogs/" + e.Name())
		if rErr != nil {
			return nil, fmt.Errorf("config: reading %s: %w", e.Name(), rErr)
		}
		cat, pErr := tools.ParseCatalog(ExpandEnv(data))
		if pErr != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", e.Name(), pErr)
		}
		registries[cat.AgentName] = tools.BuildRegistry(cat)
		names = append(names, cat.AgentName)
	}

	sort.Strings(names)
	return registries, nil
}

// SystemMessages returns each catalog's system_message keyed by agent name,
// used by pkg/roster to bind a prompt to each Specialist.
func SystemMessages() (map[string]string, error) {
	entries, err := toolCatalogsFS.ReadDir("toolcatalogs")
	if err != nil {
		return nil, fmt.Errorf("config: reading embedded tool catalogs: %w", err)
	}
	msgs := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, rErr := toolCatalogsFS.ReadFile("toolcatalogs/" + e.Name())
		if rErr != nil {
			return nil, fmt.Errorf("config: reading %s: %w", e.Name(), rErr)
		}
		cat, pErr := tools.ParseCatalog(ExpandEnv(data))
		if pErr != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", e.Name(), pErr)
		}
		msgs[cat.AgentName] = cat.SystemMessage
	}
	return msgs, nil
}
