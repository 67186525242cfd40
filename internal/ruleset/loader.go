// internal/ruleset/loader.go
package ruleset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

/*
 * Ruleset file loading.
 *
 * Thin glue between the rules directory layout and Compile. The layout is:
 *
 *   <rulesDir>/core.json                      universal core ruleset
 *   <rulesDir>/jurisdictions/<id>.json        per-jurisdiction overlays
 *
 * Definitions are loaded fresh on every call; there is no caching or
 * persistent mutation. Callers that classify many documents keep the
 * returned CompiledRuleset, not the loader.
 */

// Load reads and compiles the core ruleset plus the overlay for
// jurisdictionID. Pass "core" (or empty) to compile the core alone.
func Load(rulesDir, jurisdictionID string) (*CompiledRuleset, error) {
	core, err := readDefinition(filepath.Join(rulesDir, "core.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to load core ruleset: %w", err)
	}

	if jurisdictionID == "" {
		jurisdictionID = "core"
	}

	var overlay *Definition
	if jurisdictionID != "core" {
		overlayPath := filepath.Join(rulesDir, "jurisdictions", jurisdictionID+".json")
		overlay, err = readDefinition(overlayPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load overlay for jurisdiction %q: %w", jurisdictionID, err)
		}
	}

	return Compile(core, overlay, jurisdictionID)
}

// readDefinition parses one ruleset JSON document.
func readDefinition(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("invalid ruleset JSON in %s: %w", path, err)
	}
	return &def, nil
}
