// internal/classify/equivalence.go
package classify

import (
	"github.com/solatis/docketkeeper/internal/ruleset"
	"github.com/solatis/docketkeeper/internal/types"
)

/*
 * Equivalence reconciliation (stage 5).
 *
 * Only relevant when a baseline classification from an external comparison
 * system accompanies the document. An equivalence rule matches when the
 * baseline's label set covers one of the rule's baseline_any_of
 * combinations (every label in the combination present), the engine's own
 * primary class equals rules_primary, and - if requires_procedure is set -
 * that procedure was detected.
 *
 * Matching never alters the classification; it only suppresses false
 * divergence reporting between two systems that describe the same
 * substantive outcome with different label vocabularies.
 */

// reconcileEquivalence returns the id of the first matching equivalence
// rule, or "" when none match.
func reconcileEquivalence(rs *ruleset.CompiledRuleset, baseline *types.Baseline, primary string, procedures []string) string {
	if baseline == nil || primary == "" {
		return ""
	}

	labels := make(map[string]struct{}, len(baseline.Labels))
	for _, l := range baseline.Labels {
		labels[l] = struct{}{}
	}

	detected := make(map[string]struct{}, len(procedures))
	for _, p := range procedures {
		detected[p] = struct{}{}
	}

	for _, eq := range rs.Equivalences {
		if eq.RulesPrimary != primary {
			continue
		}
		if eq.RequiresProcedure != "" {
			if _, ok := detected[eq.RequiresProcedure]; !ok {
				continue
			}
		}
		if baselineCovers(labels, eq.BaselineAnyOf) {
			return eq.ID
		}
	}
	return ""
}

// baselineCovers reports whether the baseline label set contains every label
// of at least one combination.
func baselineCovers(labels map[string]struct{}, anyOf [][]string) bool {
	for _, combination := range anyOf {
		if len(combination) == 0 {
			continue
		}
		covered := true
		for _, label := range combination {
			if _, ok := labels[label]; !ok {
				covered = false
				break
			}
		}
		if covered {
			return true
		}
	}
	return false
}
