// internal/classify/discard.go
package classify

import "github.com/solatis/docketkeeper/internal/ruleset"

/*
 * Discard pre-filter (stage 1).
 *
 * A discard rule fires when ALL of its pattern_all regexes match somewhere
 * in the searched fields, AND at least one pattern_any matches (an empty
 * pattern_any group is vacuously satisfied), AND none of guardrail_none
 * match. Guardrails prevent over-eager discarding: a routine accounts
 * filing is not discarded when it also carries competitive-bidding
 * vocabulary.
 *
 * Rules are evaluated in priority order; the first rule to fire
 * short-circuits the whole pipeline - the document is marked irrelevant and
 * stages 2-6 never run.
 */

// firedDiscard reports which rule fired and the evidence it produced.
type firedDiscard struct {
	rule     *ruleset.CompiledDiscardRule
	evidence []Evidence
}

// evaluateDiscards runs the discard rules in priority order and returns the
// first one that fires, or nil.
func evaluateDiscards(rs *ruleset.CompiledRuleset, doc preparedDoc) *firedDiscard {
	for i := range rs.DiscardRules {
		rule := &rs.DiscardRules[i]
		if fired := evaluateDiscard(rule, doc); fired != nil {
			return fired
		}
	}
	return nil
}

// evaluateDiscard tests one rule's three groups against the searched fields.
func evaluateDiscard(rule *ruleset.CompiledDiscardRule, doc preparedDoc) *firedDiscard {
	sources := rule.Sources
	if len(sources) == 0 {
		sources = doc.order
	}

	var evidence []Evidence

	// pattern_all: every pattern must match in at least one searched field
	for _, p := range rule.PatternAll {
		src, lo, hi, ok := findInFields(p, sources, doc)
		if !ok {
			return nil
		}
		evidence = append(evidence, Evidence{
			Stage:    "discard",
			RuleID:   rule.ID,
			Source:   src,
			Pattern:  p.Source,
			Strength: "pattern_all",
			Snippet:  snippet(doc.field(src), lo, hi),
		})
	}

	// pattern_any: at least one must match; empty group is satisfied
	if len(rule.PatternAny) > 0 {
		matched := false
		for _, p := range rule.PatternAny {
			src, lo, hi, ok := findInFields(p, sources, doc)
			if !ok {
				continue
			}
			matched = true
			evidence = append(evidence, Evidence{
				Stage:    "discard",
				RuleID:   rule.ID,
				Source:   src,
				Pattern:  p.Source,
				Strength: "pattern_any",
				Snippet:  snippet(doc.field(src), lo, hi),
			})
			break
		}
		if !matched {
			return nil
		}
	}

	// guardrail_none: any match vetoes the discard
	for _, p := range rule.GuardrailNone {
		if _, _, _, ok := findInFields(p, sources, doc); ok {
			return nil
		}
	}

	return &firedDiscard{rule: rule, evidence: evidence}
}

// findInFields tests a pattern against the given fields in order and returns
// the first match location.
func findInFields(p ruleset.CompiledPattern, sources []string, doc preparedDoc) (source string, start, end int, ok bool) {
	for _, src := range sources {
		text := doc.field(src)
		if text == "" {
			continue
		}
		if loc := p.Re.FindStringIndex(text); loc != nil {
			return src, loc[0], loc[1], true
		}
	}
	return "", 0, 0, false
}
