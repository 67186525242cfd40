// internal/classify/tiebreak.go
package classify

import "github.com/solatis/docketkeeper/internal/ruleset"

/*
 * Tie-breaker evaluation and action interpretation (stage 4).
 *
 * Tie-breakers run in descending priority order after initial scoring. A
 * condition block evaluates when_all (AND), when_any (OR), and when_none
 * (NOR) against the prepared document fields; when satisfied, the ordered
 * action list executes against the running scoreboard.
 *
 * Actions are a closed enum resolved at compile time, interpreted here with
 * an exhaustive switch - no stringly-typed dispatch at runtime. A failed
 * condition has no effect; there is no "else" branch in the vocabulary.
 *
 * Every applied action emits evidence so the final result's audit trail
 * shows not only which patterns matched but which adjustments moved scores.
 */

// applyTieBreakers evaluates every tie-breaker against the document and
// interprets the actions of those whose conditions are satisfied.
func applyTieBreakers(rs *ruleset.CompiledRuleset, doc preparedDoc, b *scoreboard) {
	for i := range rs.TieBreakers {
		tb := &rs.TieBreakers[i]
		if !conditionsMet(tb, doc) {
			continue
		}
		for _, action := range tb.Then {
			applyAction(tb.ID, action, b)
		}
	}
}

// conditionsMet evaluates the three condition blocks. An empty when_all or
// when_none block is vacuously satisfied; an empty when_any block is too
// (the author expressed no OR requirement).
func conditionsMet(tb *ruleset.CompiledTieBreaker, doc preparedDoc) bool {
	for _, m := range tb.WhenAll {
		if !matcherHits(m, doc) {
			return false
		}
	}
	if len(tb.WhenAny) > 0 {
		any := false
		for _, m := range tb.WhenAny {
			if matcherHits(m, doc) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	for _, m := range tb.WhenNone {
		if matcherHits(m, doc) {
			return false
		}
	}
	return true
}

// matcherHits tests one named-field matcher. A missing field never matches.
func matcherHits(m ruleset.CompiledMatcher, doc preparedDoc) bool {
	text := doc.field(m.Source)
	if text == "" {
		return false
	}
	return m.Pattern.Re.MatchString(text)
}

// applyAction interprets a single validated action against the scoreboard.
func applyAction(tbID string, a ruleset.Action, b *scoreboard) {
	switch a.Kind {
	case ruleset.ActionUpweightClass:
		b.scores[a.ClassID] += a.Delta
		b.evidence = append(b.evidence, Evidence{
			Stage:      "tie_breaker",
			RuleID:     tbID,
			Strength:   "upweight_class",
			Source:     a.ClassID,
			ScoreDelta: a.Delta,
		})
	case ruleset.ActionDownweightClass:
		b.scores[a.ClassID] -= a.Delta
		b.evidence = append(b.evidence, Evidence{
			Stage:      "tie_breaker",
			RuleID:     tbID,
			Strength:   "downweight_class",
			Source:     a.ClassID,
			ScoreDelta: -a.Delta,
		})
	case ruleset.ActionForcePrimaryClass:
		b.forced = a.ClassID
		b.evidence = append(b.evidence, Evidence{
			Stage:    "tie_breaker",
			RuleID:   tbID,
			Strength: "force_primary_class",
			Source:   a.ClassID,
		})
	case ruleset.ActionAddProcedure:
		b.addProcedure(a.ProcedureID)
		b.evidence = append(b.evidence, Evidence{
			Stage:    "tie_breaker",
			RuleID:   tbID,
			Strength: "add_procedure",
			Source:   a.ProcedureID,
		})
	case ruleset.ActionAddSecondaryClass:
		b.addSecondary(a.ClassID)
		b.evidence = append(b.evidence, Evidence{
			Stage:    "tie_breaker",
			RuleID:   tbID,
			Strength: "add_secondary_class",
			Source:   a.ClassID,
		})
	case ruleset.ActionMarkIrrelevant:
		b.irrelevant = true
		b.discardFlags = append(b.discardFlags, tbID)
		b.evidence = append(b.evidence, Evidence{
			Stage:    "tie_breaker",
			RuleID:   tbID,
			Strength: "mark_irrelevant",
		})
	}
}
