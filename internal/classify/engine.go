// internal/classify/engine.go
package classify

import (
	"github.com/solatis/docketkeeper/internal/ruleset"
	"github.com/solatis/docketkeeper/internal/types"
)

/*
 * Classification engine orchestration.
 *
 * Classify runs a document through six sequential stages:
 *
 *   1. Discard pre-filter (short-circuits the pipeline on first fire)
 *   2. Class scoring over sources_priority fields
 *   3. Procedure detection (independent of class competition)
 *   4. Tie-breaker evaluation and action interpretation
 *   5. Equivalence reconciliation against an optional baseline
 *   6. Status finalization
 *
 * Classify never errors on document input: absent or empty fields simply
 * contribute zero matches and the worst case is rules_status
 * "unclassified". A nil ruleset is a programming error (the compiler is the
 * only producer of rulesets) and panics rather than degrading.
 *
 * Irrelevance precedence: when a mark_irrelevant tie-breaker and a
 * force_primary_class action both fire for the same document, irrelevance
 * wins - the finalization stage checks the irrelevant flag before any
 * primary resolution, forced or scored.
 *
 * The call is pure and synchronous: no I/O, no shared mutable state. Any
 * number of Classify calls may run concurrently against one CompiledRuleset.
 */

// Classify scores a document against a compiled ruleset and returns the
// structured classification result.
func Classify(rs *ruleset.CompiledRuleset, doc types.Document) Result {
	if rs == nil {
		panic("classify: nil compiled ruleset")
	}

	result := Result{
		DocumentID:       doc.DocumentID,
		SecondaryClasses: []string{},
		Procedures:       []string{},
		Evidence:         []Evidence{},
		RulesetHash:      rs.Hash,
	}

	prep := prepareDocument(doc, rs.Globals)

	// Stage 1: discard pre-filter
	if fired := evaluateDiscards(rs, prep); fired != nil {
		result.IsIrrelevant = true
		result.RulesStatus = StatusIrrelevant
		result.DiscardFlags = []string{fired.rule.Flag}
		result.Evidence = append(result.Evidence, fired.evidence...)
		return result
	}

	board := newScoreboard()

	// Stage 2: class scoring
	anyClassScored := false
	for _, id := range rs.ClassOrder {
		class := rs.Classes[id]
		if !class.Enabled {
			continue
		}
		sc := scorePatterns(class.SourcesPriority, prep, class.Strong, class.Weak, class.Negative, class.Confidence)
		if sc.score <= 0 {
			continue
		}
		anyClassScored = true
		board.scores[id] = sc.score
		// Prefilter gate caps evidence volume; the score stays on the board
		if sc.score >= rs.Globals.ClassPrefilterMin {
			for _, hit := range sc.hits {
				board.evidence = append(board.evidence, Evidence{
					Stage:      "class",
					RuleID:     id,
					Source:     hit.source,
					Pattern:    hit.pattern,
					Strength:   hit.strength,
					Snippet:    hit.snippet,
					ScoreDelta: hit.delta,
				})
			}
		}
	}

	// Stage 3: procedure detection, independent of class competition
	for _, id := range rs.ProcedureOrder {
		proc := rs.Procedures[id]
		if !proc.Enabled {
			continue
		}
		sc := scorePatterns(proc.SourcesPriority, prep, proc.Strong, proc.Weak, proc.Negative, proc.Confidence)
		if sc.score < proc.KeepMin(rs.Globals) {
			continue
		}
		board.addProcedure(id)
		for _, hit := range sc.hits {
			board.evidence = append(board.evidence, Evidence{
				Stage:      "procedure",
				RuleID:     id,
				Source:     hit.source,
				Pattern:    hit.pattern,
				Strength:   hit.strength,
				Snippet:    hit.snippet,
				ScoreDelta: hit.delta,
			})
		}
	}

	// Stage 4: tie-breakers
	applyTieBreakers(rs, prep, board)
	result.Evidence = append(result.Evidence, board.evidence...)
	result.Procedures = append(result.Procedures, board.procedures...)

	if board.irrelevant {
		result.IsIrrelevant = true
		result.RulesStatus = StatusIrrelevant
		result.DiscardFlags = append(result.DiscardFlags, board.discardFlags...)
		return result
	}

	// Final ranking after adjustments: score desc, priority desc
	ranked := rankClasses(board, rs)

	primary := ""
	confidence := 0.0
	if board.forced != "" {
		primary = board.forced
		confidence = clampConfidence(board.scores[board.forced])
	} else if len(ranked) > 0 && ranked[0].score > 0 {
		primary = ranked[0].id
		confidence = clampConfidence(ranked[0].score)
	}

	// Secondaries: remaining ranked classes at or above keep-min, then any
	// action-added ids not already present
	seen := map[string]struct{}{}
	if primary != "" {
		seen[primary] = struct{}{}
	}
	for _, rc := range ranked {
		if rc.id == primary || rc.score < rs.Globals.ClassKeepMin {
			continue
		}
		if _, dup := seen[rc.id]; dup {
			continue
		}
		seen[rc.id] = struct{}{}
		result.SecondaryClasses = append(result.SecondaryClasses, rc.id)
	}
	for _, id := range board.secondary {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result.SecondaryClasses = append(result.SecondaryClasses, id)
	}

	result.PrimaryClass = primary
	result.RulesConfidence = confidence

	// Stage 5: equivalence reconciliation
	if eqID := reconcileEquivalence(rs, doc.Baseline, primary, result.Procedures); eqID != "" {
		result.IsEquivalent = true
		result.Evidence = append(result.Evidence, Evidence{
			Stage:  "equivalence",
			RuleID: eqID,
		})
	}

	// Stage 6: status finalization
	switch {
	case primary == "" && !anyClassScored && board.forced == "":
		result.RulesStatus = StatusUnclassified
	case primary == "":
		// Classes scored above zero but adjustments pushed everything to or
		// below zero; no primary can be reported
		result.RulesStatus = StatusUnclassified
	case confidence < rs.Globals.ClassKeepMin:
		result.RulesStatus = StatusLowConfidence
	default:
		result.RulesStatus = StatusClassified
	}

	if primary != "" {
		class := rs.Classes[primary]
		result.IsSuspect = (class != nil && !class.Whitelist) || confidence < rs.Globals.ClassKeepMin
	} else {
		// No primary resolved: confidence is below keep-min by definition
		result.IsSuspect = true
	}

	return result
}
