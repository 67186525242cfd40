// internal/classify/score.go
package classify

import (
	"sort"

	"github.com/solatis/docketkeeper/internal/ruleset"
)

/*
 * Class and procedure scoring.
 *
 * Score formula (shared by classes and procedures):
 *
 *   score = max(strong_hit if any strong pattern matched,
 *               weak_hit   if any weak pattern matched,
 *               0)
 *         + neg_hit_penalty if any negative pattern matched
 *
 * Patterns are tested against the rule's sources_priority fields in order;
 * a pattern is a hit when it matches in any of those fields, and evidence
 * records the first field where it matched. Penalties are authored negative.
 *
 * The scoreboard is the per-classify mutable scoring context: owned by one
 * Classify invocation, threaded explicitly through the stages, never shared.
 */

// patternHit records one pattern match for evidence reporting.
type patternHit struct {
	source   string
	pattern  string
	strength string
	snippet  string
	delta    float64
}

// ruleScore is the scoring outcome for a single class or procedure.
type ruleScore struct {
	score float64
	hits  []patternHit
}

// scoreboard is the running score table for one classify call.
type scoreboard struct {
	scores       map[string]float64
	forced       string // class id set by force_primary_class, "" if none
	irrelevant   bool
	discardFlags []string
	procedures   []string
	procSet      map[string]struct{}
	secondary    []string // action-added secondaries, idempotent
	secondarySet map[string]struct{}
	evidence     []Evidence
}

func newScoreboard() *scoreboard {
	return &scoreboard{
		scores:       make(map[string]float64),
		procSet:      make(map[string]struct{}),
		secondarySet: make(map[string]struct{}),
	}
}

// addProcedure appends a procedure id without duplicates.
func (b *scoreboard) addProcedure(id string) {
	if _, ok := b.procSet[id]; ok {
		return
	}
	b.procSet[id] = struct{}{}
	b.procedures = append(b.procedures, id)
}

// addSecondary appends an action-added secondary class without duplicates.
func (b *scoreboard) addSecondary(id string) {
	if _, ok := b.secondarySet[id]; ok {
		return
	}
	b.secondarySet[id] = struct{}{}
	b.secondary = append(b.secondary, id)
}

// scorePatterns applies the shared score formula to one rule's pattern
// buckets over its prioritized source fields.
func scorePatterns(
	sources []string,
	doc preparedDoc,
	strong, weak, negative []ruleset.CompiledPattern,
	conf ruleset.ConfidenceRules,
) ruleScore {
	var rs ruleScore
	anyStrong := matchBucket(&rs, sources, doc, strong, "strong", conf.StrongHit)
	anyWeak := matchBucket(&rs, sources, doc, weak, "weak", conf.WeakHit)
	anyNeg := matchBucket(&rs, sources, doc, negative, "negative", conf.NegHitPenalty)

	switch {
	case anyStrong:
		rs.score = conf.StrongHit
	case anyWeak:
		rs.score = conf.WeakHit
	}
	if anyNeg {
		rs.score += conf.NegHitPenalty
	}
	return rs
}

// matchBucket tests every pattern of one strength bucket against the source
// fields in priority order, recording the first matching field per pattern.
func matchBucket(
	rs *ruleScore,
	sources []string,
	doc preparedDoc,
	patterns []ruleset.CompiledPattern,
	strength string,
	delta float64,
) bool {
	matched := false
	for _, p := range patterns {
		for _, src := range sources {
			text := doc.field(src)
			if text == "" {
				continue
			}
			loc := p.Re.FindStringIndex(text)
			if loc == nil {
				continue
			}
			matched = true
			rs.hits = append(rs.hits, patternHit{
				source:   src,
				pattern:  p.Source,
				strength: strength,
				snippet:  snippet(text, loc[0], loc[1]),
				delta:    delta,
			})
			break
		}
	}
	return matched
}

// rankedClass pairs a class id with its final score for ranking.
type rankedClass struct {
	id    string
	score float64
}

// rankClasses orders scored classes by (score desc, priority desc, authored
// order). Authored order is the last resort so ranking is fully
// deterministic even when the compiler warned about priority collisions.
func rankClasses(b *scoreboard, rs *ruleset.CompiledRuleset) []rankedClass {
	orderIndex := make(map[string]int, len(rs.ClassOrder))
	for i, id := range rs.ClassOrder {
		orderIndex[id] = i
	}

	ranked := make([]rankedClass, 0, len(b.scores))
	for id, score := range b.scores {
		ranked = append(ranked, rankedClass{id: id, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		pi, pj := classPriority(rs, ranked[i].id), classPriority(rs, ranked[j].id)
		if pi != pj {
			return pi > pj
		}
		return orderIndex[ranked[i].id] < orderIndex[ranked[j].id]
	})
	return ranked
}

func classPriority(rs *ruleset.CompiledRuleset, id string) int {
	if c, ok := rs.Classes[id]; ok {
		return c.Priority
	}
	return 0
}

// clampConfidence normalizes a raw score into the 0..1 confidence range.
func clampConfidence(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
