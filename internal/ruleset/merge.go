// internal/ruleset/merge.go
package ruleset

/*
 * Core + overlay merge.
 *
 * Combines the universal core ruleset with zero-or-one jurisdiction overlay
 * under two explicit, named strategies:
 *
 *   - mergeable-by-id: classes, procedures, discard_rules. Overlay items are
 *     matched to core items by id and merged field-by-field. New ids are
 *     appended after core items in overlay order.
 *   - append-only: tie_breakers, equivalences. Core and overlay items are
 *     both retained, never merged, even when ids collide. This lets a
 *     jurisdiction layer local rules on top of universal ones.
 *
 * Field-level rules for mergeable items: pointer scalars (label, priority,
 * enabled, whitelist, confidence_rules, action, flag) override only when
 * explicitly present in the overlay; sources_priority and discard match
 * groups are overwritten wholesale when present; pattern buckets append and
 * de-duplicate preserving first-seen order unless the overlay's "_replace"
 * directive selects replacement for that bucket.
 *
 * Merge is pure: inputs are never mutated, the output shares no slices or
 * maps with either input. Determinism is the core guarantee - identical
 * inputs always produce an identical merged definition and therefore an
 * identical ruleset hash.
 */

// bucketStrategy selects how an overlay pattern bucket combines with core.
type bucketStrategy int

const (
	strategyAppend bucketStrategy = iota
	strategyReplace
)

// Merge combines core with an optional overlay into a new Definition.
// A nil overlay yields a deep copy of core.
func Merge(core, overlay *Definition) *Definition {
	merged := &Definition{
		Version:      core.Version,
		Globals:      mergeGlobals(core.Globals, nil),
		Classes:      mergeClasses(core.Classes, nil),
		Procedures:   mergeProcedures(core.Procedures, nil),
		DiscardRules: mergeDiscardRules(core.DiscardRules, nil),
		TieBreakers:  append([]TieBreakerDef(nil), core.TieBreakers...),
		Equivalences: append([]EquivalenceDef(nil), core.Equivalences...),
	}

	if overlay == nil {
		return merged
	}

	merged.Globals = mergeGlobals(core.Globals, overlay.Globals)
	merged.Classes = mergeClasses(core.Classes, overlay.Classes)
	merged.Procedures = mergeProcedures(core.Procedures, overlay.Procedures)
	merged.DiscardRules = mergeDiscardRules(core.DiscardRules, overlay.DiscardRules)
	merged.TieBreakers = append(merged.TieBreakers, overlay.TieBreakers...)
	merged.Equivalences = append(merged.Equivalences, overlay.Equivalences...)
	return merged
}

// mergeGlobals deep-merges overlay globals into core globals.
// Leaf pointers from the overlay override core at matching paths.
func mergeGlobals(core, overlay *Globals) *Globals {
	out := &Globals{}
	if core != nil {
		out.CaseInsensitive = core.CaseInsensitive
		out.Multiline = core.Multiline
		out.NormalizeAccents = core.NormalizeAccents
		out.Confidence = copyConfidenceGlobals(core.Confidence)
		out.Quotes = copyQuoteGlobals(core.Quotes)
	}
	if overlay == nil {
		return out
	}
	if overlay.CaseInsensitive != nil {
		out.CaseInsensitive = overlay.CaseInsensitive
	}
	if overlay.Multiline != nil {
		out.Multiline = overlay.Multiline
	}
	if overlay.NormalizeAccents != nil {
		out.NormalizeAccents = overlay.NormalizeAccents
	}
	if overlay.Confidence != nil {
		if out.Confidence == nil {
			out.Confidence = &ConfidenceGlobals{}
		}
		if overlay.Confidence.ClassPrefilterMin != nil {
			out.Confidence.ClassPrefilterMin = overlay.Confidence.ClassPrefilterMin
		}
		if overlay.Confidence.ClassKeepMin != nil {
			out.Confidence.ClassKeepMin = overlay.Confidence.ClassKeepMin
		}
		if overlay.Confidence.ProcedureKeepMin != nil {
			out.Confidence.ProcedureKeepMin = overlay.Confidence.ProcedureKeepMin
		}
		if overlay.Confidence.StanceForceNeutralBelow != nil {
			out.Confidence.StanceForceNeutralBelow = overlay.Confidence.StanceForceNeutralBelow
		}
	}
	if overlay.Quotes != nil {
		if out.Quotes == nil {
			out.Quotes = &QuoteGlobals{}
		}
		if overlay.Quotes.MinLength != nil {
			out.Quotes.MinLength = overlay.Quotes.MinLength
		}
		if overlay.Quotes.MaxLength != nil {
			out.Quotes.MaxLength = overlay.Quotes.MaxLength
		}
		if overlay.Quotes.DedupeWindow != nil {
			out.Quotes.DedupeWindow = overlay.Quotes.DedupeWindow
		}
	}
	return out
}

func copyConfidenceGlobals(c *ConfidenceGlobals) *ConfidenceGlobals {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func copyQuoteGlobals(q *QuoteGlobals) *QuoteGlobals {
	if q == nil {
		return nil
	}
	cp := *q
	return &cp
}

// mergeClasses merges overlay classes into core classes by id.
// Core order is preserved; overlay-new ids append in overlay order.
func mergeClasses(core, overlay []ClassDef) []ClassDef {
	out := make([]ClassDef, 0, len(core)+len(overlay))
	index := make(map[string]int, len(core))
	for _, c := range core {
		index[c.ID] = len(out)
		out = append(out, copyClass(c))
	}
	for _, ov := range overlay {
		if i, ok := index[ov.ID]; ok {
			out[i] = mergeClass(out[i], ov)
		} else {
			index[ov.ID] = len(out)
			out = append(out, copyClass(ov))
		}
	}
	return out
}

func copyClass(c ClassDef) ClassDef {
	c.Patterns = copyPatternSet(c.Patterns)
	c.SourcesPriority = append([]string(nil), c.SourcesPriority...)
	if c.ConfidenceRules != nil {
		cr := *c.ConfidenceRules
		c.ConfidenceRules = &cr
	}
	return c
}

func mergeClass(base, ov ClassDef) ClassDef {
	out := base
	if ov.Label != nil {
		out.Label = ov.Label
	}
	if ov.Priority != nil {
		out.Priority = ov.Priority
	}
	if ov.Enabled != nil {
		out.Enabled = ov.Enabled
	}
	if ov.Whitelist != nil {
		out.Whitelist = ov.Whitelist
	}
	if ov.ConfidenceRules != nil {
		cr := *ov.ConfidenceRules
		out.ConfidenceRules = &cr
	}
	if ov.SourcesPriority != nil {
		out.SourcesPriority = append([]string(nil), ov.SourcesPriority...)
	}
	if ov.Patterns != nil {
		out.Patterns = mergePatternSets(base.Patterns, ov.Patterns)
	}
	return out
}

// mergeProcedures merges overlay procedures into core procedures by id.
func mergeProcedures(core, overlay []ProcedureDef) []ProcedureDef {
	out := make([]ProcedureDef, 0, len(core)+len(overlay))
	index := make(map[string]int, len(core))
	for _, p := range core {
		index[p.ID] = len(out)
		out = append(out, copyProcedure(p))
	}
	for _, ov := range overlay {
		if i, ok := index[ov.ID]; ok {
			out[i] = mergeProcedure(out[i], ov)
		} else {
			index[ov.ID] = len(out)
			out = append(out, copyProcedure(ov))
		}
	}
	return out
}

func copyProcedure(p ProcedureDef) ProcedureDef {
	p.Patterns = copyPatternSet(p.Patterns)
	p.SourcesPriority = append([]string(nil), p.SourcesPriority...)
	if p.ConfidenceRules != nil {
		cr := *p.ConfidenceRules
		p.ConfidenceRules = &cr
	}
	return p
}

func mergeProcedure(base, ov ProcedureDef) ProcedureDef {
	out := base
	if ov.Label != nil {
		out.Label = ov.Label
	}
	if ov.Priority != nil {
		out.Priority = ov.Priority
	}
	if ov.Enabled != nil {
		out.Enabled = ov.Enabled
	}
	if ov.ConfidenceRules != nil {
		cr := *ov.ConfidenceRules
		out.ConfidenceRules = &cr
	}
	if ov.SourcesPriority != nil {
		out.SourcesPriority = append([]string(nil), ov.SourcesPriority...)
	}
	if ov.Patterns != nil {
		out.Patterns = mergePatternSets(base.Patterns, ov.Patterns)
	}
	return out
}

// mergeDiscardRules merges overlay discard rules into core discard rules by id.
func mergeDiscardRules(core, overlay []DiscardRuleDef) []DiscardRuleDef {
	out := make([]DiscardRuleDef, 0, len(core)+len(overlay))
	index := make(map[string]int, len(core))
	for _, d := range core {
		index[d.ID] = len(out)
		out = append(out, copyDiscardRule(d))
	}
	for _, ov := range overlay {
		if i, ok := index[ov.ID]; ok {
			out[i] = mergeDiscardRule(out[i], ov)
		} else {
			index[ov.ID] = len(out)
			out = append(out, copyDiscardRule(ov))
		}
	}
	return out
}

func copyDiscardRule(d DiscardRuleDef) DiscardRuleDef {
	d.Sources = append([]string(nil), d.Sources...)
	if d.Match != nil {
		m := DiscardMatch{
			PatternAll:    append([]string(nil), d.Match.PatternAll...),
			PatternAny:    append([]string(nil), d.Match.PatternAny...),
			GuardrailNone: append([]string(nil), d.Match.GuardrailNone...),
		}
		d.Match = &m
	}
	return d
}

func mergeDiscardRule(base, ov DiscardRuleDef) DiscardRuleDef {
	out := base
	if ov.Priority != nil {
		out.Priority = ov.Priority
	}
	if ov.Enabled != nil {
		out.Enabled = ov.Enabled
	}
	if ov.Action != nil {
		out.Action = ov.Action
	}
	if ov.Flag != nil {
		out.Flag = ov.Flag
	}
	if ov.Sources != nil {
		out.Sources = append([]string(nil), ov.Sources...)
	}
	if ov.Match != nil {
		// Match groups replace wholesale, like sources_priority
		m := DiscardMatch{
			PatternAll:    append([]string(nil), ov.Match.PatternAll...),
			PatternAny:    append([]string(nil), ov.Match.PatternAny...),
			GuardrailNone: append([]string(nil), ov.Match.GuardrailNone...),
		}
		out.Match = &m
	}
	return out
}

// copyPatternSet deep-copies a pattern set, dropping any stray _replace
// directive (the directive only has meaning on an overlay).
func copyPatternSet(p *PatternSet) *PatternSet {
	if p == nil {
		return nil
	}
	return &PatternSet{
		Strong:   dedupePreserveOrder(p.Strong),
		Weak:     dedupePreserveOrder(p.Weak),
		Negative: dedupePreserveOrder(p.Negative),
	}
}

// mergePatternSets merges an overlay pattern set into a base set, resolving
// the per-bucket "_replace" directive into an explicit strategy.
func mergePatternSets(base, ov *PatternSet) *PatternSet {
	if base == nil {
		return copyPatternSet(ov)
	}
	out := copyPatternSet(base)
	out.Strong = mergeBucket(out.Strong, ov.Strong, resolveStrategy(ov, "strong"))
	out.Weak = mergeBucket(out.Weak, ov.Weak, resolveStrategy(ov, "weak"))
	out.Negative = mergeBucket(out.Negative, ov.Negative, resolveStrategy(ov, "negative"))
	return out
}

// resolveStrategy reads the overlay's _replace directive for one bucket.
func resolveStrategy(ov *PatternSet, bucket string) bucketStrategy {
	if ov.Replace[bucket] {
		return strategyReplace
	}
	return strategyAppend
}

// mergeBucket applies the resolved strategy to one pattern bucket. A nil
// overlay bucket under strategyAppend leaves the base untouched; under
// strategyReplace it empties the bucket (the directive was explicit).
func mergeBucket(base, overlay []string, strategy bucketStrategy) []string {
	if strategy == strategyReplace {
		return dedupePreserveOrder(overlay)
	}
	if len(overlay) == 0 {
		return base
	}
	combined := make([]string, 0, len(base)+len(overlay))
	combined = append(combined, base...)
	combined = append(combined, overlay...)
	return dedupePreserveOrder(combined)
}

// dedupePreserveOrder removes duplicates keeping the first occurrence.
func dedupePreserveOrder(items []string) []string {
	if items == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, x := range items {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}
