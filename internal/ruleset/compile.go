// internal/ruleset/compile.go
package ruleset

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/solatis/docketkeeper/internal/types"
)

/*
 * Ruleset compilation and validation.
 *
 * Compile turns (core, optional overlay) into an immutable CompiledRuleset:
 *
 *   1. Merge core + overlay (merge.go strategies)
 *   2. Hash the merged definition (before regex compilation)
 *   3. Resolve globals with defaults
 *   4. Validate and pre-compile every pattern in every collection
 *   5. Resolve tie-breaker actions into the closed Action enum
 *   6. Sort tie-breakers and discard rules by priority descending
 *
 * Fail-fast: the first invalid regex, missing required field, or unknown
 * action aborts compilation with a *types.CompilationError naming the exact
 * collection, rule id, and field. There is no partial ruleset - a ruleset
 * either compiles fully and validly or not at all.
 *
 * Non-fatal findings (duplicate priorities among active tie-breakers or
 * classes) are collected as warnings on the artifact instead of failing the
 * compile; priority collisions make tie resolution configuration-dependent
 * rather than wrong.
 *
 * No I/O and no global state: Compile is a pure function of its inputs, so
 * parallel compiles of different jurisdiction overlays need no
 * synchronization.
 */

// Tab names used in CompilationError context.
const (
	tabClasses      = "classes"
	tabProcedures   = "procedures"
	tabTieBreakers  = "tie_breakers"
	tabEquivalences = "equivalences"
	tabDiscardRules = "discard_rules"
)

// Action vocabulary as authored in rule JSON.
const (
	actionNameUpweightClass     = "upweight_class"
	actionNameDownweightClass   = "downweight_class"
	actionNameForcePrimaryClass = "force_primary_class"
	actionNameAddProcedure      = "add_procedure"
	actionNameAddSecondaryClass = "add_secondary_class"
	actionNameMarkIrrelevant    = "mark_irrelevant"

	discardActionMarkIrrelevant = "mark_irrelevant"
)

// defaultSources is searched when a class or procedure omits sources_priority.
var defaultSources = []string{"header"}

// defaultProcedureConfidence applies when a procedure omits confidence_rules.
var defaultProcedureConfidence = ConfidenceRules{StrongHit: 1.0, WeakHit: 0.6, NegHitPenalty: -0.3}

// Compile merges, validates, and pre-compiles a core ruleset with an
// optional jurisdiction overlay. jurisdictionID is provenance only; pass
// "core" when compiling without an overlay.
func Compile(core, overlay *Definition, jurisdictionID string) (*CompiledRuleset, error) {
	if core == nil {
		return nil, &types.CompilationError{Tab: "ruleset", RuleID: "core", Field: "definition", Err: types.ErrEmptyRuleset}
	}
	if len(core.Classes) == 0 {
		return nil, &types.CompilationError{Tab: tabClasses, RuleID: "core", Field: "classes", Err: types.ErrEmptyRuleset}
	}
	if err := checkDuplicateIDs(core); err != nil {
		return nil, err
	}

	merged := Merge(core, overlay)

	hash, err := Hash(merged)
	if err != nil {
		return nil, err
	}

	globals := resolveGlobals(merged.Globals)
	flags := globals.flagPrefix()

	rs := &CompiledRuleset{
		Hash:    hash,
		Globals: globals,
		Provenance: Provenance{
			JurisdictionID: jurisdictionID,
			CoreVersion:    core.Version,
			CompiledAt:     time.Now().UTC(),
		},
		Classes:    make(map[string]*CompiledClass, len(merged.Classes)),
		Procedures: make(map[string]*CompiledProcedure, len(merged.Procedures)),
	}
	if overlay != nil {
		rs.Provenance.OverlayVersion = overlay.Version
	}

	for _, def := range merged.Classes {
		cc, err := compileClass(def, flags)
		if err != nil {
			return nil, err
		}
		rs.Classes[cc.ID] = cc
		rs.ClassOrder = append(rs.ClassOrder, cc.ID)
	}

	for _, def := range merged.Procedures {
		cp, err := compileProcedure(def, flags)
		if err != nil {
			return nil, err
		}
		rs.Procedures[cp.ID] = cp
		rs.ProcedureOrder = append(rs.ProcedureOrder, cp.ID)
	}

	for _, def := range merged.TieBreakers {
		tb, err := compileTieBreaker(def, flags)
		if err != nil {
			return nil, err
		}
		rs.TieBreakers = append(rs.TieBreakers, tb)
	}
	// Stable sort: equal-priority tie-breakers keep authored order (core
	// before overlay) for deterministic evaluation
	sort.SliceStable(rs.TieBreakers, func(i, j int) bool {
		return rs.TieBreakers[i].Priority > rs.TieBreakers[j].Priority
	})

	for _, def := range merged.Equivalences {
		eq, err := compileEquivalence(def)
		if err != nil {
			return nil, err
		}
		rs.Equivalences = append(rs.Equivalences, eq)
	}

	for _, def := range merged.DiscardRules {
		dr, ok, err := compileDiscardRule(def, flags)
		if err != nil {
			return nil, err
		}
		if ok {
			rs.DiscardRules = append(rs.DiscardRules, dr)
		}
	}
	sort.SliceStable(rs.DiscardRules, func(i, j int) bool {
		return rs.DiscardRules[i].Priority > rs.DiscardRules[j].Priority
	})

	rs.Warnings = collectWarnings(rs)

	return rs, nil
}

// checkDuplicateIDs rejects a core definition where two items of the same
// mergeable collection share an id. Overlay duplicates are legitimate (they
// merge onto core items); core duplicates are authoring mistakes that would
// make merge-by-id ambiguous.
func checkDuplicateIDs(core *Definition) error {
	seen := make(map[string]struct{}, len(core.Classes))
	for _, c := range core.Classes {
		if _, dup := seen[c.ID]; dup {
			return &types.CompilationError{Tab: tabClasses, RuleID: c.ID, Field: "id", Err: types.ErrDuplicateID}
		}
		seen[c.ID] = struct{}{}
	}
	seen = make(map[string]struct{}, len(core.Procedures))
	for _, p := range core.Procedures {
		if _, dup := seen[p.ID]; dup {
			return &types.CompilationError{Tab: tabProcedures, RuleID: p.ID, Field: "id", Err: types.ErrDuplicateID}
		}
		seen[p.ID] = struct{}{}
	}
	seen = make(map[string]struct{}, len(core.DiscardRules))
	for _, d := range core.DiscardRules {
		if _, dup := seen[d.ID]; dup {
			return &types.CompilationError{Tab: tabDiscardRules, RuleID: d.ID, Field: "id", Err: types.ErrDuplicateID}
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}

// compileClass validates required fields and pre-compiles all three pattern
// buckets for one class.
func compileClass(def ClassDef, flags string) (*CompiledClass, error) {
	id := def.ID
	if id == "" {
		return nil, &types.CompilationError{Tab: tabClasses, RuleID: "unknown", Field: "id", Err: types.ErrMissingRequiredField}
	}
	if def.Label == nil {
		return nil, &types.CompilationError{Tab: tabClasses, RuleID: id, Field: "label", Err: types.ErrMissingRequiredField}
	}
	if def.Priority == nil {
		return nil, &types.CompilationError{Tab: tabClasses, RuleID: id, Field: "priority", Err: types.ErrMissingRequiredField}
	}
	if def.Patterns == nil {
		return nil, &types.CompilationError{Tab: tabClasses, RuleID: id, Field: "patterns", Err: types.ErrMissingRequiredField}
	}
	if def.ConfidenceRules == nil {
		return nil, &types.CompilationError{Tab: tabClasses, RuleID: id, Field: "confidence_rules", Err: types.ErrMissingRequiredField}
	}

	strong, err := compileBucket(tabClasses, id, "strong", def.Patterns.Strong, flags)
	if err != nil {
		return nil, err
	}
	weak, err := compileBucket(tabClasses, id, "weak", def.Patterns.Weak, flags)
	if err != nil {
		return nil, err
	}
	negative, err := compileBucket(tabClasses, id, "negative", def.Patterns.Negative, flags)
	if err != nil {
		return nil, err
	}

	cc := &CompiledClass{
		ID:              id,
		Label:           *def.Label,
		Priority:        *def.Priority,
		Enabled:         true,
		Whitelist:       true,
		Confidence:      *def.ConfidenceRules,
		SourcesPriority: defaultSources,
		Strong:          strong,
		Weak:            weak,
		Negative:        negative,
	}
	if def.Enabled != nil {
		cc.Enabled = *def.Enabled
	}
	if def.Whitelist != nil {
		cc.Whitelist = *def.Whitelist
	}
	if len(def.SourcesPriority) > 0 {
		cc.SourcesPriority = append([]string(nil), def.SourcesPriority...)
	}
	return cc, nil
}

// compileProcedure validates required fields and pre-compiles patterns for
// one procedure. Procedures have laxer requirements than classes: only id
// and patterns are mandatory.
func compileProcedure(def ProcedureDef, flags string) (*CompiledProcedure, error) {
	id := def.ID
	if id == "" {
		return nil, &types.CompilationError{Tab: tabProcedures, RuleID: "unknown", Field: "id", Err: types.ErrMissingRequiredField}
	}
	if def.Patterns == nil {
		return nil, &types.CompilationError{Tab: tabProcedures, RuleID: id, Field: "patterns", Err: types.ErrMissingRequiredField}
	}

	strong, err := compileBucket(tabProcedures, id, "strong", def.Patterns.Strong, flags)
	if err != nil {
		return nil, err
	}
	weak, err := compileBucket(tabProcedures, id, "weak", def.Patterns.Weak, flags)
	if err != nil {
		return nil, err
	}
	negative, err := compileBucket(tabProcedures, id, "negative", def.Patterns.Negative, flags)
	if err != nil {
		return nil, err
	}

	cp := &CompiledProcedure{
		ID:              id,
		Label:           id,
		Enabled:         true,
		Confidence:      defaultProcedureConfidence,
		SourcesPriority: defaultSources,
		Strong:          strong,
		Weak:            weak,
		Negative:        negative,
	}
	if def.Label != nil {
		cp.Label = *def.Label
	}
	if def.Priority != nil {
		cp.Priority = *def.Priority
	}
	if def.Enabled != nil {
		cp.Enabled = *def.Enabled
	}
	if def.ConfidenceRules != nil {
		cp.Confidence = *def.ConfidenceRules
	}
	if len(def.SourcesPriority) > 0 {
		cp.SourcesPriority = append([]string(nil), def.SourcesPriority...)
	}
	return cp, nil
}

// compileTieBreaker pre-compiles condition matchers and resolves the action
// list into the closed vocabulary.
func compileTieBreaker(def TieBreakerDef, flags string) (CompiledTieBreaker, error) {
	id := def.ID
	if id == "" {
		id = "unknown"
	}

	tb := CompiledTieBreaker{ID: id, Priority: def.Priority}

	var err error
	if tb.WhenAll, err = compileMatchers(id, "when_all", def.WhenAll, flags); err != nil {
		return CompiledTieBreaker{}, err
	}
	if tb.WhenAny, err = compileMatchers(id, "when_any", def.WhenAny, flags); err != nil {
		return CompiledTieBreaker{}, err
	}
	if tb.WhenNone, err = compileMatchers(id, "when_none", def.WhenNone, flags); err != nil {
		return CompiledTieBreaker{}, err
	}

	for _, raw := range def.Then {
		action, err := resolveAction(id, raw)
		if err != nil {
			return CompiledTieBreaker{}, err
		}
		tb.Then = append(tb.Then, action)
	}
	return tb, nil
}

// resolveAction maps an authored action name to the closed ActionKind enum,
// validating that the referenced class/procedure argument is present.
func resolveAction(tbID string, raw ActionDef) (Action, error) {
	switch raw.Do {
	case actionNameUpweightClass:
		if raw.Class == "" {
			return Action{}, &types.CompilationError{Tab: tabTieBreakers, RuleID: tbID, Field: "then", Detail: raw.Do, Err: types.ErrMissingRequiredField}
		}
		return Action{Kind: ActionUpweightClass, ClassID: raw.Class, Delta: raw.Delta}, nil
	case actionNameDownweightClass:
		if raw.Class == "" {
			return Action{}, &types.CompilationError{Tab: tabTieBreakers, RuleID: tbID, Field: "then", Detail: raw.Do, Err: types.ErrMissingRequiredField}
		}
		return Action{Kind: ActionDownweightClass, ClassID: raw.Class, Delta: raw.Delta}, nil
	case actionNameForcePrimaryClass:
		if raw.Class == "" {
			return Action{}, &types.CompilationError{Tab: tabTieBreakers, RuleID: tbID, Field: "then", Detail: raw.Do, Err: types.ErrMissingRequiredField}
		}
		return Action{Kind: ActionForcePrimaryClass, ClassID: raw.Class}, nil
	case actionNameAddProcedure:
		if raw.Procedure == "" {
			return Action{}, &types.CompilationError{Tab: tabTieBreakers, RuleID: tbID, Field: "then", Detail: raw.Do, Err: types.ErrMissingRequiredField}
		}
		return Action{Kind: ActionAddProcedure, ProcedureID: raw.Procedure}, nil
	case actionNameAddSecondaryClass:
		if raw.Class == "" {
			return Action{}, &types.CompilationError{Tab: tabTieBreakers, RuleID: tbID, Field: "then", Detail: raw.Do, Err: types.ErrMissingRequiredField}
		}
		return Action{Kind: ActionAddSecondaryClass, ClassID: raw.Class}, nil
	case actionNameMarkIrrelevant:
		return Action{Kind: ActionMarkIrrelevant}, nil
	default:
		return Action{}, &types.CompilationError{Tab: tabTieBreakers, RuleID: tbID, Field: "then", Detail: raw.Do, Err: types.ErrUnknownAction}
	}
}

// compileEquivalence validates the declarative fields; equivalences carry no
// regexes.
func compileEquivalence(def EquivalenceDef) (CompiledEquivalence, error) {
	id := def.ID
	if id == "" {
		id = "unknown"
	}
	if def.RulesPrimary == "" {
		return CompiledEquivalence{}, &types.CompilationError{Tab: tabEquivalences, RuleID: id, Field: "rules_primary", Err: types.ErrMissingRequiredField}
	}
	if len(def.BaselineAnyOf) == 0 {
		return CompiledEquivalence{}, &types.CompilationError{Tab: tabEquivalences, RuleID: id, Field: "baseline_any_of", Err: types.ErrMissingRequiredField}
	}
	eq := CompiledEquivalence{
		ID:                id,
		RulesPrimary:      def.RulesPrimary,
		RequiresProcedure: def.RequiresProcedure,
	}
	for _, group := range def.BaselineAnyOf {
		eq.BaselineAnyOf = append(eq.BaselineAnyOf, append([]string(nil), group...))
	}
	return eq, nil
}

// compileDiscardRule pre-compiles the three match groups. Returns ok=false
// for rules disabled by the overlay. A rule with neither pattern_all nor
// pattern_any would fire on every document; that is an authoring error.
func compileDiscardRule(def DiscardRuleDef, flags string) (CompiledDiscardRule, bool, error) {
	id := def.ID
	if id == "" {
		id = "unknown"
	}
	if def.Enabled != nil && !*def.Enabled {
		return CompiledDiscardRule{}, false, nil
	}
	if def.Action != nil && *def.Action != discardActionMarkIrrelevant {
		return CompiledDiscardRule{}, false, &types.CompilationError{Tab: tabDiscardRules, RuleID: id, Field: "action", Detail: *def.Action, Err: types.ErrUnknownDiscardAction}
	}
	if def.Match == nil {
		return CompiledDiscardRule{}, false, &types.CompilationError{Tab: tabDiscardRules, RuleID: id, Field: "match", Err: types.ErrMissingRequiredField}
	}
	if len(def.Match.PatternAll) == 0 && len(def.Match.PatternAny) == 0 {
		return CompiledDiscardRule{}, false, &types.CompilationError{Tab: tabDiscardRules, RuleID: id, Field: "match", Err: types.ErrMissingRequiredField}
	}

	dr := CompiledDiscardRule{ID: id}
	if def.Priority != nil {
		dr.Priority = *def.Priority
	}
	if def.Flag != nil {
		dr.Flag = *def.Flag
	} else {
		dr.Flag = id
	}
	dr.Sources = append([]string(nil), def.Sources...)

	var err error
	if dr.PatternAll, err = compileBucket(tabDiscardRules, id, "pattern_all", def.Match.PatternAll, flags); err != nil {
		return CompiledDiscardRule{}, false, err
	}
	if dr.PatternAny, err = compileBucket(tabDiscardRules, id, "pattern_any", def.Match.PatternAny, flags); err != nil {
		return CompiledDiscardRule{}, false, err
	}
	if dr.GuardrailNone, err = compileBucket(tabDiscardRules, id, "guardrail_none", def.Match.GuardrailNone, flags); err != nil {
		return CompiledDiscardRule{}, false, err
	}
	return dr, true, nil
}

// compileMatchers pre-compiles tie-breaker condition regexes.
func compileMatchers(tbID, block string, matchers []Matcher, flags string) ([]CompiledMatcher, error) {
	if len(matchers) == 0 {
		return nil, nil
	}
	out := make([]CompiledMatcher, 0, len(matchers))
	for _, m := range matchers {
		p, err := compilePattern(tabTieBreakers, tbID, block, m.Regex, flags)
		if err != nil {
			return nil, err
		}
		out = append(out, CompiledMatcher{Source: m.Source, Pattern: p})
	}
	return out, nil
}

// compileBucket pre-compiles one pattern bucket, enforcing size limits.
func compileBucket(tab, id, bucket string, raw []string, flags string) ([]CompiledPattern, error) {
	if len(raw) > types.MaxPatternsPerBucket {
		return nil, &types.CompilationError{Tab: tab, RuleID: id, Field: bucket, Err: types.ErrTooManyPatterns}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]CompiledPattern, 0, len(raw))
	for _, src := range raw {
		p, err := compilePattern(tab, id, bucket, src, flags)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// compilePattern compiles a single regex with the resolved global flag
// prefix, keeping the authored source string for evidence reporting.
func compilePattern(tab, id, field, src, flags string) (CompiledPattern, error) {
	if len(src) > types.MaxPatternLength {
		return CompiledPattern{}, &types.CompilationError{Tab: tab, RuleID: id, Field: field, Detail: src[:64] + "...", Err: types.ErrPatternTooLong}
	}
	re, err := regexp.Compile(flags + src)
	if err != nil {
		return CompiledPattern{}, &types.CompilationError{Tab: tab, RuleID: id, Field: field, Detail: src, Err: fmt.Errorf("%w: %v", types.ErrInvalidPattern, err)}
	}
	return CompiledPattern{Source: src, Re: re}, nil
}

// collectWarnings reports non-fatal configuration findings: identical
// priorities among active tie-breakers or enabled classes make tie
// resolution depend on authored order rather than explicit priority.
func collectWarnings(rs *CompiledRuleset) []string {
	var warnings []string

	tbByPriority := make(map[int][]string)
	for _, tb := range rs.TieBreakers {
		tbByPriority[tb.Priority] = append(tbByPriority[tb.Priority], tb.ID)
	}
	for _, priority := range sortedKeys(tbByPriority) {
		ids := tbByPriority[priority]
		if len(ids) > 1 {
			warnings = append(warnings, fmt.Sprintf("tie_breakers %v share priority %d; evaluation falls back to authored order", ids, priority))
		}
	}

	classByPriority := make(map[int][]string)
	for _, id := range rs.ClassOrder {
		c := rs.Classes[id]
		if !c.Enabled {
			continue
		}
		classByPriority[c.Priority] = append(classByPriority[c.Priority], id)
	}
	for _, priority := range sortedKeys(classByPriority) {
		ids := classByPriority[priority]
		if len(ids) > 1 {
			warnings = append(warnings, fmt.Sprintf("classes %v share priority %d; score ties resolve by authored order", ids, priority))
		}
	}
	return warnings
}

func sortedKeys(m map[int][]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
