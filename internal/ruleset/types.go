// internal/ruleset/types.go
package ruleset

/*
 * Raw rule definition types.
 *
 * These structs mirror the authored JSON shape of a ruleset document: a
 * versioned bundle of five collections (classes, procedures, tie_breakers,
 * equivalences, discard_rules) plus jurisdiction-wide globals. The same
 * types represent both the universal core ruleset and a per-jurisdiction
 * overlay; Merge in merge.go combines the two.
 *
 * Optional scalars are pointer-typed so the merge can distinguish "overlay
 * explicitly sets this field" from "overlay omits it". A nil pointer never
 * overrides a core value. Required-field enforcement happens at compile
 * time, not decode time, so error messages can name the offending rule id.
 *
 * Definitions are plain data: no regex objects, no derived state. They are
 * loaded fresh per compile call and never mutated after merge.
 */

// Definition is a complete raw ruleset document: either the universal core
// or a jurisdiction overlay layered on top of it.
type Definition struct {
	Version      string           `json:"version,omitempty"`
	Globals      *Globals         `json:"globals,omitempty"`
	Classes      []ClassDef       `json:"classes,omitempty"`
	Procedures   []ProcedureDef   `json:"procedures,omitempty"`
	TieBreakers  []TieBreakerDef  `json:"tie_breakers,omitempty"`
	Equivalences []EquivalenceDef `json:"equivalences,omitempty"`
	DiscardRules []DiscardRuleDef `json:"discard_rules,omitempty"`
}

// Globals holds jurisdiction-wide scalar configuration. Overlay values
// override core values at matching key paths; nil leaves the core default.
type Globals struct {
	CaseInsensitive  *bool              `json:"case_insensitive,omitempty"`
	Multiline        *bool              `json:"multiline,omitempty"`
	NormalizeAccents *bool              `json:"normalize_accents,omitempty"`
	Confidence       *ConfidenceGlobals `json:"confidence,omitempty"`
	Quotes           *QuoteGlobals      `json:"quotes,omitempty"`
}

// ConfidenceGlobals holds the classification confidence thresholds.
type ConfidenceGlobals struct {
	ClassPrefilterMin       *float64 `json:"class_prefilter_min,omitempty"`
	ClassKeepMin            *float64 `json:"class_keep_min,omitempty"`
	ProcedureKeepMin        *float64 `json:"procedure_keep_min,omitempty"`
	StanceForceNeutralBelow *float64 `json:"stance_force_neutral_below,omitempty"`
}

// QuoteGlobals holds quote-extraction length and dedupe parameters. Carried
// through merge for downstream extraction utilities; the classification
// engine itself does not consume them.
type QuoteGlobals struct {
	MinLength    *int `json:"min_length,omitempty"`
	MaxLength    *int `json:"max_length,omitempty"`
	DedupeWindow *int `json:"dedupe_window,omitempty"`
}

// PatternSet holds the three pattern-strength buckets of a class or
// procedure. Replace carries the authored per-bucket "_replace" directive:
// when Replace["strong"] is true an overlay's strong list discards the core
// list instead of appending to it. The directive is resolved during merge
// and cleared from the merged output.
type PatternSet struct {
	Strong   []string        `json:"strong,omitempty"`
	Weak     []string        `json:"weak,omitempty"`
	Negative []string        `json:"negative,omitempty"`
	Replace  map[string]bool `json:"_replace,omitempty"`
}

// ConfidenceRules holds the per-rule scoring weights. KeepMin optionally
// overrides the global keep threshold for procedures.
type ConfidenceRules struct {
	StrongHit     float64  `json:"strong_hit"`
	WeakHit       float64  `json:"weak_hit"`
	NegHitPenalty float64  `json:"neg_hit_penalty"`
	KeepMin       *float64 `json:"keep_min,omitempty"`
}

// ClassDef is an authored document class: a mutually-competing document-type
// label. Required at compile time: id, label, priority, patterns,
// confidence_rules.
type ClassDef struct {
	ID              string           `json:"id"`
	Label           *string          `json:"label,omitempty"`
	Priority        *int             `json:"priority,omitempty"`
	Enabled         *bool            `json:"enabled,omitempty"`
	Whitelist       *bool            `json:"whitelist,omitempty"`
	Patterns        *PatternSet      `json:"patterns,omitempty"`
	ConfidenceRules *ConfidenceRules `json:"confidence_rules,omitempty"`
	SourcesPriority []string         `json:"sources_priority,omitempty"`
}

// ProcedureDef is an authored procedural flag. Unlike classes, procedures do
// not compete with each other or with classes. Required at compile time:
// id, patterns.
type ProcedureDef struct {
	ID              string           `json:"id"`
	Label           *string          `json:"label,omitempty"`
	Priority        *int             `json:"priority,omitempty"`
	Enabled         *bool            `json:"enabled,omitempty"`
	Patterns        *PatternSet      `json:"patterns,omitempty"`
	ConfidenceRules *ConfidenceRules `json:"confidence_rules,omitempty"`
	SourcesPriority []string         `json:"sources_priority,omitempty"`
}

// Matcher is a single named-field regex condition inside a tie-breaker
// condition block.
type Matcher struct {
	Source string `json:"source"`
	Regex  string `json:"regex"`
}

// ActionDef is a raw tie-breaker action before vocabulary validation.
// Do is one of: upweight_class, downweight_class, force_primary_class,
// add_procedure, add_secondary_class, mark_irrelevant.
// Delta is a magnitude authored positive for both weight actions: the
// action name carries the direction (upweight adds, downweight subtracts).
type ActionDef struct {
	Do        string  `json:"do"`
	Class     string  `json:"class,omitempty"`
	Procedure string  `json:"procedure,omitempty"`
	Delta     float64 `json:"delta,omitempty"`
}

// TieBreakerDef is a conditional score-adjustment rule evaluated after
// initial scoring. Condition semantics: when_all is AND, when_any is OR,
// when_none is NOR. Higher priority evaluates first.
type TieBreakerDef struct {
	ID       string      `json:"id"`
	Priority int         `json:"priority"`
	WhenAll  []Matcher   `json:"when_all,omitempty"`
	WhenAny  []Matcher   `json:"when_any,omitempty"`
	WhenNone []Matcher   `json:"when_none,omitempty"`
	Then     []ActionDef `json:"then"`
}

// EquivalenceDef declares that two differently-labeled outcomes are
// substantively identical for divergence reporting. BaselineAnyOf is a list
// of label combinations; a combination matches when every label in it is
// present in the baseline's label set.
type EquivalenceDef struct {
	ID                string     `json:"id"`
	BaselineAnyOf     [][]string `json:"baseline_any_of"`
	RulesPrimary      string     `json:"rules_primary"`
	RequiresProcedure string     `json:"requires_procedure,omitempty"`
}

// DiscardMatch holds the three regex groups of a discard rule: pattern_all
// (AND), pattern_any (OR), guardrail_none (NOT-any).
type DiscardMatch struct {
	PatternAll    []string `json:"pattern_all,omitempty"`
	PatternAny    []string `json:"pattern_any,omitempty"`
	GuardrailNone []string `json:"guardrail_none,omitempty"`
}

// DiscardRuleDef is a pre-filter that marks a document irrelevant before
// full classification runs. Sources limits the searched fields; empty means
// all provided fields.
type DiscardRuleDef struct {
	ID       string        `json:"id"`
	Priority *int          `json:"priority,omitempty"`
	Enabled  *bool         `json:"enabled,omitempty"`
	Action   *string       `json:"action,omitempty"`
	Flag     *string       `json:"flag,omitempty"`
	Sources  []string      `json:"sources,omitempty"`
	Match    *DiscardMatch `json:"match,omitempty"`
}
