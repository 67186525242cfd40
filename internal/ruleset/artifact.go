// internal/ruleset/artifact.go
package ruleset

import (
	"regexp"
	"time"
)

/*
 * Compiled ruleset artifact.
 *
 * CompiledRuleset is the merge output with every pattern string pre-compiled
 * into a matchable regex and every tie-breaker action resolved into a closed
 * enum. It is immutable once constructed: safe for concurrent read-only use
 * by arbitrarily many parallel classify calls with no locking.
 *
 * Original pattern source strings are stored alongside the compiled handles
 * so evidence reporting and debugging can show the authored pattern, not the
 * engine's internal representation.
 */

// CompiledPattern pairs a compiled regex with its authored source string.
type CompiledPattern struct {
	Source string
	Re     *regexp.Regexp
}

// CompiledClass is a document class ready for scoring.
type CompiledClass struct {
	ID              string
	Label           string
	Priority        int
	Enabled         bool
	Whitelist       bool
	Confidence      ConfidenceRules
	SourcesPriority []string
	Strong          []CompiledPattern
	Weak            []CompiledPattern
	Negative        []CompiledPattern
}

// CompiledProcedure is a procedural flag ready for detection. Procedures do
// not carry a whitelist marker; suspicion is a class-level concept.
type CompiledProcedure struct {
	ID              string
	Label           string
	Priority        int
	Enabled         bool
	Confidence      ConfidenceRules
	SourcesPriority []string
	Strong          []CompiledPattern
	Weak            []CompiledPattern
	Negative        []CompiledPattern
}

// KeepMin returns the procedure's admission threshold: the per-procedure
// override when authored, otherwise the global procedure keep threshold.
func (p *CompiledProcedure) KeepMin(g ResolvedGlobals) float64 {
	if p.Confidence.KeepMin != nil {
		return *p.Confidence.KeepMin
	}
	return g.ProcedureKeepMin
}

// ActionKind enumerates the closed tie-breaker action vocabulary.
type ActionKind int

const (
	ActionUnspecified ActionKind = iota
	ActionUpweightClass
	ActionDownweightClass
	ActionForcePrimaryClass
	ActionAddProcedure
	ActionAddSecondaryClass
	ActionMarkIrrelevant
)

// Action is a validated tie-breaker action. ClassID/ProcedureID/Delta are
// populated according to Kind; unused fields are zero.
type Action struct {
	Kind        ActionKind
	ClassID     string
	ProcedureID string
	Delta       float64
}

// CompiledMatcher is a named-field condition with a pre-compiled regex.
type CompiledMatcher struct {
	Source  string
	Pattern CompiledPattern
}

// CompiledTieBreaker is a conditional adjustment rule ready for evaluation.
type CompiledTieBreaker struct {
	ID       string
	Priority int
	WhenAll  []CompiledMatcher
	WhenAny  []CompiledMatcher
	WhenNone []CompiledMatcher
	Then     []Action
}

// CompiledEquivalence mirrors EquivalenceDef; no regexes to compile.
type CompiledEquivalence struct {
	ID                string
	BaselineAnyOf     [][]string
	RulesPrimary      string
	RequiresProcedure string
}

// CompiledDiscardRule is a pre-filter ready for evaluation. Empty Sources
// means every provided document field is searched.
type CompiledDiscardRule struct {
	ID            string
	Priority      int
	Flag          string
	Sources       []string
	PatternAll    []CompiledPattern
	PatternAny    []CompiledPattern
	GuardrailNone []CompiledPattern
}

// ResolvedGlobals is the merged Globals with defaults applied.
type ResolvedGlobals struct {
	CaseInsensitive  bool
	Multiline        bool
	NormalizeAccents bool

	ClassPrefilterMin       float64
	ClassKeepMin            float64
	ProcedureKeepMin        float64
	StanceForceNeutralBelow float64

	QuoteMinLength    int
	QuoteMaxLength    int
	QuoteDedupeWindow int
}

// Provenance records which rule versions produced a compiled ruleset.
type Provenance struct {
	JurisdictionID string    `json:"jurisdiction_id"`
	CoreVersion    string    `json:"core_version"`
	OverlayVersion string    `json:"overlay_version,omitempty"`
	CompiledAt     time.Time `json:"compiled_at"`
}

// CompiledRuleset is the immutable compiler output consumed by the
// classification engine. Hash is computed over the canonicalized merged
// definition before regex compilation; results carry it so every
// classification is traceable to the exact rule version that produced it.
type CompiledRuleset struct {
	Hash       string
	Provenance Provenance
	Globals    ResolvedGlobals

	Classes    map[string]*CompiledClass
	ClassOrder []string

	Procedures     map[string]*CompiledProcedure
	ProcedureOrder []string

	TieBreakers  []CompiledTieBreaker  // priority descending
	Equivalences []CompiledEquivalence // authored order (core first, then overlay)
	DiscardRules []CompiledDiscardRule // priority descending

	// Warnings are non-fatal configuration findings surfaced to the caller:
	// duplicate priorities among active tie-breakers or classes.
	Warnings []string
}

// Default global values applied when neither core nor overlay sets a key.
const (
	defaultClassPrefilterMin       = 0.30
	defaultClassKeepMin            = 0.70
	defaultProcedureKeepMin        = 0.60
	defaultStanceForceNeutralBelow = 0.25

	defaultQuoteMinLength    = 40
	defaultQuoteMaxLength    = 400
	defaultQuoteDedupeWindow = 64
)

// resolveGlobals applies defaults to merged globals. Regex flags default to
// case-insensitive multiline with accent normalization on, matching how the
// rule corpus is authored (lowercase, unaccented keywords).
func resolveGlobals(g *Globals) ResolvedGlobals {
	out := ResolvedGlobals{
		CaseInsensitive:  true,
		Multiline:        true,
		NormalizeAccents: true,

		ClassPrefilterMin:       defaultClassPrefilterMin,
		ClassKeepMin:            defaultClassKeepMin,
		ProcedureKeepMin:        defaultProcedureKeepMin,
		StanceForceNeutralBelow: defaultStanceForceNeutralBelow,

		QuoteMinLength:    defaultQuoteMinLength,
		QuoteMaxLength:    defaultQuoteMaxLength,
		QuoteDedupeWindow: defaultQuoteDedupeWindow,
	}
	if g == nil {
		return out
	}
	if g.CaseInsensitive != nil {
		out.CaseInsensitive = *g.CaseInsensitive
	}
	if g.Multiline != nil {
		out.Multiline = *g.Multiline
	}
	if g.NormalizeAccents != nil {
		out.NormalizeAccents = *g.NormalizeAccents
	}
	if c := g.Confidence; c != nil {
		if c.ClassPrefilterMin != nil {
			out.ClassPrefilterMin = *c.ClassPrefilterMin
		}
		if c.ClassKeepMin != nil {
			out.ClassKeepMin = *c.ClassKeepMin
		}
		if c.ProcedureKeepMin != nil {
			out.ProcedureKeepMin = *c.ProcedureKeepMin
		}
		if c.StanceForceNeutralBelow != nil {
			out.StanceForceNeutralBelow = *c.StanceForceNeutralBelow
		}
	}
	if q := g.Quotes; q != nil {
		if q.MinLength != nil {
			out.QuoteMinLength = *q.MinLength
		}
		if q.MaxLength != nil {
			out.QuoteMaxLength = *q.MaxLength
		}
		if q.DedupeWindow != nil {
			out.QuoteDedupeWindow = *q.DedupeWindow
		}
	}
	return out
}

// flagPrefix renders the resolved regex flags as a Go regexp inline prefix.
func (g ResolvedGlobals) flagPrefix() string {
	prefix := ""
	if g.CaseInsensitive {
		prefix += "i"
	}
	if g.Multiline {
		prefix += "m"
	}
	if prefix == "" {
		return ""
	}
	return "(?" + prefix + ")"
}
