// internal/classify/result.go
package classify

import "github.com/solatis/docketkeeper/internal/types"

/*
 * Classification result schema.
 *
 * Result is the flat, serializable schema boundary consumed by reporters,
 * storage writers, and comparison tooling. Consumers only ever need this
 * contract, never the internal scoring mechanics. RulesetHash ties every
 * result to the exact rule version that produced it.
 */

// Status is the terminal classification state of a document.
type Status string

const (
	// StatusClassified: a primary class was resolved at or above the keep
	// threshold.
	StatusClassified Status = "classified"

	// StatusLowConfidence: a primary class exists but its confidence is
	// below the keep threshold. The primary is still populated; the
	// threshold flags it, it does not null it out.
	StatusLowConfidence Status = "low_confidence"

	// StatusIrrelevant: a discard rule or a mark_irrelevant tie-breaker
	// fired. No primary class is reported.
	StatusIrrelevant Status = "irrelevant"

	// StatusUnclassified: no class ever scored above zero. An ordinary
	// outcome for noisy text, never an error.
	StatusUnclassified Status = "unclassified"
)

// Evidence records one contributing match or tie-breaker action. The full
// evidence list is the audit trail of everything that moved the result.
// ScoreDelta is the weight the hit carried; bucket scoring uses
// max-plus-penalty semantics, so deltas are informative rather than a sum.
type Evidence struct {
	Stage      string  `json:"stage"`             // "discard", "class", "procedure", "tie_breaker", "equivalence"
	RuleID     string  `json:"rule_id"`           // id of the class/procedure/rule that matched
	Source     string  `json:"source,omitempty"`  // document field searched
	Pattern    string  `json:"pattern,omitempty"` // authored regex source
	Strength   string  `json:"strength,omitempty"`
	Snippet    string  `json:"snippet,omitempty"`
	ScoreDelta float64 `json:"score_delta"`
}

// Result is the classification outcome for one document.
type Result struct {
	DocumentID       types.DocumentID `json:"document_id,omitempty"`
	PrimaryClass     string           `json:"primary_class,omitempty"`
	SecondaryClasses []string         `json:"secondary_classes"`
	Procedures       []string         `json:"procedures"`
	RulesConfidence  float64          `json:"rules_confidence"`
	RulesStatus      Status           `json:"rules_status"`
	IsSuspect        bool             `json:"is_suspect"`
	IsIrrelevant     bool             `json:"is_irrelevant"`
	IsEquivalent     bool             `json:"is_equivalent"`
	DiscardFlags     []string         `json:"discard_flags,omitempty"`
	Evidence         []Evidence       `json:"evidence"`
	RulesetHash      string           `json:"ruleset_hash"`
}
