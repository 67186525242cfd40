// Package types provides domain models shared across DocketKeeper components.
//
// Zero-dependency design: types.go and errors.go use only the standard
// library so the classification core can be embedded without pulling in
// storage or CLI dependencies. ID utilities in ids.go import uuid but are
// isolated for selective inclusion.
package types

// DocumentID identifies a single ingested document.
// String alias enables type safety while maintaining JSON string serialization.
type DocumentID string

// RunID identifies one batch classification run.
// UUIDv7 time-ordering ensures sequential IDs cluster in B-tree indexes.
type RunID string

// TextFields maps a named source ("header", "caption", "declared_class",
// "summary", ...) to the raw extracted text for that source. Produced by an
// upstream OCR/parsing collaborator; absent fields simply contribute no
// matches during classification.
type TextFields map[string]string

// Baseline is an optional prior/reference classification supplied alongside
// a document, used only for equivalence reconciliation. Labels is the set of
// class labels the reference system assigned.
type Baseline struct {
	Labels []string `json:"labels"`
}

// Document is the engine's unit of work: the extracted text fields plus an
// optional baseline classification from an external comparison system.
type Document struct {
	DocumentID DocumentID `json:"document_id,omitempty"`
	Fields     TextFields `json:"text_fields"`
	Baseline   *Baseline  `json:"baseline,omitempty"`
}

// Resource limits enforced by the ruleset compiler to keep classification a
// bounded, CPU-only computation.
const (
	// MaxPatternLength caps a single regex source string. Rule authoring is
	// keyword-driven; anything longer indicates a pasted document, not a rule.
	MaxPatternLength = 1024

	// MaxPatternsPerBucket caps each strong/weak/negative list after merge.
	// 256 patterns per bucket keeps per-class scoring linear and small.
	MaxPatternsPerBucket = 256

	// MaxTextFieldLength caps a single document text field. Upstream
	// extraction truncates to head/tail excerpts; 1MB is a hard backstop.
	MaxTextFieldLength = 1024 * 1024

	// SnippetContext is the number of characters of surrounding context
	// captured on each side of a matched pattern for evidence reporting.
	SnippetContext = 40
)
