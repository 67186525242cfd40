package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for DocketKeeper operations.
var (
	// ErrMissingRequiredField indicates a Class or Procedure definition lacks
	// a required field (id, label, priority, patterns, confidence_rules).
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidPattern indicates a regex pattern failed to compile.
	ErrInvalidPattern = errors.New("invalid regex pattern")

	// ErrPatternTooLong indicates a pattern exceeds MaxPatternLength.
	ErrPatternTooLong = errors.New("pattern exceeds maximum length")

	// ErrTooManyPatterns indicates a merged bucket exceeds MaxPatternsPerBucket.
	ErrTooManyPatterns = errors.New("pattern bucket exceeds maximum size")

	// ErrUnknownAction indicates a tie-breaker action outside the closed
	// action vocabulary.
	ErrUnknownAction = errors.New("unknown tie-breaker action")

	// ErrUnknownDiscardAction indicates a discard rule action other than
	// mark_irrelevant.
	ErrUnknownDiscardAction = errors.New("unknown discard rule action")

	// ErrDuplicateID indicates two items in the same core collection share an id.
	ErrDuplicateID = errors.New("duplicate rule id")

	// ErrEmptyRuleset indicates a core definition with no classes at all.
	ErrEmptyRuleset = errors.New("ruleset defines no classes")
)

// CompilationError is the fatal error type returned by ruleset compilation.
// It always carries the exact collection, rule id, and field that failed so
// authoring errors point at the offending definition, never a generic failure.
type CompilationError struct {
	Tab    string // collection name: "classes", "procedures", "tie_breakers", "equivalences", "discard_rules"
	RuleID string // id of the offending item ("unknown" when the id itself is missing)
	Field  string // field or pattern bucket within the item
	Detail string // raw pattern or offending value, when applicable
	Err    error  // underlying sentinel or regexp error
}

// Error implements error.
func (e *CompilationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ruleset compilation failed: %s/%s field %q: %v (%s)", e.Tab, e.RuleID, e.Field, e.Err, e.Detail)
	}
	return fmt.Sprintf("ruleset compilation failed: %s/%s field %q: %v", e.Tab, e.RuleID, e.Field, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As matching.
func (e *CompilationError) Unwrap() error {
	return e.Err
}
