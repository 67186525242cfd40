// internal/classify/normalize.go
package classify

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/solatis/docketkeeper/internal/ruleset"
	"github.com/solatis/docketkeeper/internal/types"
)

/*
 * Document text preparation.
 *
 * Builds the per-classify view of a document's text fields: accent folding
 * (when globals enable it), length capping, and a sorted field-name order
 * for deterministic "search all fields" iteration. Rule patterns are
 * authored against unaccented text, so the same folding must be applied to
 * every searched field before any pattern runs.
 *
 * The accent-stripping transformer chain is constructed per call: chained
 * transformers carry internal buffer state and must not be shared across
 * concurrent classify invocations.
 */

// preparedDoc is the normalized, immutable view of one document's fields.
type preparedDoc struct {
	fields map[string]string
	order  []string // sorted field names for deterministic all-field scans
}

// prepareDocument normalizes every text field once, up front, so each
// pattern test operates on the same folded view.
func prepareDocument(doc types.Document, g ruleset.ResolvedGlobals) preparedDoc {
	prep := preparedDoc{fields: make(map[string]string, len(doc.Fields))}
	for name, text := range doc.Fields {
		if len(text) > types.MaxTextFieldLength {
			text = truncateRuneSafe(text, types.MaxTextFieldLength)
		}
		if g.NormalizeAccents {
			text = foldAccents(text)
		}
		prep.fields[name] = text
		prep.order = append(prep.order, name)
	}
	sort.Strings(prep.order)
	return prep
}

// field returns the prepared text for a named source; absent fields return
// the empty string and contribute no matches.
func (p preparedDoc) field(name string) string {
	return p.fields[name]
}

// foldAccents strips combining marks: NFD decomposition, mark removal, NFC
// recomposition. Returns the input unchanged if transformation fails.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// truncateRuneSafe cuts s to at most max bytes without splitting a rune.
func truncateRuneSafe(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// snippet extracts the matched text with surrounding context for evidence
// reporting, adjusted to rune boundaries.
func snippet(text string, start, end int) string {
	lo := start - types.SnippetContext
	if lo < 0 {
		lo = 0
	}
	hi := end + types.SnippetContext
	if hi > len(text) {
		hi = len(text)
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi--
	}
	return text[lo:hi]
}
