// internal/classify/normalize_test.go
package classify

import (
	"strings"
	"testing"

	"github.com/solatis/docketkeeper/internal/ruleset"
	"github.com/solatis/docketkeeper/internal/types"
)

func TestFoldAccents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain ascii unchanged", "formal complaint", "formal complaint"},
		{"french accents", "pétition déposée", "petition deposee"},
		{"german umlaut", "Beschwerdeführer", "Beschwerdefuhrer"},
		{"mixed", "Révision EXPÉDIÉE no. 42", "Revision EXPEDIEE no. 42"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := foldAccents(tt.input); got != tt.want {
				t.Errorf("foldAccents(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPrepareDocument_DeterministicFieldOrder(t *testing.T) {
	g := ruleset.ResolvedGlobals{}
	prep := prepareDocument(types.Document{Fields: types.TextFields{
		"summary": "s",
		"body":    "b",
		"header":  "h",
	}}, g)

	want := []string{"body", "header", "summary"}
	if len(prep.order) != len(want) {
		t.Fatalf("order = %v, want %v", prep.order, want)
	}
	for i := range want {
		if prep.order[i] != want[i] {
			t.Fatalf("order = %v, want sorted %v", prep.order, want)
		}
	}
}

func TestPrepareDocument_SkipsFoldingWhenDisabled(t *testing.T) {
	g := ruleset.ResolvedGlobals{NormalizeAccents: false}
	prep := prepareDocument(types.Document{Fields: types.TextFields{
		"header": "pétition",
	}}, g)

	if prep.field("header") != "pétition" {
		t.Errorf("field = %q, want accents preserved when folding disabled", prep.field("header"))
	}
}

func TestPrepareDocument_MissingFieldEmpty(t *testing.T) {
	prep := prepareDocument(types.Document{}, ruleset.ResolvedGlobals{})
	if prep.field("header") != "" {
		t.Errorf("field on absent name = %q, want empty string", prep.field("header"))
	}
}

func TestTruncateRuneSafe(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"under limit", "abc", 10, "abc"},
		{"exact limit", "abc", 3, "abc"},
		{"ascii cut", "abcdef", 3, "abc"},
		{"multibyte boundary", "aé", 2, "a"}, // é is 2 bytes starting at offset 1
		{"zero", "abc", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRuneSafe(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("truncateRuneSafe(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestSnippet_WindowAndBounds(t *testing.T) {
	text := strings.Repeat("a", 100) + "MATCH" + strings.Repeat("b", 100)
	start := 100
	end := 105

	got := snippet(text, start, end)

	if !strings.Contains(got, "MATCH") {
		t.Fatalf("snippet = %q, want matched text included", got)
	}
	wantLen := types.SnippetContext + 5 + types.SnippetContext
	if len(got) != wantLen {
		t.Errorf("len(snippet) = %d, want %d", len(got), wantLen)
	}
}

func TestSnippet_ClampsAtTextEdges(t *testing.T) {
	text := "short MATCH"
	got := snippet(text, 6, 11)
	if got != text {
		t.Errorf("snippet = %q, want whole text when context exceeds bounds", got)
	}
}
