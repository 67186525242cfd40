// internal/ruleset/hash_test.go
package ruleset

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestHash_Deterministic(t *testing.T) {
	def := &Definition{
		Version: "2026.08",
		Classes: []ClassDef{
			{
				ID:       "formal_complaint",
				Label:    strPtr("Formal complaint"),
				Priority: intPtr(10),
				Patterns: &PatternSet{Strong: []string{`\bcomplaint\b`}},
				ConfidenceRules: &ConfidenceRules{
					StrongHit: 1.0, WeakHit: 0.5, NegHitPenalty: -0.4,
				},
			},
		},
	}

	h1, err := Hash(def)
	if err != nil {
		t.Fatalf("Hash() error = %v, want nil", err)
	}
	h2, err := Hash(def)
	if err != nil {
		t.Fatalf("Hash() error = %v, want nil", err)
	}
	if h1 != h2 {
		t.Errorf("Hash() not deterministic: %v != %v", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("len(hash) = %v, want 64 hex chars", len(h1))
	}
}

func TestHash_SensitiveToPatternChange(t *testing.T) {
	base := &Definition{
		Classes: []ClassDef{
			{ID: "c", Patterns: &PatternSet{Strong: []string{`\bappeal\b`}}},
		},
	}
	changed := &Definition{
		Classes: []ClassDef{
			{ID: "c", Patterns: &PatternSet{Strong: []string{`\bappeals\b`}}},
		},
	}

	h1, err := Hash(base)
	if err != nil {
		t.Fatalf("Hash() error = %v, want nil", err)
	}
	h2, err := Hash(changed)
	if err != nil {
		t.Fatalf("Hash() error = %v, want nil", err)
	}
	if h1 == h2 {
		t.Errorf("Hash() identical for different definitions")
	}
}

func TestHash_StableAcrossMergeRepeats(t *testing.T) {
	core := &Definition{
		Version: "1",
		Classes: []ClassDef{
			{ID: "a", Patterns: &PatternSet{Strong: []string{"x"}}},
			{ID: "b", Patterns: &PatternSet{Weak: []string{"y"}}},
		},
		TieBreakers: []TieBreakerDef{{ID: "tb", Priority: 5}},
	}
	overlay := &Definition{
		Classes: []ClassDef{
			{ID: "b", Patterns: &PatternSet{Weak: []string{"z"}}},
		},
	}

	h1, err := Hash(Merge(core, overlay))
	if err != nil {
		t.Fatalf("Hash() error = %v, want nil", err)
	}
	h2, err := Hash(Merge(core, overlay))
	if err != nil {
		t.Fatalf("Hash() error = %v, want nil", err)
	}
	if h1 != h2 {
		t.Errorf("merge+hash not deterministic: %v != %v", h1, h2)
	}
}

// Hashing is a function of field values, not authored literal spelling:
// "0.70" and "0.7" decode to the same float64 and hash identically.
func TestHash_NumericSpellingNormalized(t *testing.T) {
	decode := func(raw string) *Definition {
		var def Definition
		if err := json.Unmarshal([]byte(raw), &def); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return &def
	}

	a := decode(`{"classes":[{"id":"c","confidence_rules":{"strong_hit":1,"weak_hit":0.70,"neg_hit_penalty":-0.4}}]}`)
	b := decode(`{"classes":[{"id":"c","confidence_rules":{"strong_hit":1.0,"weak_hit":0.7,"neg_hit_penalty":-0.40}}]}`)

	h1, err := Hash(a)
	if err != nil {
		t.Fatalf("Hash() error = %v, want nil", err)
	}
	h2, err := Hash(b)
	if err != nil {
		t.Fatalf("Hash() error = %v, want nil", err)
	}
	if h1 != h2 {
		t.Errorf("value-identical definitions hash differently: %v != %v", h1, h2)
	}
}

// Property-based test: hashing never fails and is a pure function of the
// definition content
func TestHash_PropertyDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("identical definitions hash identically", prop.ForAll(
		func(version string, id string, patterns []string, priority int) bool {
			build := func() *Definition {
				return &Definition{
					Version: version,
					Classes: []ClassDef{
						{
							ID:       id,
							Priority: intPtr(priority),
							Patterns: &PatternSet{Strong: append([]string(nil), patterns...)},
						},
					},
				}
			}

			h1, err1 := Hash(build())
			h2, err2 := Hash(build())
			if err1 != nil || err2 != nil {
				return false
			}
			return h1 == h2 && len(h1) == 64
		},
		gen.AlphaString(),
		gen.Identifier(),
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t)
}
