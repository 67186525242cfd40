// internal/ruleset/merge_test.go
package ruleset

import (
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }

func f64Ptr(f float64) *float64 { return &f }

func TestMerge_NilOverlayDeepCopies(t *testing.T) {
	core := &Definition{
		Version: "2026.08",
		Classes: []ClassDef{
			{
				ID:       "formal_complaint",
				Label:    strPtr("Formal complaint"),
				Priority: intPtr(10),
				Patterns: &PatternSet{Strong: []string{`\bcomplaint\b`}},
			},
		},
	}

	merged := Merge(core, nil)

	if merged.Version != "2026.08" {
		t.Errorf("Version = %v, want 2026.08", merged.Version)
	}
	if len(merged.Classes) != 1 {
		t.Fatalf("len(Classes) = %v, want 1", len(merged.Classes))
	}

	// Mutating the merged output must not leak back into the core input
	merged.Classes[0].Patterns.Strong[0] = "mutated"
	if core.Classes[0].Patterns.Strong[0] != `\bcomplaint\b` {
		t.Errorf("core mutated through merged output: %v", core.Classes[0].Patterns.Strong[0])
	}
}

func TestMerge_BucketAppendDedupe(t *testing.T) {
	core := &Definition{
		Classes: []ClassDef{
			{ID: "c", Patterns: &PatternSet{Strong: []string{"A", "B"}}},
		},
	}
	overlay := &Definition{
		Classes: []ClassDef{
			{ID: "c", Patterns: &PatternSet{Strong: []string{"B", "C", "A"}}},
		},
	}

	merged := Merge(core, overlay)

	want := []string{"A", "B", "C"}
	if got := merged.Classes[0].Patterns.Strong; !reflect.DeepEqual(got, want) {
		t.Errorf("Strong = %v, want %v", got, want)
	}
}

func TestMerge_BucketReplaceDirective(t *testing.T) {
	core := &Definition{
		Classes: []ClassDef{
			{ID: "c", Patterns: &PatternSet{
				Strong: []string{"A", "B"},
				Weak:   []string{"w1"},
			}},
		},
	}
	overlay := &Definition{
		Classes: []ClassDef{
			{ID: "c", Patterns: &PatternSet{
				Strong:  []string{"X"},
				Weak:    []string{"w2"},
				Replace: map[string]bool{"strong": true},
			}},
		},
	}

	merged := Merge(core, overlay)

	if got, want := merged.Classes[0].Patterns.Strong, []string{"X"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Strong = %v, want %v (replace directive)", got, want)
	}
	if got, want := merged.Classes[0].Patterns.Weak, []string{"w1", "w2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Weak = %v, want %v (append default)", got, want)
	}
	if merged.Classes[0].Patterns.Replace != nil {
		t.Errorf("Replace directive leaked into merged output: %v", merged.Classes[0].Patterns.Replace)
	}
}

func TestMerge_ReplaceWithEmptyBucketEmpties(t *testing.T) {
	core := &Definition{
		Classes: []ClassDef{
			{ID: "c", Patterns: &PatternSet{Strong: []string{"A"}}},
		},
	}
	overlay := &Definition{
		Classes: []ClassDef{
			{ID: "c", Patterns: &PatternSet{Replace: map[string]bool{"strong": true}}},
		},
	}

	merged := Merge(core, overlay)

	if got := merged.Classes[0].Patterns.Strong; len(got) != 0 {
		t.Errorf("Strong = %v, want empty after explicit replace", got)
	}
}

func TestMerge_GlobalsDeepMerge(t *testing.T) {
	core := &Definition{
		Globals: &Globals{
			CaseInsensitive: boolPtr(true),
			Confidence: &ConfidenceGlobals{
				ClassKeepMin:     f64Ptr(0.70),
				ProcedureKeepMin: f64Ptr(0.60),
			},
		},
	}
	overlay := &Definition{
		Globals: &Globals{
			Confidence: &ConfidenceGlobals{
				ProcedureKeepMin: f64Ptr(0.55),
			},
		},
	}

	merged := Merge(core, overlay)

	g := merged.Globals
	if g.CaseInsensitive == nil || !*g.CaseInsensitive {
		t.Errorf("CaseInsensitive lost in merge")
	}
	if g.Confidence.ClassKeepMin == nil || *g.Confidence.ClassKeepMin != 0.70 {
		t.Errorf("ClassKeepMin = %v, want core value 0.70", g.Confidence.ClassKeepMin)
	}
	if g.Confidence.ProcedureKeepMin == nil || *g.Confidence.ProcedureKeepMin != 0.55 {
		t.Errorf("ProcedureKeepMin = %v, want overlay value 0.55", g.Confidence.ProcedureKeepMin)
	}
}

func TestMerge_ScalarOverrideOnlyWhenPresent(t *testing.T) {
	core := &Definition{
		Classes: []ClassDef{
			{
				ID:       "c",
				Label:    strPtr("Core label"),
				Priority: intPtr(10),
				Enabled:  boolPtr(true),
			},
		},
	}
	overlay := &Definition{
		Classes: []ClassDef{
			{ID: "c", Priority: intPtr(99)},
		},
	}

	merged := Merge(core, overlay)

	c := merged.Classes[0]
	if *c.Priority != 99 {
		t.Errorf("Priority = %v, want overlay value 99", *c.Priority)
	}
	if *c.Label != "Core label" {
		t.Errorf("Label = %v, want core value preserved", *c.Label)
	}
	if c.Enabled == nil || !*c.Enabled {
		t.Errorf("Enabled lost: nil overlay pointer must not override")
	}
}

func TestMerge_NewIDsAppendAfterCore(t *testing.T) {
	core := &Definition{
		Classes: []ClassDef{{ID: "a"}, {ID: "b"}},
	}
	overlay := &Definition{
		Classes: []ClassDef{{ID: "b"}, {ID: "z"}, {ID: "m"}},
	}

	merged := Merge(core, overlay)

	var ids []string
	for _, c := range merged.Classes {
		ids = append(ids, c.ID)
	}
	want := []string{"a", "b", "z", "m"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("class order = %v, want %v", ids, want)
	}
}

func TestMerge_TieBreakersAppendOnly(t *testing.T) {
	core := &Definition{
		TieBreakers: []TieBreakerDef{{ID: "tb", Priority: 10}},
	}
	overlay := &Definition{
		TieBreakers: []TieBreakerDef{{ID: "tb", Priority: 20}},
	}

	merged := Merge(core, overlay)

	if len(merged.TieBreakers) != 2 {
		t.Fatalf("len(TieBreakers) = %v, want 2 (append-only, no id merge)", len(merged.TieBreakers))
	}
	if merged.TieBreakers[0].Priority != 10 || merged.TieBreakers[1].Priority != 20 {
		t.Errorf("tie-breaker order = %v, want core first then overlay", merged.TieBreakers)
	}
}

func TestMerge_DiscardMatchReplacesWholesale(t *testing.T) {
	core := &Definition{
		DiscardRules: []DiscardRuleDef{
			{
				ID: "d",
				Match: &DiscardMatch{
					PatternAll: []string{"core_all"},
					PatternAny: []string{"core_any"},
				},
			},
		},
	}
	overlay := &Definition{
		DiscardRules: []DiscardRuleDef{
			{
				ID:    "d",
				Match: &DiscardMatch{PatternAny: []string{"overlay_any"}},
			},
		},
	}

	merged := Merge(core, overlay)

	m := merged.DiscardRules[0].Match
	if len(m.PatternAll) != 0 {
		t.Errorf("PatternAll = %v, want empty after wholesale match override", m.PatternAll)
	}
	if got, want := m.PatternAny, []string{"overlay_any"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PatternAny = %v, want %v", got, want)
	}
}

func TestMerge_SourcesPriorityReplacesWholesale(t *testing.T) {
	core := &Definition{
		Classes: []ClassDef{
			{ID: "c", SourcesPriority: []string{"header", "body"}},
		},
	}
	overlay := &Definition{
		Classes: []ClassDef{
			{ID: "c", SourcesPriority: []string{"body"}},
		},
	}

	merged := Merge(core, overlay)

	if got, want := merged.Classes[0].SourcesPriority, []string{"body"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SourcesPriority = %v, want %v", got, want)
	}
}
