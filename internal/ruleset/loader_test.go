// internal/ruleset/loader_test.go
package ruleset

import (
	"os"
	"path/filepath"
	"testing"
)

const loaderTestCore = `{
  "version": "2026.08",
  "classes": [
    {
      "id": "formal_complaint",
      "label": "Formal complaint",
      "priority": 10,
      "patterns": {"strong": ["\\bformal complaint\\b"]},
      "confidence_rules": {"strong_hit": 1.0, "weak_hit": 0.5, "neg_hit_penalty": -0.4}
    }
  ]
}`

const loaderTestOverlay = `{
  "version": "dk-2026.08",
  "classes": [
    {
      "id": "formal_complaint",
      "patterns": {"strong": ["\\bklacht\\b"]}
    }
  ]
}`

func writeRulesDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "core.json"), []byte(loaderTestCore), 0644); err != nil {
		t.Fatalf("failed to write core.json: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "jurisdictions"), 0755); err != nil {
		t.Fatalf("failed to create jurisdictions dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "jurisdictions", "nl.json"), []byte(loaderTestOverlay), 0644); err != nil {
		t.Fatalf("failed to write overlay: %v", err)
	}
	return dir
}

func TestLoad_CoreOnly(t *testing.T) {
	dir := writeRulesDir(t)

	rs, err := Load(dir, "core")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if rs.Provenance.JurisdictionID != "core" {
		t.Errorf("JurisdictionID = %v, want core", rs.Provenance.JurisdictionID)
	}
	if len(rs.Classes["formal_complaint"].Strong) != 1 {
		t.Errorf("Strong patterns = %v, want core pattern only", rs.Classes["formal_complaint"].Strong)
	}
}

func TestLoad_EmptyJurisdictionDefaultsToCore(t *testing.T) {
	dir := writeRulesDir(t)

	rs, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if rs.Provenance.JurisdictionID != "core" {
		t.Errorf("JurisdictionID = %v, want core", rs.Provenance.JurisdictionID)
	}
}

func TestLoad_WithOverlay(t *testing.T) {
	dir := writeRulesDir(t)

	rs, err := Load(dir, "nl")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if rs.Provenance.JurisdictionID != "nl" {
		t.Errorf("JurisdictionID = %v, want nl", rs.Provenance.JurisdictionID)
	}
	if rs.Provenance.OverlayVersion != "dk-2026.08" {
		t.Errorf("OverlayVersion = %v, want dk-2026.08", rs.Provenance.OverlayVersion)
	}
	if len(rs.Classes["formal_complaint"].Strong) != 2 {
		t.Errorf("Strong patterns = %v, want core + overlay appended", rs.Classes["formal_complaint"].Strong)
	}
}

func TestLoad_MissingOverlay(t *testing.T) {
	dir := writeRulesDir(t)

	_, err := Load(dir, "does_not_exist")
	if err == nil {
		t.Fatalf("Load() error = nil, want missing overlay error")
	}
}

func TestLoad_MissingCore(t *testing.T) {
	_, err := Load(t.TempDir(), "core")
	if err == nil {
		t.Fatalf("Load() error = nil, want missing core error")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "core.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write core.json: %v", err)
	}

	_, err := Load(dir, "core")
	if err == nil {
		t.Fatalf("Load() error = nil, want JSON parse error")
	}
}
