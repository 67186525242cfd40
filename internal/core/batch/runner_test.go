// internal/core/batch/runner_test.go
package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/solatis/docketkeeper/internal/classify"
	"github.com/solatis/docketkeeper/internal/core/config"
	"github.com/solatis/docketkeeper/internal/ruleset"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func testRuleset(t *testing.T) *ruleset.CompiledRuleset {
	t.Helper()
	core := &ruleset.Definition{
		Version: "test",
		Classes: []ruleset.ClassDef{
			{
				ID:       "formal_complaint",
				Label:    strPtr("Formal complaint"),
				Priority: intPtr(10),
				Patterns: &ruleset.PatternSet{Strong: []string{`\bformal complaint\b`}},
				ConfidenceRules: &ruleset.ConfidenceRules{
					StrongHit: 1.0, WeakHit: 0.5, NegHitPenalty: -0.4,
				},
			},
		},
	}
	rs, err := ruleset.Compile(core, nil, "core")
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	return rs
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeDoc(t *testing.T, dir, name, header string) {
	t.Helper()
	payload := map[string]any{
		"document_id": name,
		"text_fields": map[string]string{"header": header},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), raw, 0644); err != nil {
		t.Fatalf("write document: %v", err)
	}
}

func TestRunner_Run(t *testing.T) {
	inputDir := t.TempDir()
	writeDoc(t, inputDir, "doc-hit", "formal complaint against the municipality")
	writeDoc(t, inputDir, "doc-miss", "parking garage maintenance schedule")

	cfg := config.DefaultClassifierConfig()
	cfg.DataDir = t.TempDir()
	cfg.Workers = 2

	runner, err := NewRunner(testRuleset(t), cfg, nil, quietLogger())
	if err != nil {
		t.Fatalf("NewRunner() error = %v, want nil", err)
	}

	summary, err := runner.Run(context.Background(), inputDir)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	if summary.Total != 2 {
		t.Errorf("Total = %v, want 2", summary.Total)
	}
	if summary.Failed != 0 {
		t.Errorf("Failed = %v, want 0", summary.Failed)
	}
	if summary.ByStatus[string(classify.StatusClassified)] != 1 {
		t.Errorf("classified count = %v, want 1", summary.ByStatus[string(classify.StatusClassified)])
	}
	if summary.ByStatus[string(classify.StatusUnclassified)] != 1 {
		t.Errorf("unclassified count = %v, want 1", summary.ByStatus[string(classify.StatusUnclassified)])
	}
	if summary.Suspect != 1 {
		t.Errorf("Suspect = %v, want 1 (the unclassified document)", summary.Suspect)
	}
	if summary.RunID == "" {
		t.Errorf("RunID empty, want generated id")
	}
}

func TestRunner_WritesJSONL(t *testing.T) {
	inputDir := t.TempDir()
	writeDoc(t, inputDir, "doc-1", "formal complaint filed")

	cfg := config.DefaultClassifierConfig()
	cfg.DataDir = t.TempDir()

	runner, err := NewRunner(testRuleset(t), cfg, nil, quietLogger())
	if err != nil {
		t.Fatalf("NewRunner() error = %v, want nil", err)
	}
	if _, err := runner.Run(context.Background(), inputDir); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	entries, err := filepath.Glob(filepath.Join(cfg.DataDir, "results", "*.jsonl"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("daily JSONL files = %v (err %v), want exactly one", entries, err)
	}

	f, err := os.Open(entries[0])
	if err != nil {
		t.Fatalf("open JSONL: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
		var result classify.Result
		if err := json.Unmarshal(scanner.Bytes(), &result); err != nil {
			t.Fatalf("invalid JSONL line: %v", err)
		}
		if result.DocumentID != "doc-1" {
			t.Errorf("DocumentID = %v, want doc-1", result.DocumentID)
		}
		if result.RulesStatus != classify.StatusClassified {
			t.Errorf("RulesStatus = %v, want classified", result.RulesStatus)
		}
	}
	if lines != 1 {
		t.Errorf("JSONL lines = %v, want 1", lines)
	}
}

func TestRunner_InvalidDocumentCountedNotFatal(t *testing.T) {
	inputDir := t.TempDir()
	writeDoc(t, inputDir, "doc-ok", "formal complaint filed")
	if err := os.WriteFile(filepath.Join(inputDir, "broken.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write broken document: %v", err)
	}

	cfg := config.DefaultClassifierConfig()
	cfg.DataDir = t.TempDir()

	runner, err := NewRunner(testRuleset(t), cfg, nil, quietLogger())
	if err != nil {
		t.Fatalf("NewRunner() error = %v, want nil", err)
	}

	summary, err := runner.Run(context.Background(), inputDir)
	if err != nil {
		t.Fatalf("Run() error = %v, want per-document failures to be non-fatal", err)
	}
	if summary.Failed != 1 {
		t.Errorf("Failed = %v, want 1", summary.Failed)
	}
	if summary.ByStatus[string(classify.StatusClassified)] != 1 {
		t.Errorf("classified count = %v, want 1", summary.ByStatus[string(classify.StatusClassified)])
	}
}

func TestRunner_RejectsOversizedBatch(t *testing.T) {
	inputDir := t.TempDir()
	writeDoc(t, inputDir, "a", "x")
	writeDoc(t, inputDir, "b", "y")

	cfg := config.DefaultClassifierConfig()
	cfg.DataDir = t.TempDir()
	cfg.MaxBatchSize = 1

	runner, err := NewRunner(testRuleset(t), cfg, nil, quietLogger())
	if err != nil {
		t.Fatalf("NewRunner() error = %v, want nil", err)
	}

	if _, err := runner.Run(context.Background(), inputDir); err == nil {
		t.Fatalf("Run() error = nil, want batch size error")
	}
}

func TestRunner_MissingInputDir(t *testing.T) {
	cfg := config.DefaultClassifierConfig()
	cfg.DataDir = t.TempDir()

	runner, err := NewRunner(testRuleset(t), cfg, nil, quietLogger())
	if err != nil {
		t.Fatalf("NewRunner() error = %v, want nil", err)
	}

	if _, err := runner.Run(context.Background(), filepath.Join(cfg.DataDir, "missing")); err == nil {
		t.Fatalf("Run() error = nil, want missing directory error")
	}
}
