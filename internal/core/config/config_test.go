// internal/core/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultClassifierConfig(t *testing.T) {
	cfg := DefaultClassifierConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Jurisdiction != "core" {
		t.Errorf("Jurisdiction = %v, want core", cfg.Jurisdiction)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %v, want 4", cfg.Workers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClassifierConfig)
		wantErr bool
	}{
		{"valid defaults", func(cfg *ClassifierConfig) {}, false},
		{"empty rules dir", func(cfg *ClassifierConfig) { cfg.RulesDir = "" }, true},
		{"empty jurisdiction", func(cfg *ClassifierConfig) { cfg.Jurisdiction = "" }, true},
		{"zero workers", func(cfg *ClassifierConfig) { cfg.Workers = 0 }, true},
		{"negative workers", func(cfg *ClassifierConfig) { cfg.Workers = -1 }, true},
		{"zero batch size", func(cfg *ClassifierConfig) { cfg.MaxBatchSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClassifierConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}
	if cfg.Jurisdiction != "core" {
		t.Errorf("Jurisdiction = %v, want default core", cfg.Jurisdiction)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `classifier:
  rules_dir: /etc/docketkeeper/rules
  jurisdiction: nl
  workers: 8
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}
	if cfg.RulesDir != "/etc/docketkeeper/rules" {
		t.Errorf("RulesDir = %v, want file value", cfg.RulesDir)
	}
	if cfg.Jurisdiction != "nl" {
		t.Errorf("Jurisdiction = %v, want nl", cfg.Jurisdiction)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %v, want 8", cfg.Workers)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("DK_CLASSIFIER_JURISDICTION", "be")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}
	if cfg.Jurisdiction != "be" {
		t.Errorf("Jurisdiction = %v, want env override be", cfg.Jurisdiction)
	}
}
