package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*ClassifierConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultClassifierConfig
	v.SetDefault("classifier.rules_dir", "./rules")
	v.SetDefault("classifier.jurisdiction", "core")
	v.SetDefault("classifier.data_dir", "./data")
	v.SetDefault("classifier.workers", 4)
	v.SetDefault("classifier.max_batch_size", 1000)

	// Bind environment variables with DK_ prefix
	v.SetEnvPrefix("DK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &ClassifierConfig{
		RulesDir:     v.GetString("classifier.rules_dir"),
		Jurisdiction: v.GetString("classifier.jurisdiction"),
		DataDir:      v.GetString("classifier.data_dir"),
		Workers:      v.GetInt("classifier.workers"),
		MaxBatchSize: v.GetInt("classifier.max_batch_size"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
