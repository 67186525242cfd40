package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/solatis/docketkeeper/internal/core/batch"
	"github.com/solatis/docketkeeper/internal/core/config"
	"github.com/solatis/docketkeeper/internal/core/db"
	"github.com/solatis/docketkeeper/internal/core/store"
	"github.com/solatis/docketkeeper/internal/ruleset"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <input-dir>",
	Short: "Classify a directory of extracted documents",
	Long:  `Compiles the configured ruleset and classifies every document JSON file in the input directory. Results are persisted to the database when --db-url is set, and always appended to daily JSONL files in the data directory.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().String("rules-dir", "", "rules directory (overrides config)")
	classifyCmd.Flags().String("jurisdiction", "", "jurisdiction overlay id (overrides config)")
	classifyCmd.Flags().Int("workers", 0, "worker pool size (overrides config)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("rules-dir") {
		cfg.RulesDir, _ = cmd.Flags().GetString("rules-dir")
	}
	if cmd.Flags().Changed("jurisdiction") {
		cfg.Jurisdiction, _ = cmd.Flags().GetString("jurisdiction")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rs, err := ruleset.Load(cfg.RulesDir, cfg.Jurisdiction)
	if err != nil {
		return err
	}

	var st *store.Store
	if dbURL != "" {
		database, err := db.Open(dbURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		queries, err := db.LoadQueries(database)
		if err != nil {
			return fmt.Errorf("failed to load queries: %w", err)
		}
		st = store.New(queries)
	}

	runner, err := batch.NewRunner(rs, cfg, st, log)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("interrupt received, draining in-flight documents")
		cancel()
	}()

	summary, err := runner.Run(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run:        %s\n", summary.RunID)
	fmt.Printf("Ruleset:    %s\n", summary.Ruleset)
	fmt.Printf("Documents:  %d\n", summary.Total)
	statuses := make([]string, 0, len(summary.ByStatus))
	for status := range summary.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Printf("  %-22s %d\n", status+":", summary.ByStatus[status])
	}
	fmt.Printf("Suspect:    %d\n", summary.Suspect)
	if summary.Failed > 0 {
		fmt.Printf("Failed:     %d\n", summary.Failed)
	}
	fmt.Printf("Duration:   %s\n", summary.Duration)

	return nil
}
