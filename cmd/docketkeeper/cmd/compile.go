package cmd

import (
	"fmt"

	"github.com/solatis/docketkeeper/internal/core/config"
	"github.com/solatis/docketkeeper/internal/ruleset"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile and validate a layered ruleset",
	Long:  `Compiles the core ruleset with an optional jurisdiction overlay, validates every rule, and prints the ruleset hash and any warnings.`,
	RunE:  runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().String("rules-dir", "", "rules directory (overrides config)")
	compileCmd.Flags().String("jurisdiction", "", "jurisdiction overlay id (overrides config)")
}

func runCompile(cmd *cobra.Command, args []string) error {
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

	rs, err := ruleset.Load(cfg.RulesDir, cfg.Jurisdiction)
	if err != nil {
		return err
	}

	fmt.Printf("Ruleset hash:  %s\n", rs.Hash)
	fmt.Printf("Jurisdiction:  %s\n", rs.Provenance.JurisdictionID)
	fmt.Printf("Core version:  %s\n", rs.Provenance.CoreVersion)
	if rs.Provenance.OverlayVersion != "" {
		fmt.Printf("Overlay:       %s\n", rs.Provenance.OverlayVersion)
	}
	fmt.Printf("Classes:       %d\n", len(rs.ClassOrder))
	fmt.Printf("Procedures:    %d\n", len(rs.ProcedureOrder))
	fmt.Printf("Tie-breakers:  %d\n", len(rs.TieBreakers))
	fmt.Printf("Equivalences:  %d\n", len(rs.Equivalences))
	fmt.Printf("Discard rules: %d\n", len(rs.DiscardRules))

	if len(rs.Warnings) > 0 {
		fmt.Printf("\n%d warning(s):\n", len(rs.Warnings))
		for _, w := range rs.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	return nil
}
