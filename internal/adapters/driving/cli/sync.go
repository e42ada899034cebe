package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync [integration...]",
	Short: "Incrementally sync integrations",
	Long: `Fetches only what lies beyond each integration's stored boundary.
With no arguments every configured integration is synced in dependency order.
Integrations: github_commits, github_stars, github_enrichment, google_drive,
browser_history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrations(cmd, args, domain.RunTypeSync)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [integration...]",
	Short: "Backfill the full history of integrations",
	Long: `Ignores any stored boundary and fetches full history. Records already
stored are merged, so seeding again is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrations(cmd, args, domain.RunTypeSeed)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(seedCmd)
}

func runIntegrations(cmd *cobra.Command, args []string, runType domain.RunType) error {
	runner, err := requireRunner()
	if err != nil {
		return err
	}
	integrations, err := parseIntegrations(args)
	if err != nil {
		return err
	}
	if len(integrations) == 0 && len(runner.Registered()) == 0 {
		cmd.Println("No integrations configured.")
		return nil
	}

	results, runErr := runner.RunAll(cmd.Context(), integrations, runType)
	for _, r := range results {
		cmd.Printf("%-18s %s  %d created in %s (run %s)\n",
			r.Integration, r.RunType, r.EntriesCreated, r.Duration.Round(time.Millisecond), r.RunID)
	}
	if runErr != nil {
		return fmt.Errorf("%s failed: %w", runType, runErr)
	}
	return nil
}
