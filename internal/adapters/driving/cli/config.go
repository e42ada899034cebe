package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show resolved settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Stores a value in the config file. Keys use dots for sections,
for example github.login or browser.history_path. Integer and boolean
values are stored typed.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if svc == nil || svc.Config == nil {
		return errors.New("config store not configured")
	}
	s := svc.Settings

	cmd.Printf("Config file: %s\n", svc.Config.Path())
	cmd.Println()

	cmd.Println("[Engine]")
	cmd.Printf("  Data dir: %s\n", orDefault(s.DataDir, "~/.almanac/data"))
	cmd.Printf("  Orphan timeout: %s\n", s.OrphanTimeout)
	cmd.Printf("  Page delay: %s\n", s.PageDelay)
	cmd.Printf("  Rate limit fallback: %s\n", s.RateLimitFallback)
	cmd.Printf("  Enrichment concurrency: %d\n", s.EnrichmentConcurrency)
	cmd.Printf("  Schedule interval: %s\n", s.ScheduleInterval)
	cmd.Printf("  Sweep on start: %t\n", s.SweepOnStart)
	cmd.Println()

	cmd.Println("[GitHub]")
	cmd.Printf("  Login: %s\n", orDefault(s.GitHub.Login, "(not set)"))
	cmd.Printf("  Token: %s\n", maskSecret(s.GitHub.Token))
	cmd.Println()

	cmd.Println("[Google]")
	cmd.Printf("  Client ID: %s\n", orDefault(s.Google.ClientID, "(not set)"))
	cmd.Printf("  Refresh token: %s\n", maskSecret(s.Google.RefreshToken))
	cmd.Printf("  Folder: %s\n", orDefault(s.Google.FolderID, "(all)"))
	cmd.Println()

	cmd.Println("[Browser]")
	cmd.Printf("  Kind: %s\n", s.Browser.Kind)
	cmd.Printf("  History: %s\n", orDefault(s.Browser.HistoryPath, "(not set)"))
	cmd.Printf("  Hostname: %s\n", s.Browser.Hostname)
	cmd.Println()

	if svc.Runner != nil {
		cmd.Println("[Integrations]")
		for _, it := range svc.Runner.Registered() {
			cmd.Printf("  %s\n", it)
		}
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if svc == nil || svc.Config == nil {
		return errors.New("config store not configured")
	}
	key, raw := args[0], args[1]

	if err := svc.Config.Set(key, parseValue(raw)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	if _, err := svc.Config.Settings(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	}
	cmd.Printf("Set %s in %s\n", key, svc.Config.Path())
	return nil
}

// parseValue keeps integers and booleans typed in the TOML file.
func parseValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return strings.Repeat("*", len(s))
	default:
		return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
	}
}
