package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

var (
	runsIntegration string
	runsStatus      string
	runsLimit       int
	sweepOlderThan  time.Duration
)

var (
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect integration runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE:  runRunsList,
}

var runsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Fail runs left in progress by a crashed process",
	RunE:  runRunsSweep,
}

func init() {
	runsListCmd.Flags().StringVarP(&runsIntegration, "integration", "i", "", "only runs of this integration")
	runsListCmd.Flags().StringVarP(&runsStatus, "status", "s", "", "only runs with this status (in_progress, success, fail)")
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs")
	runsSweepCmd.Flags().DurationVar(&sweepOlderThan, "older-than", 0, "age after which a run is orphaned (default orphan_timeout)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsSweepCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	runner, err := requireRunner()
	if err != nil {
		return err
	}

	filter := domain.RunFilter{Limit: runsLimit}
	if runsIntegration != "" {
		it, err := domain.ParseIntegrationType(runsIntegration)
		if err != nil {
			return err
		}
		filter.Integration = it
	}
	if runsStatus != "" {
		status := domain.RunStatus(runsStatus)
		if !status.IsValid() {
			return fmt.Errorf("%w: status %q", domain.ErrInvalidInput, runsStatus)
		}
		filter.Status = status
	}

	runs, err := runner.ListRuns(cmd.Context(), filter)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	cmd.Println(headerStyle.Render(fmt.Sprintf("%-36s  %-18s  %-4s  %-11s  %-20s  %8s  %s",
		"RUN", "INTEGRATION", "TYPE", "STATUS", "STARTED", "CREATED", "MESSAGE")))
	for i := range runs {
		r := &runs[i]
		message := ""
		if r.Message != nil {
			message = *r.Message
		}
		cmd.Printf("%-36s  %-18s  %-4s  %s  %-20s  %8d  %s\n",
			r.ID, r.Integration, r.RunType,
			renderStatus(r.Status),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.EntriesCreated, message)
	}
	return nil
}

// renderStatus pads before styling so escape codes do not break alignment.
func renderStatus(s domain.RunStatus) string {
	padded := fmt.Sprintf("%-11s", s)
	switch s {
	case domain.RunStatusSuccess:
		return successStyle.Render(padded)
	case domain.RunStatusFail:
		return failStyle.Render(padded)
	default:
		return progressStyle.Render(padded)
	}
}

func runRunsSweep(cmd *cobra.Command, _ []string) error {
	runner, err := requireRunner()
	if err != nil {
		return err
	}
	olderThan := sweepOlderThan
	if olderThan == 0 {
		olderThan = svc.Settings.OrphanTimeout
	}

	n, err := runner.SweepOrphans(cmd.Context(), olderThan)
	if err != nil {
		return err
	}
	cmd.Printf("Marked %d orphaned run(s) as failed.\n", n)
	return nil
}
