package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/almanac/internal/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Sync configured integrations on an interval",
	Long: `Runs a sync pass immediately and then every schedule_interval until
interrupted. Integrations run one after another; the list comes from the
integrations setting, or every configured integration when it is empty.`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if svc == nil || svc.Scheduler == nil {
		return errors.New("scheduler not configured")
	}

	cmd.Printf("Scheduling sync every %s. Press Ctrl+C to stop.\n", svc.Settings.ScheduleInterval)
	err := svc.Scheduler.Start(cmd.Context())
	if errors.Is(err, context.Canceled) {
		logger.Info("Scheduler stopped")
		return nil
	}
	return err
}
