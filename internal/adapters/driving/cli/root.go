// Package cli is the cobra command tree of almanac.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
	"github.com/custodia-labs/almanac/internal/core/ports/driving"
	"github.com/custodia-labs/almanac/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// Services are what the commands drive.
type Services struct {
	Runner    driving.IntegrationRunner
	Scheduler driving.Scheduler
	Config    driven.ConfigStore
	Settings  domain.Settings

	// AuthorizeGoogle runs the Drive consent flow and returns a refresh token.
	// open receives the consent URL. May be nil.
	AuthorizeGoogle func(ctx context.Context, open func(url string) error) (string, error)

	// Close releases the services. May be nil.
	Close func() error
}

// BootstrapFunc builds the services once flags are parsed.
type BootstrapFunc func(ctx context.Context, configPath string, verbose bool) (*Services, error)

var (
	configPath string
	verbose    bool

	bootstrap BootstrapFunc
	svc       *Services
)

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "almanac",
	Short: "Ingest personal activity into a local canonical store",
	Long: `almanac syncs commits, stars, Drive documents and browser history
into a local SQLite store. Every sync is recorded as an integration run.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.almanac/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// Execute runs the root command under ctx and releases bootstrapped services.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, teardown())
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if cmd.Annotations[skipBootstrap] == "true" || svc != nil {
		return nil
	}
	if bootstrap == nil {
		return errors.New("services not configured")
	}

	s, err := bootstrap(cmd.Context(), configPath, verbose)
	if err != nil {
		return err
	}
	svc = s

	if svc.Settings.SweepOnStart {
		if _, err := svc.Runner.SweepOrphans(cmd.Context(), svc.Settings.OrphanTimeout); err != nil {
			return fmt.Errorf("sweep on start: %w", err)
		}
	}
	return nil
}

// teardown releases bootstrapped services.
func teardown() error {
	if svc == nil || svc.Close == nil {
		return nil
	}
	err := svc.Close()
	svc = nil
	return err
}

func requireRunner() (driving.IntegrationRunner, error) {
	if svc == nil || svc.Runner == nil {
		return nil, errors.New("runner not configured")
	}
	return svc.Runner, nil
}

// parseIntegrations parses integration arguments. None means every registered one.
func parseIntegrations(args []string) ([]domain.IntegrationType, error) {
	var out []domain.IntegrationType
	for _, arg := range args {
		it, err := domain.ParseIntegrationType(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}
