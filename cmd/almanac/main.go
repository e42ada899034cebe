package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/almanac/internal/adapters/driving/cli"
	"github.com/custodia-labs/almanac/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func bootstrap(ctx context.Context, configPath string, verbose bool) (*cli.Services, error) {
	a, err := app.New(ctx, app.Options{ConfigPath: configPath, Verbose: verbose})
	if err != nil {
		return nil, err
	}
	return &cli.Services{
		Runner:    a.Runner,
		Scheduler: a.Scheduler,
		Config:    a.Config,
		Settings:  a.Settings,

		AuthorizeGoogle: a.AuthorizeGoogle,
		Close:           a.Close,
	}, nil
}
