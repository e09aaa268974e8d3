package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/vetref-api/config"
	"github.com/giygas/vetref-api/data"
	"github.com/giygas/vetref-api/health"
	"github.com/giygas/vetref-api/logging"
	"github.com/giygas/vetref-api/registry"
	"github.com/giygas/vetref-api/scheduler"
	"github.com/giygas/vetref-api/server"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout       = 30 * time.Second
	rateLimiterSweepEvery = 30 * time.Minute
)

func serveCmd(opts *options) *cobra.Command {
	var verbose bool

	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.dataFile != "" {
				cfg.RegistryFile = opts.dataFile
			}

			logOpts := logging.OptionsFromConfig(cfg)
			logOpts.Verbose = verbose
			if err := logging.InitLogger(logOpts); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			defer logging.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	c.Flags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to the console")
	return c
}

// run loads the registry, starts the scheduler and serves until ctx is done
func run(ctx context.Context, cfg *config.Config) error {
	store := data.NewDataContainer()
	store.SetServerStartTime(time.Now())

	loader := registry.NewFileLoader(cfg.RegistryFile)
	sched := scheduler.NewScheduler(store, loader, time.Duration(cfg.RegistryReloadMinutes)*time.Minute)
	srv := server.NewServer(cfg, store, health.NewHealthChecker(store, sched))
	sched.AddSweep("rate-limiter", rateLimiterSweepEvery, srv.RateLimiter())

	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.Error("Server failed", "error", err)
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
