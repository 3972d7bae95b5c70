package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conflictdash/internal/api"
	"conflictdash/internal/config"
	"conflictdash/internal/dashboard"
	"conflictdash/internal/engine"
	"conflictdash/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X conflictdash/internal/cli.Version=...".
var Version = "dev"

const shutdownTimeout = 10 * time.Second

// rootCmd loads the dataset and serves the dashboard API
var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Conflict events dashboard API",
	Long: `Loads the armed conflict event table once at startup and serves the
dashboard views over HTTP.

Configuration comes from CONFLICTDASH_* environment variables and an
optional YAML file named by CONFLICTDASH_CONFIG.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          serve,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "conflictdash %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load the table; the server never starts without it
	log.Info("loading dataset", "url", cfg.Dataset.URL, "file", cfg.Dataset.File)
	store, stats, err := engine.Load(ctx, engine.Source{
		URL:      cfg.Dataset.URL,
		File:     cfg.Dataset.File,
		Timeout:  cfg.Dataset.Timeout,
		MaxBytes: cfg.Dataset.MaxBytes,
	})
	if err != nil {
		log.Error("dataset load failed", "error", err)
		return err
	}
	log.Info("dataset loaded", "rows", stats.Rows, "dropped", stats.Dropped, "elapsed", stats.Elapsed)

	// 2. Wire the service and the HTTP server
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svc := dashboard.NewService(store, cfg.Cache.TTL, cfg.Cache.CleanupInterval, dashboard.NewMetrics(reg), log)
	e, err := api.NewServer(cfg, svc, reg, log)
	if err != nil {
		return err
	}

	// 3. Serve until interrupted
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()
	log.Info("server ready", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
