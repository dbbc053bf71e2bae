package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/friendsincode/revisionplanner/internal/config"
	"github.com/friendsincode/revisionplanner/internal/logging"
	"github.com/friendsincode/revisionplanner/internal/server"
	"github.com/friendsincode/revisionplanner/internal/telemetry"
	"github.com/friendsincode/revisionplanner/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config

	configFile   string
	portOverride int
	checkUpdates bool
)

var rootCmd = &cobra.Command{
	Use:   "revisionplanner",
	Short: "Revision Planner - spaced repetition study schedules",
	Long:  "Revision Planner turns a list of topics and a deadline into discovery and +1/+3/+7 day revision sessions fitted into daily time slots.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the planner HTTP API",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	RunE:  runVersion,
}

func init() {
	bindServeFlags(serveCmd.Flags())
	versionCmd.Flags().BoolVar(&checkUpdates, "check", false, "query GitHub for a newer release")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func bindServeFlags(fs *pflag.FlagSet) {
	fs.StringVar(&configFile, "config", "", "YAML file with planner defaults (overrides PLANNER_CONFIG_FILE)")
	fs.IntVarP(&portOverride, "port", "p", 0, "HTTP port (overrides PLANNER_HTTP_PORT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration, applying command line overrides.
func loadConfig() error {
	if configFile != "" {
		if err := os.Setenv("PLANNER_CONFIG_FILE", configFile); err != nil {
			return fmt.Errorf("set config file: %w", err)
		}
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if portOverride != 0 {
		cfg.HTTPPort = portOverride
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Str("version", version.Version).Str("timezone", cfg.Timezone).Msg("Revision Planner starting")

	tracerProvider, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "revisionplanner",
		ServiceVersion: version.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	serve := func(name string, s *http.Server) {
		logger.Info().Str("addr", s.Addr).Msg(name + " listening")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg(name + " error")
		}
	}
	go serve("HTTP server", srv.HTTPServer())
	if ms := srv.MetricsServer(); ms != nil {
		go serve("metrics server", ms)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gracefully...")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("Revision Planner stopped")
	return nil
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "revisionplanner %s\n", version.Version)
	if !checkUpdates {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	info, err := version.CheckLatest(ctx, nil, version.DefaultAPIBase)
	if err != nil {
		return fmt.Errorf("check for updates: %w", err)
	}
	if info.UpdateAvailable {
		fmt.Fprintf(out, "update available: %s (%s)\n", info.LatestVersion, info.ReleaseURL)
	} else {
		fmt.Fprintln(out, "up to date")
	}
	return nil
}
