package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tahisis/core-go/internal/config"
	"tahisis/core-go/internal/db"
	"tahisis/core-go/internal/estates"
	"tahisis/core-go/internal/export"
	"tahisis/core-go/internal/exportworker"
	"tahisis/core-go/internal/httpapi"
	"tahisis/core-go/internal/marker"
	"tahisis/core-go/internal/metrics"
	"tahisis/core-go/internal/settings"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "tahisis",
		Short:         "Census settlement map service and GeoJSON exporter",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(markerCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig layers changed flags over the file and environment config.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.HTTPAddr, _ = flags.GetString("addr")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL, _ = flags.GetString("database-url")
	}
	if flags.Changed("dir") {
		cfg.ExportDir, _ = flags.GetString("dir")
	}
	if flags.Changed("export-interval") {
		cfg.ExportInterval, _ = flags.GetDuration("export-interval")
	}
	return cfg, cfg.Validate()
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when configured, the scheduled exporter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().String("addr", "", "HTTP listen address")
	cmd.Flags().String("log-level", "", "log level")
	cmd.Flags().String("database-url", "", "census database URL")
	cmd.Flags().String("dir", "", "directory for scheduled export snapshots")
	cmd.Flags().Duration("export-interval", 0, "interval between scheduled exports (0 disables)")
	return cmd
}

func runServe(cfg config.Config) error {
	logger := httpapi.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var pool *db.Pool
	if cfg.DatabaseURL != "" {
		p, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer p.Close()
		pool = p
	}

	var store settings.Store
	if cfg.SettingsDBPath != "" {
		st, err := settings.OpenSQLite(cfg.SettingsDBPath)
		if err != nil {
			return fmt.Errorf("open settings store: %w", err)
		}
		defer st.Close()
		store = st
	}

	var colorTable *estates.ColorTable
	if pool != nil {
		colorTable = estates.NewColorTable(logger, pool.Queries(), m)

		if cfg.ExportEnabled() {
			exp := export.New(logger, pool.Queries(), export.Options{
				BatchSize: cfg.ExportBatch,
				Colors:    colorTable,
				Metrics:   m,
			})
			worker := exportworker.New(logger, exp, exportworker.Options{
				Dir:        cfg.ExportDir,
				Interval:   cfg.ExportInterval,
				MaxRuntime: cfg.ExportTimeout,
				Metrics:    m,
			})
			go worker.Run(ctx)
		}
	} else if cfg.ExportEnabled() {
		logger.Warn().Msg("scheduled export configured without a database; disabled")
	}

	h := httpapi.NewHandler(logger, pool, httpapi.Options{
		Metrics:         m,
		Settings:        store,
		Colors:          colorTable,
		ExportBatchSize: cfg.ExportBatch,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("tahisis listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
	return nil
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every non-empty census table to GeoJSON files once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("dir", "", "output directory")
	cmd.Flags().String("database-url", "", "census database URL")
	cmd.Flags().String("log-level", "", "log level")
	return cmd
}

func runExport(ctx context.Context, cfg config.Config, out io.Writer) error {
	if cfg.DatabaseURL == "" {
		return errors.New("database url is required")
	}
	if cfg.ExportDir == "" {
		return exportworker.ErrNoDir
	}
	logger := httpapi.NewLogger(cfg.LogLevel)

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	q := pool.Queries()
	exp := export.New(logger, q, export.Options{
		BatchSize: cfg.ExportBatch,
		Colors:    estates.NewColorTable(logger, q, nil),
	})
	snap, err := exportworker.New(logger, exp, exportworker.Options{
		Dir:        cfg.ExportDir,
		MaxRuntime: cfg.ExportTimeout,
	}).RunOnce(ctx)
	if err != nil {
		return err
	}
	return printSnapshot(out, cfg.ExportDir, snap)
}

func printSnapshot(out io.Writer, dir string, snap exportworker.Snapshot) error {
	_, err := fmt.Fprintf(out, "exported %d records from %d of %d tables to %s\n",
		snap.Summary.TotalRecords, snap.Summary.SuccessfulExports, snap.Summary.TotalTables, dir)
	return err
}

func markerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "marker [color:population]...",
		Short: "Render a settlement marker to stdout",
		Example: `  tahisis marker "hsl(120, 50%, 40%):120" "hsl(30, 70%, 50%):45"
  tahisis marker`,
		RunE: func(cmd *cobra.Command, args []string) error {
			slices, err := parseSlices(args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), marker.Generate(slices))
			return err
		},
	}
}

// parseSlices reads "color:population" pairs. The colour may itself
// contain colons, so the count is taken after the last one.
func parseSlices(args []string) ([]marker.Slice, error) {
	slices := make([]marker.Slice, 0, len(args))
	for _, arg := range args {
		i := strings.LastIndex(arg, ":")
		if i <= 0 {
			return nil, fmt.Errorf("slice %q: want color:population", arg)
		}
		pop, err := strconv.ParseFloat(strings.TrimSpace(arg[i+1:]), 64)
		if err != nil {
			return nil, fmt.Errorf("slice %q: population: %w", arg, err)
		}
		slices = append(slices, marker.Slice{Color: strings.TrimSpace(arg[:i]), Population: pop})
	}
	return slices, nil
}
