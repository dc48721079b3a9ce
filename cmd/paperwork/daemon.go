package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/certs"
	"github.com/Veraticus/the-paperwork-must-flow/internal/cli"
	"github.com/Veraticus/the-paperwork-must-flow/internal/config"
	"github.com/Veraticus/the-paperwork-must-flow/internal/engine"
	"github.com/Veraticus/the-paperwork-must-flow/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func daemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run analysis, detection and reminders on a schedule",
		Long: `Run the full cycle (analyze patterns, detect missing documents, send due
reminders) on the cron schedule in daemon.schedule, default every morning
at 08:00. With metrics.address set, Prometheus metrics are served on
/metrics, over HTTPS with a self-signed certificate when metrics.tls is
set. Stop with Ctrl+C.`,
		RunE: runDaemon,
	}

	cmd.Flags().Bool("once", false, "run a single cycle and exit")

	return cmd
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	once, _ := cmd.Flags().GetBool("once")

	daemonConfig, err := config.LoadDaemonConfig()
	if err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Finishing the current cycle before exit")
	ctx := handler.HandleInterrupts(cmd.Context())

	db, cleanup, err := getDatabase(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	observer, err := metrics.NewPrometheusObserver("", nil)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	eng, err := newEngine(db, observer, nil)
	if err != nil {
		return err
	}

	cal, err := buildCalendar(ctx)
	if err != nil {
		return err
	}
	opts := engine.RemindOptions{
		Calendar:        cal,
		RespectSettings: viper.GetBool("reminders.respect_settings"),
	}

	if once {
		return runCycle(ctx, eng, opts)
	}

	if daemonConfig.MetricsAddress != "" {
		server, err := serveMetrics(daemonConfig)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Warn("Metrics server shutdown failed", "error", err)
			}
		}()
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(daemonConfig.Schedule, func() {
		if err := runCycle(ctx, eng, opts); err != nil && ctx.Err() == nil {
			slog.Error("Scheduled cycle failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", daemonConfig.Schedule, err)
	}

	if daemonConfig.RunOnStart {
		if err := runCycle(ctx, eng, opts); err != nil && ctx.Err() == nil {
			slog.Error("Startup cycle failed", "error", err)
		}
	}

	scheduler.Start()
	slog.Info("Daemon started", "schedule", daemonConfig.Schedule, "metrics", daemonConfig.MetricsAddress)

	<-ctx.Done()
	<-scheduler.Stop().Done()

	if handler.WasInterrupted() {
		slog.Info("Daemon stopped")
	}
	return nil
}

// runCycle runs one full cycle and logs its outcome.
func runCycle(ctx context.Context, eng *engine.Engine, opts engine.RemindOptions) error {
	cycle, err := eng.RunCycle(ctx, opts)
	if err != nil {
		return err
	}

	attrs := []any{
		"streams", cycle.Analysis.Streams,
		"missing", cycle.Detection.Detected,
		"overdue", cycle.Detection.Overdue,
		"resolved", cycle.Detection.Resolved,
		"reminders", cycle.Reminders.Batch.TotalReminders,
	}
	if result := cycle.Reminders.Result; result != nil {
		attrs = append(attrs, "sent", result.Sent, "failed", result.Failed)
	}
	slog.Info("Cycle complete", attrs...)
	return nil
}

func serveMetrics(daemonConfig *config.DaemonConfig) (*http.Server, error) {
	addr := daemonConfig.MetricsAddress
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	if daemonConfig.MetricsTLS {
		tlsConfig, err := certs.TLSConfig(certs.NewFileManager(daemonConfig.CertDir, daemonConfig.MetricsHosts...))
		if err != nil {
			return nil, fmt.Errorf("failed to load metrics certificate: %w", err)
		}
		server.TLSConfig = tlsConfig
	}

	go func() {
		var err error
		if server.TLSConfig != nil {
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "address", addr, "error", err)
		}
	}()
	return server, nil
}
