package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fileops/notifyd/internal/api"
	"github.com/fileops/notifyd/internal/build"
	"github.com/fileops/notifyd/internal/config"
	"github.com/fileops/notifyd/internal/eventbus"
	"github.com/fileops/notifyd/internal/logger"
	"github.com/fileops/notifyd/internal/notification"
	"github.com/fileops/notifyd/internal/scheduler"
	"github.com/fileops/notifyd/internal/server"
	"github.com/fileops/notifyd/internal/service"
	"github.com/fileops/notifyd/internal/storage"
	"github.com/fileops/notifyd/internal/telemetry"
	"github.com/fileops/notifyd/internal/templates"
	"github.com/fileops/notifyd/internal/webhook"
)

// drainTimeout bounds how long in-flight deliveries may run after shutdown
// is requested before their context is cancelled.
const drainTimeout = 15 * time.Second

// NewServeCmd returns the "serve" subcommand that starts the daemon.
func NewServeCmd() *cobra.Command {
	var port int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the notification daemon",
		Long: `Start the HTTP API, the delivery workers and the stale delivery monitor.
Configuration is read from the environment; flags override it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			logFile := filepath.Join(cfg.LogDir(), "system.log")
			printBanner(cmd, build.Version, fmt.Sprintf("http://localhost:%d", cfg.Port), logFile)

			if err := runServe(cfg, verbose); err != nil {
				return fmt.Errorf("%w (see %s)", err, logFile)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8990, "HTTP server port (overrides PORT env var)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also write logs to stderr")

	return cmd
}

func runServe(cfg *config.AppConfig, verbose bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, dir := range []string{cfg.DataDir, cfg.LogDir()} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	var echo io.Writer
	if verbose {
		echo = os.Stderr
	}
	sysLogger, logCloser, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel(), echo)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logCloser.Close() //nolint:errcheck
	slog.SetDefault(sysLogger)

	sysLogger.Info("notifyd starting",
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, "notifyd", build.Version)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			sysLogger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return err
	}
	defer metrics.Shutdown(context.Background()) //nolint:errcheck

	db, fresh, err := storage.NewSQLiteDB(cfg.DBFile())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck
	if fresh {
		sysLogger.Info("created new database", "path", cfg.DBFile())
	}

	webhookStore := storage.NewSQLiteWebhookStore(db)
	deliveryStore := storage.NewSQLiteDeliveryStore(db)
	auditStore := storage.NewSQLiteAuditStore(db)
	notificationStore := storage.NewSQLiteNotificationStore(db)

	registry := templates.NewRegistry()
	loaded, err := registry.LoadFile(cfg.TemplatesFile)
	if err != nil {
		return err
	}
	if loaded > 0 {
		sysLogger.Info("loaded notification templates", "path", cfg.TemplatesFile, "count", loaded)
	}

	var provider notification.Provider
	if cfg.SMTP.Enabled() {
		provider = notification.NewSMTPProvider(cfg.SMTP)
		sysLogger.Info("email channel enabled", "host", cfg.SMTP.Host)
	} else {
		sysLogger.Info("email channel disabled: SMTP_HOST not set")
	}
	handler := notification.NewHandler(registry, provider, notificationStore, sysLogger)

	dispatcher := webhook.NewDispatcher(cfg.Webhook(), webhookStore, deliveryStore, auditStore,
		webhook.WithMetrics(metrics),
		webhook.WithLogger(sysLogger),
	)

	// Deliveries keep running for a grace period after shutdown begins.
	deliveryCtx, cancelDeliveries := context.WithCancel(context.Background())
	defer cancelDeliveries()

	bus := eventbus.New(0, 0, sysLogger)
	bus.Subscribe(service.NewDeliveryListener(deliveryCtx, handler, dispatcher, sysLogger))

	sched, err := scheduler.New(scheduler.Config{
		Deliveries: deliveryStore,
		Logger:     sysLogger,
		Gauge:      metrics,
		StaleAfter: cfg.DeliveryStaleAfter,
	})
	if err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			sysLogger.Warn("scheduler shutdown failed", "error", err)
		}
	}()

	notificationSvc := service.NewNotificationService(bus, deliveryStore, notificationStore, auditStore)
	webhookSvc := service.NewWebhookService(webhookStore, dispatcher, auditStore)
	templateSvc := service.NewTemplateService(registry)

	apiSrv := api.New(notificationSvc, webhookSvc, templateSvc, sysLogger)
	srv := server.New(apiSrv, server.Config{
		Port:        cfg.Port,
		Metrics:     metrics.Handler(),
		HealthCheck: db.PingContext,
	}, sysLogger)

	runErr := srv.Run(ctx)

	sysLogger.Info("draining pending deliveries", "timeout", drainTimeout)
	timer := time.AfterFunc(drainTimeout, cancelDeliveries)
	bus.Close()
	timer.Stop()
	sysLogger.Info("notifyd stopped")

	return runErr
}

var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Padding(0, 2).
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63"))

// printBanner writes the startup banner to stdout. Structured logs go to the
// log file unless --verbose is set.
func printBanner(cmd *cobra.Command, version, serverURL, logFile string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bannerStyle.Render("notifyd "+version))
	fmt.Fprintf(out, "API:     %s/api\n", serverURL)
	fmt.Fprintf(out, "Metrics: %s/metrics\n", serverURL)
	fmt.Fprintf(out, "Logs:    %s\n\n", logFile)
}
