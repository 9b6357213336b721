// Command workspaced runs the tasking workspace state layer as a
// long-lived process: it loads the working schedule, keeps the lock
// manager and selection coordinator alive for attached frontends, and
// exposes Prometheus metrics. Scene rendering is the frontend's job;
// this process owns the state those frontends share.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/tasking-workspace/internal/config"
	"github.com/signalsfoundry/tasking-workspace/internal/lockapi"
	"github.com/signalsfoundry/tasking-workspace/internal/lockstate"
	"github.com/signalsfoundry/tasking-workspace/internal/logging"
	"github.com/signalsfoundry/tasking-workspace/internal/notify"
	"github.com/signalsfoundry/tasking-workspace/internal/observability"
	"github.com/signalsfoundry/tasking-workspace/internal/selection"
)

func main() {
	configPath := flag.String("config", "configs/workspace.yaml", "Path to the workspace YAML configuration")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (overrides config)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load configuration", logging.String("path", *configPath), logging.Err(err))
		os.Exit(1)
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		log.Error(ctx, "invalid configuration", logging.Err(err))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}

	collector, err := observability.NewWorkspaceCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = serveMetrics(cfg.Metrics.Addr, collector, log)
	}

	center := notify.NewCenter()
	go logNotifications(ctx, center, log)

	client, err := lockapi.NewClient(cfg.API.BaseURL, log,
		lockapi.WithHTTPClient(&http.Client{Timeout: cfg.GetAPITimeout()}),
		lockapi.WithLatencyRecorder(collector),
	)
	if err != nil {
		log.Error(ctx, "failed to construct lock API client", logging.Err(err))
		os.Exit(1)
	}

	manager := lockstate.NewManager(client, center, log,
		lockstate.WithMetricsRecorder(collector),
	)
	seedSchedule(ctx, cfg.Schedule.ID, client, manager, log)

	coordinator := selection.NewCoordinator(log)
	go logSelections(ctx, coordinator, log)

	log.Info(ctx, "workspace ready",
		logging.String("schedule", cfg.Schedule.ID),
		logging.String("api", cfg.API.BaseURL),
	)

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down workspace")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(shutdownCtx, shutdownTracing, log)
}

func serveMetrics(addr string, collector *observability.WorkspaceCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// seedSchedule primes the lock manager with the confirmed lock levels
// of the working schedule. A failed load is survivable; the manager
// starts empty and converges as mutations confirm.
func seedSchedule(ctx context.Context, scheduleID string, client *lockapi.Client, manager *lockstate.Manager, log logging.Logger) {
	acqs, err := client.ListAcquisitions(ctx, scheduleID)
	if err != nil {
		log.Warn(ctx, "failed to load schedule; starting with empty lock state",
			logging.String("schedule", scheduleID),
			logging.Err(err),
		)
		return
	}
	manager.Seed(acqs)
	log.Info(ctx, "seeded lock state",
		logging.String("schedule", scheduleID),
		logging.Int("acquisitions", len(acqs)),
	)
}

func logNotifications(ctx context.Context, center *notify.Center, log logging.Logger) {
	events, unsubscribe := center.Subscribe(64)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-events:
			if !ok {
				return
			}
			log.Info(ctx, "notification",
				logging.String("severity", string(n.Severity)),
				logging.String("message", n.Message),
			)
		}
	}
}

func logSelections(ctx context.Context, coordinator *selection.Coordinator, log logging.Logger) {
	events, unsubscribe := coordinator.Subscribe(64)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case sel, ok := <-events:
			if !ok {
				return
			}
			log.Debug(ctx, "selection changed",
				logging.String("kind", string(sel.Kind)),
				logging.String("id", sel.SelectedID()),
				logging.String("origin", string(sel.Origin)),
			)
		}
	}
}
