package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mblcrm/lendgate/internal/adapter/docintel"
	"github.com/mblcrm/lendgate/internal/adapter/einverify"
	lghttp "github.com/mblcrm/lendgate/internal/adapter/http"
	"github.com/mblcrm/lendgate/internal/adapter/llm"
	"github.com/mblcrm/lendgate/internal/adapter/msgraph"
	lgnats "github.com/mblcrm/lendgate/internal/adapter/nats"
	"github.com/mblcrm/lendgate/internal/adapter/otel"
	"github.com/mblcrm/lendgate/internal/adapter/postgres"
	"github.com/mblcrm/lendgate/internal/adapter/ristretto"
	"github.com/mblcrm/lendgate/internal/adapter/ws"
	"github.com/mblcrm/lendgate/internal/config"
	"github.com/mblcrm/lendgate/internal/logger"
	"github.com/mblcrm/lendgate/internal/middleware"
	"github.com/mblcrm/lendgate/internal/port/audit"
	"github.com/mblcrm/lendgate/internal/resilience"
	"github.com/mblcrm/lendgate/internal/service"
	"github.com/mblcrm/lendgate/internal/simulate"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"ein_mock", cfg.EIN.Mock,
		"graph_mock", cfg.Graph.Mock,
		"doc_intel_mock", cfg.DocIntel.Mock,
		"llm_mock", cfg.LLM.Mock,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	// Run migrations
	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS
	queue, err := lgnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// EIN result cache
	einCache, err := ristretto.New(cfg.EIN.CacheMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	// Telemetry
	var metrics *otel.Metrics
	if cfg.Telemetry.Enabled {
		shutdown, err := otel.SetupMetrics(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Logging.Service)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
		metrics, err = otel.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	// --- Resilience layer ---

	auditStore := postgres.NewAuditStore(pool)
	auditor := audit.NewAuditor(log,
		audit.NewSlogSink(log),
		auditStore,
		queue,
	)

	manager := resilience.NewManager(log, auditor,
		managerOptions(metrics, queue)...,
	)

	hub := ws.NewHub(manager.StatusAll)
	manager.AddTransitionListener(hub.BroadcastTransition)

	// --- Services ---

	einSvc := service.NewEINService(manager, cfg.Resilience, cfg.EIN,
		einverify.NewClient(cfg.EIN.BaseURL, cfg.EIN.APIKey, cfg.EIN.Timeout),
		simulate.NewEIN(), einCache, log)
	meetingSvc := service.NewMeetingService(manager, cfg.Resilience, cfg.Graph,
		msgraph.NewClient(cfg.Graph.BaseURL, cfg.Graph.AccessToken, cfg.Graph.Timeout),
		simulate.NewMeetings())
	documentSvc := service.NewDocumentService(manager, cfg.Resilience, cfg.DocIntel,
		docintel.NewClient(cfg.DocIntel.BaseURL, cfg.DocIntel.APIKey, cfg.DocIntel.Timeout, cfg.DocIntel.PollInterval),
		simulate.NewDocuments())
	riskSvc := service.NewRiskService(manager, cfg.Resilience, cfg.LLM,
		llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout),
		simulate.NewRisk())

	// --- HTTP ---

	handlers := &lghttp.Handlers{
		EIN:        einSvc,
		Meetings:   meetingSvc,
		Documents:  documentSvc,
		Risk:       riskSvc,
		Resilience: manager,
		Audit:      auditStore,
	}

	r := chi.NewRouter()

	r.Use(lghttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(lghttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	lghttp.MountRoutes(r, handlers, hub.HandleWS)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// managerOptions wires the optional observers: metrics when telemetry is
// enabled, and breaker transition events onto NATS.
func managerOptions(metrics *otel.Metrics, queue *lgnats.Publisher) []resilience.ManagerOption {
	opts := []resilience.ManagerOption{
		resilience.WithTransitionListener(queue.PublishTransition),
	}
	if metrics != nil {
		opts = append(opts, resilience.WithObserver(metrics))
	}
	return opts
}
