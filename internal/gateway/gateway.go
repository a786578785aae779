package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/thepromptlink/promptlink/internal/health"
	"github.com/thepromptlink/promptlink/internal/orchestrator"
	"github.com/thepromptlink/promptlink/internal/providers"
	"github.com/thepromptlink/promptlink/internal/registry"
	"github.com/thepromptlink/promptlink/internal/stats"
	"github.com/thepromptlink/promptlink/internal/workflows"
	"github.com/thepromptlink/promptlink/pkg/cache"
	"github.com/thepromptlink/promptlink/pkg/config"
	"github.com/thepromptlink/promptlink/pkg/database"
	"github.com/thepromptlink/promptlink/pkg/middleware"
)

// Gateway è il backend HTTP dell'orchestratore multi-agente
type Gateway struct {
	config   *config.Config
	app      *fiber.App
	db       *database.DB
	agents   *registry.Registry
	orch     *orchestrator.Orchestrator
	flows    *workflows.Service
	monitor  *health.Monitor
	exporter *stats.PrometheusExporter
	store    cache.Cache
	started  time.Time
}

// New crea una nuova istanza del gateway. db può essere nil quando la
// persistenza è disabilitata.
func New(cfg *config.Config, db *database.DB) (*Gateway, error) {
	app := fiber.New(fiber.Config{
		AppName:      "PromptLink Backend",
		ServerHeader: "PromptLink/1.0",
		ErrorHandler: customErrorHandler,
	})

	agents := registry.NewWithDefaults()
	set := providers.NewSet(cfg)
	store := buildCache(cfg)
	collector := stats.NewCollector()

	var exporter *stats.PrometheusExporter
	if cfg.Monitoring.Prometheus.Enabled {
		exporter = stats.NewPrometheusExporter(agents, collector, cfg.Monitoring.Prometheus.Namespace, prometheus.DefaultRegisterer)
	}

	orch := orchestrator.New(agents, set, store, collector, exporter, db, orchestrator.Options{
		MaxConcurrency: cfg.Orchestrator.MaxConcurrency,
		AgentTimeout:   cfg.Orchestrator.AgentTimeout,
		CacheTTL:       cfg.Cache.TTL,
	})

	gw := &Gateway{
		config:   cfg,
		app:      app,
		db:       db,
		agents:   agents,
		orch:     orch,
		flows:    workflows.NewService(orch),
		monitor:  health.NewMonitor(agents, cfg.Monitoring.HealthInterval),
		exporter: exporter,
		store:    store,
		started:  time.Now(),
	}

	gw.setupMiddlewares()
	gw.setupRoutes()

	return gw, nil
}

// buildCache costruisce il layer di cache dalla configurazione.
// Un Redis irraggiungibile degrada sul cache in-memory.
func buildCache(cfg *config.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return cache.Noop{}
	}

	if cfg.Cache.RedisEnabled {
		rc, err := cache.NewRedisCache(cfg.Cache.RedisHost, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err == nil {
			return rc
		}
		log.Warn().Err(err).Msg("Redis unavailable, falling back to memory cache")
	}

	return cache.NewMemoryCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
}

// customErrorHandler gestisce gli errori globali
func customErrorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"success":    false,
		"error":      message,
		"request_id": middleware.GetRequestID(c),
	})
}

// setupMiddlewares configura i middleware globali
func (g *Gateway) setupMiddlewares() {
	// Recovery per primo, per catturare tutti i panic
	g.app.Use(middleware.Recovery())

	g.app.Use(middleware.RequestID())

	g.app.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	g.app.Use(middleware.Logging(middleware.LoggingConfig{
		SkipPaths: []string{"/health", "/ready"},
	}))
}

// setupRoutes configura le route HTTP
func (g *Gateway) setupRoutes() {
	g.app.Get("/", g.handleIndex)
	g.app.Get("/health", g.handleHealth)
	g.app.Get("/ready", g.handleReady)

	if g.config.Monitoring.Prometheus.Enabled {
		g.app.Get("/metrics", middleware.PrometheusHandler())
	}

	api := g.app.Group("/api")

	// Chat / orchestration
	api.Post("/chat", g.handleChat)
	api.Post("/chat/single", g.handleChatSingle)
	api.Get("/chat/models", g.handleListModels)

	// Agent catalog
	api.Get("/agents", g.handleListAgents)
	api.Get("/agents/status", g.handleAgentsStatus)
	api.Get("/agents/:id", g.handleGetAgent)
	api.Get("/agents/:id/health", g.handleAgentHealth)
	api.Post("/agents/:id/activate", g.handleActivateAgent)
	api.Post("/agents/:id/deactivate", g.handleDeactivateAgent)

	// Workflows
	api.Get("/workflows", g.handleListWorkflows)
	api.Get("/workflows/categories", g.handleWorkflowCategories)
	api.Get("/workflows/stats", g.handleWorkflowStats)
	api.Get("/workflows/:id", g.handleGetWorkflow)
	api.Post("/workflows/:id/execute", g.handleExecuteWorkflow)
	api.Post("/workflows/executions/:id/step/:n", g.handleExecuteWorkflowStep)

	// Monitoring
	api.Get("/monitoring/health", g.handleMonitoringHealth)
	api.Get("/monitoring/metrics", g.handleMonitoringMetrics)
}

// App restituisce l'app fiber sottostante
func (g *Gateway) App() *fiber.App {
	return g.app
}

// Start avvia il gateway
func (g *Gateway) Start() error {
	g.monitor.Start()

	if g.exporter != nil {
		g.exporter.Start()
	}

	addr := fmt.Sprintf("%s:%d", g.config.Server.Host, g.config.Server.Port)
	log.Info().Str("addr", addr).Msg("Gateway listening")

	return g.app.Listen(addr)
}

// Shutdown esegue lo shutdown graceful del gateway
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.monitor.Stop()

	if g.exporter != nil {
		g.exporter.Stop()
	}

	if err := g.store.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close cache")
	}

	if err := g.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Gateway shutdown completed")
	return nil
}
