package stats

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"github.com/thepromptlink/promptlink/internal/registry"
)

// PrometheusExporter espone le metriche dell'orchestratore in formato Prometheus
type PrometheusExporter struct {
	registry  *registry.Registry
	collector *Collector

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestErrors    *prometheus.CounterVec
	tokensProcessed  *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	agentHealth      *prometheus.GaugeVec
	activeAgents     prometheus.Gauge
	requestsInFlight prometheus.Gauge
	sessionsTotal    prometheus.Counter

	updateInterval time.Duration
	ticker         *time.Ticker
	stopCh         chan struct{}
	wg             sync.WaitGroup
}

// NewPrometheusExporter crea un nuovo exporter. Se reg è nil usa il
// registerer di default.
func NewPrometheusExporter(agents *registry.Registry, collector *Collector, namespace string, reg prometheus.Registerer) *PrometheusExporter {
	if namespace == "" {
		namespace = "promptlink"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	e := &PrometheusExporter{
		registry:       agents,
		collector:      collector,
		updateInterval: 15 * time.Second,
		stopCh:         make(chan struct{}),
	}

	e.requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of upstream requests by agent and status",
		},
		[]string{"agent", "status"},
	)

	e.requestErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "Total number of request errors by agent and error type",
		},
		[]string{"agent", "error_type"},
	)

	e.requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_milliseconds",
			Help:      "Upstream request duration in milliseconds",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"agent"},
	)

	e.tokensProcessed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_processed_total",
			Help:      "Total number of tokens reported by upstream providers",
		},
		[]string{"agent"},
	)

	e.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of responses served from cache",
		},
		[]string{"agent"},
	)

	e.agentHealth = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agent_health_score",
			Help:      "Health score of each agent (0-100)",
		},
		[]string{"agent"},
	)

	e.activeAgents = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_agents",
			Help:      "Number of active agents in the catalog",
		},
	)

	e.requestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Number of upstream requests currently being processed",
		},
	)

	e.sessionsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of orchestration sessions",
		},
	)

	return e
}

// Start avvia l'aggiornamento periodico delle gauge
func (e *PrometheusExporter) Start() {
	e.ticker = time.NewTicker(e.updateInterval)
	e.wg.Add(1)

	go e.updateLoop()
	log.Info().
		Dur("update_interval", e.updateInterval).
		Msg("Prometheus exporter started")
}

// Stop ferma l'exporter
func (e *PrometheusExporter) Stop() {
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopCh)
	e.wg.Wait()

	log.Info().Msg("Prometheus exporter stopped")
}

// updateLoop aggiorna periodicamente le gauge dal catalogo agenti
func (e *PrometheusExporter) updateLoop() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ticker.C:
			e.UpdateGauges()
		case <-e.stopCh:
			return
		}
	}
}

// UpdateGauges aggiorna le gauge dallo stato corrente del catalogo
func (e *PrometheusExporter) UpdateGauges() {
	e.activeAgents.Set(float64(e.registry.CountActive()))

	for _, agent := range e.registry.List() {
		e.agentHealth.WithLabelValues(agent.ID).Set(agent.Health)
	}
}

// RecordSession registra l'inizio di una sessione di orchestrazione
func (e *PrometheusExporter) RecordSession() {
	e.sessionsTotal.Inc()
}

// RecordOutcome registra l'esito di una singola chiamata agente
func (e *PrometheusExporter) RecordOutcome(agentID string, success bool, errorType string, duration time.Duration, tokens int, cacheHit bool) {
	status := "success"
	if !success {
		status = "error"
	}

	e.requestsTotal.WithLabelValues(agentID, status).Inc()
	e.requestDuration.WithLabelValues(agentID).Observe(float64(duration.Milliseconds()))

	if !success && errorType != "" {
		e.requestErrors.WithLabelValues(agentID, errorType).Inc()
	}
	if tokens > 0 {
		e.tokensProcessed.WithLabelValues(agentID).Add(float64(tokens))
	}
	if cacheHit {
		e.cacheHits.WithLabelValues(agentID).Inc()
	}
}

// IncInFlight incrementa le richieste in corso
func (e *PrometheusExporter) IncInFlight() {
	e.requestsInFlight.Inc()
}

// DecInFlight decrementa le richieste in corso
func (e *PrometheusExporter) DecInFlight() {
	e.requestsInFlight.Dec()
}
