package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thepromptlink/promptlink/internal/extract"
	"github.com/thepromptlink/promptlink/internal/providers"
	"github.com/thepromptlink/promptlink/internal/registry"
	"github.com/thepromptlink/promptlink/internal/stats"
	"github.com/thepromptlink/promptlink/pkg/cache"
	"github.com/thepromptlink/promptlink/pkg/database"
	"github.com/thepromptlink/promptlink/pkg/models"
	"gorm.io/datatypes"
)

var (
	// ErrEmptyMessage indica che il messaggio è vuoto dopo il trim
	ErrEmptyMessage = errors.New("message is required")

	// ErrNoAgents indica che la lista agenti è vuota
	ErrNoAgents = errors.New("at least one agent is required")
)

// Options configura l'orchestratore
type Options struct {
	MaxConcurrency int
	AgentTimeout   time.Duration
	CacheTTL       time.Duration
}

// Orchestrator esegue il fan-out concorrente verso gli agenti richiesti
// e aggrega gli esiti in un envelope unico
type Orchestrator struct {
	agents    *registry.Registry
	providers providers.Set
	cache     cache.Cache
	collector *stats.Collector
	exporter  *stats.PrometheusExporter
	db        *database.DB
	opts      Options
}

// New crea un nuovo orchestratore. cache, exporter e db sono opzionali.
func New(agents *registry.Registry, set providers.Set, c cache.Cache, collector *stats.Collector, exporter *stats.PrometheusExporter, db *database.DB, opts Options) *Orchestrator {
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 5
	}
	if opts.AgentTimeout <= 0 {
		opts.AgentTimeout = 60 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if c == nil {
		c = cache.Noop{}
	}
	if collector == nil {
		collector = stats.NewCollector()
	}

	return &Orchestrator{
		agents:    agents,
		providers: set,
		cache:     c,
		collector: collector,
		exporter:  exporter,
		db:        db,
		opts:      opts,
	}
}

// Collector restituisce il collector delle metriche
func (o *Orchestrator) Collector() *stats.Collector {
	return o.collector
}

// Handle valida la richiesta, esegue il fan-out e costruisce l'envelope.
// Dopo la validazione ogni fallimento è un esito per-agente: il batch
// restituisce sempre un envelope, mai un errore parziale.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (*Envelope, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if len(req.Agents) == 0 {
		return nil, ErrNoAgents
	}

	sessionID := fmt.Sprintf("session_%d", time.Now().Unix())
	if o.exporter != nil {
		o.exporter.RecordSession()
	}

	// Un esito per id unico: l'ultima occorrenza di un duplicato vince
	unique := uniqueIDs(req.Agents)

	log.Info().
		Str("session_id", sessionID).
		Int("agents", len(req.Agents)).
		Int("unique_agents", len(unique)).
		Int("message_length", len(message)).
		Msg("Orchestration started")

	start := time.Now()
	responses := make(map[string]*Outcome, len(unique))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, o.opts.MaxConcurrency)
	)

	for _, id := range unique {
		wg.Add(1)
		go func(agentID string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			outcome := o.callAgent(ctx, sessionID, agentID, message, req.Agents)

			mu.Lock()
			responses[agentID] = outcome
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	totalTime := time.Since(start).Seconds()

	meta := Metadata{
		TotalAgents:       len(req.Agents),
		TotalTime:         round2(totalTime),
		Mode:              req.Mode,
		OrchestrationTime: time.Now().Format(time.RFC3339),
		SessionID:         sessionID,
	}
	for _, out := range responses {
		if out.Status == StatusSuccess {
			meta.SuccessfulResponses++
		}
		meta.TotalTokens += out.TokensUsed
	}
	if meta.TotalAgents > 0 {
		meta.AverageResponseTime = round2(totalTime / float64(meta.TotalAgents))
	}

	log.Info().
		Str("session_id", sessionID).
		Int("successful", meta.SuccessfulResponses).
		Float64("total_time", meta.TotalTime).
		Msg("Orchestration completed")

	return &Envelope{
		Success:   true,
		Responses: responses,
		Metadata:  meta,
		SessionID: sessionID,
	}, nil
}

// HandleSingle esegue una richiesta verso un singolo agente
func (o *Orchestrator) HandleSingle(ctx context.Context, agentID, message string) (*Outcome, string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, "", ErrEmptyMessage
	}

	sessionID := fmt.Sprintf("session_%d", time.Now().Unix())
	if o.exporter != nil {
		o.exporter.RecordSession()
	}

	outcome := o.callAgent(ctx, sessionID, agentID, message, []string{agentID})
	return outcome, sessionID, nil
}

// cachedCompletion è la forma serializzata di una completion nel cache
type cachedCompletion struct {
	Text       string `json:"text"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokens_used"`
}

// callAgent esegue la chiamata di un singolo agente e ne classifica l'esito
func (o *Orchestrator) callAgent(ctx context.Context, sessionID, agentID, message string, requested []string) *Outcome {
	start := time.Now()

	fail := func(detail, errorType string, model string) *Outcome {
		out := &Outcome{
			AgentID:        agentID,
			Status:         StatusError,
			Model:          model,
			ElapsedSeconds: round2(time.Since(start).Seconds()),
			ErrorDetail:    detail,
			Timestamp:      time.Now(),
		}
		o.recordOutcome(sessionID, out, errorType, message, requested)
		return out
	}

	desc, err := o.agents.Lookup(agentID)
	if err != nil {
		return fail(fmt.Sprintf("Unknown agent: %s", agentID), "unknown_agent", "")
	}
	if desc.Status != registry.AgentStatusActive {
		return fail(fmt.Sprintf("Agent %s is not active", agentID), "inactive_agent", desc.Model)
	}

	adapter, ok := o.providers.Get(desc.Provider)
	if !ok {
		return fail(fmt.Sprintf("No adapter configured for provider %s", desc.Provider), "no_adapter", desc.Model)
	}

	// Prova il cache prima di chiamare upstream
	key := cache.ResponseKey(string(desc.Provider), desc.Model, message)
	if raw, err := o.cache.Get(ctx, key); err == nil {
		var cached cachedCompletion
		if err := json.Unmarshal(raw, &cached); err == nil {
			out := &Outcome{
				AgentID:        agentID,
				Status:         StatusSuccess,
				Response:       cached.Text,
				Model:          cached.Model,
				ElapsedSeconds: round2(time.Since(start).Seconds()),
				TokensUsed:     cached.TokensUsed,
				CacheHit:       true,
				Timestamp:      time.Now(),
			}
			o.recordOutcome(sessionID, out, "", message, requested)
			return out
		}
	}

	if o.exporter != nil {
		o.exporter.IncInFlight()
		defer o.exporter.DecInFlight()
	}

	callCtx, cancel := context.WithTimeout(ctx, o.opts.AgentTimeout)
	defer cancel()

	completion, err := adapter.Complete(callCtx, desc.Model, message)
	if err != nil {
		return fail(err.Error(), classifyError(err), desc.Model)
	}

	out := &Outcome{
		AgentID:        agentID,
		Status:         StatusSuccess,
		Response:       completion.Text,
		Model:          completion.Model,
		ElapsedSeconds: round2(time.Since(start).Seconds()),
		TokensUsed:     completion.TokensUsed,
		Timestamp:      time.Now(),
	}

	if raw, err := json.Marshal(cachedCompletion{
		Text:       completion.Text,
		Model:      completion.Model,
		TokensUsed: completion.TokensUsed,
	}); err == nil {
		if err := o.cache.Set(ctx, key, raw, o.opts.CacheTTL); err != nil {
			log.Warn().Err(err).Str("agent", agentID).Msg("Failed to cache response")
		}
	}

	o.recordOutcome(sessionID, out, "", message, requested)
	return out
}

// recordOutcome alimenta collector, exporter e request log.
// La scrittura su database è best-effort e asincrona: un'indisponibilità
// del database non tocca mai l'envelope.
func (o *Orchestrator) recordOutcome(sessionID string, out *Outcome, errorType, message string, requested []string) {
	success := out.Status == StatusSuccess
	elapsed := time.Duration(out.ElapsedSeconds * float64(time.Second))

	o.collector.Record(stats.Sample{
		AgentID:  out.AgentID,
		Success:  success,
		CacheHit: out.CacheHit,
		Tokens:   out.TokensUsed,
		Latency:  elapsed,
	})

	if o.exporter != nil {
		o.exporter.RecordOutcome(out.AgentID, success, errorType, elapsed, out.TokensUsed, out.CacheHit)
	}

	if o.db == nil {
		return
	}

	agentList, _ := json.Marshal(requested)
	entry := &models.RequestLog{
		SessionID:       sessionID,
		AgentID:         out.AgentID,
		Provider:        providerOf(o.agents, out.AgentID),
		Model:           out.Model,
		Status:          models.RequestStatus(out.Status),
		RequestedAgents: datatypes.JSON(agentList),
		MessageLength:   len(message),
		LatencyMs:       elapsed.Milliseconds(),
		TokensUsed:      out.TokensUsed,
		CacheHit:        out.CacheHit,
		ErrorMessage:    out.ErrorDetail,
	}

	go func() {
		if err := o.db.Create(entry).Error; err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to persist request log")
			return
		}
		if err := o.db.UpsertAgentStat(entry); err != nil {
			log.Warn().Err(err).Str("agent", entry.AgentID).Msg("Failed to update agent stats")
		}
	}()
}

// uniqueIDs restituisce gli id unici preservando l'ordine della prima occorrenza
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// classifyError mappa un errore di chiamata sulla label Prometheus
func classifyError(err error) string {
	var upstream *providers.UpstreamError
	var noContent *extract.NoContentError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &upstream):
		return "upstream"
	case errors.As(err, &noContent):
		return "no_content"
	default:
		return "internal"
	}
}

func providerOf(agents *registry.Registry, agentID string) string {
	desc, err := agents.Lookup(agentID)
	if err != nil {
		return ""
	}
	return string(desc.Provider)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
