package health

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thepromptlink/promptlink/internal/registry"
)

// Monitor aggiorna periodicamente lo stato di salute degli agenti
type Monitor struct {
	agents   *registry.Registry
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once

	// base per-agente attorno a cui oscilla il punteggio
	baseline map[string]float64
}

// NewMonitor crea un nuovo monitor
func NewMonitor(agents *registry.Registry, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	baseline := make(map[string]float64)
	for _, agent := range agents.List() {
		baseline[agent.ID] = agent.Health
	}

	return &Monitor{
		agents:   agents,
		interval: interval,
		done:     make(chan struct{}),
		baseline: baseline,
	}
}

// Start avvia il monitoraggio
func (m *Monitor) Start() {
	m.ticker = time.NewTicker(m.interval)

	go func() {
		// Run initial refresh
		m.refreshAll()

		for {
			select {
			case <-m.ticker.C:
				m.refreshAll()
			case <-m.done:
				return
			}
		}
	}()

	log.Info().Dur("interval", m.interval).Msg("Health monitoring started")
}

// Stop ferma il monitoraggio. Chiamate successive alla prima sono no-op.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
		log.Info().Msg("Health monitoring stopped")
	})
}

// refreshAll aggiorna il punteggio di ogni agente attivo
func (m *Monitor) refreshAll() {
	agents := m.agents.List()
	log.Debug().Int("count", len(agents)).Msg("Refreshing agent health")

	for _, agent := range agents {
		if agent.Status != registry.AgentStatusActive {
			continue
		}

		score := m.nextScore(agent.ID)
		if err := m.agents.SetHealth(agent.ID, score); err != nil {
			log.Warn().Err(err).Str("agent", agent.ID).Msg("Failed to update agent health")
		}
	}
}

// nextScore calcola il prossimo punteggio: jitter limitato attorno
// alla base dell'agente, clampato in [85, 100]
func (m *Monitor) nextScore(agentID string) float64 {
	base, ok := m.baseline[agentID]
	if !ok {
		base = 95
	}

	score := base + (rand.Float64()*4 - 2)
	if score < 85 {
		score = 85
	}
	if score > 100 {
		score = 100
	}
	return score
}
