package stats

import (
	"sync"
	"time"
)

// AgentMetrics accumula le metriche in-memory di un singolo agente
type AgentMetrics struct {
	AgentID        string
	TotalRequests  int64
	SuccessCount   int64
	ErrorCount     int64
	CacheHits      int64
	TotalTokens    int64
	TotalLatencyMs int64
	LastRequestAt  time.Time
}

// SuccessRate calcola il tasso di successo
func (m *AgentMetrics) SuccessRate() float64 {
	if m.TotalRequests == 0 {
		return 0
	}
	return float64(m.SuccessCount) / float64(m.TotalRequests)
}

// AvgLatencyMs calcola la latenza media in millisecondi
func (m *AgentMetrics) AvgLatencyMs() float64 {
	if m.TotalRequests == 0 {
		return 0
	}
	return float64(m.TotalLatencyMs) / float64(m.TotalRequests)
}

// Sample è una singola osservazione da registrare
type Sample struct {
	AgentID  string
	Success  bool
	CacheHit bool
	Tokens   int
	Latency  time.Duration
}

// Collector raccoglie metriche per-agente in memoria
type Collector struct {
	mu      sync.RWMutex
	agents  map[string]*AgentMetrics
	started time.Time
}

// NewCollector crea un nuovo collector
func NewCollector() *Collector {
	return &Collector{
		agents:  make(map[string]*AgentMetrics),
		started: time.Now(),
	}
}

// Record registra un'osservazione
func (c *Collector) Record(s Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.agents[s.AgentID]
	if !ok {
		m = &AgentMetrics{AgentID: s.AgentID}
		c.agents[s.AgentID] = m
	}

	m.TotalRequests++
	m.TotalTokens += int64(s.Tokens)
	m.TotalLatencyMs += s.Latency.Milliseconds()
	m.LastRequestAt = time.Now()

	if s.Success {
		m.SuccessCount++
	} else {
		m.ErrorCount++
	}
	if s.CacheHit {
		m.CacheHits++
	}
}

// Agent restituisce una copia delle metriche di un agente
func (c *Collector) Agent(agentID string) (AgentMetrics, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.agents[agentID]
	if !ok {
		return AgentMetrics{}, false
	}
	return *m, true
}

// Snapshot restituisce una copia delle metriche di tutti gli agenti
func (c *Collector) Snapshot() map[string]AgentMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]AgentMetrics, len(c.agents))
	for id, m := range c.agents {
		out[id] = *m
	}
	return out
}

// Totals aggrega le metriche di tutti gli agenti
func (c *Collector) Totals() AgentMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total AgentMetrics
	for _, m := range c.agents {
		total.TotalRequests += m.TotalRequests
		total.SuccessCount += m.SuccessCount
		total.ErrorCount += m.ErrorCount
		total.CacheHits += m.CacheHits
		total.TotalTokens += m.TotalTokens
		total.TotalLatencyMs += m.TotalLatencyMs
		if m.LastRequestAt.After(total.LastRequestAt) {
			total.LastRequestAt = m.LastRequestAt
		}
	}
	return total
}

// Uptime restituisce il tempo trascorso dall'avvio del collector
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.started)
}
