package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrAgentNotFound      = errors.New("agent not found")
	ErrAgentAlreadyExists = errors.New("agent already exists")
)

// AgentStatus rappresenta lo stato operativo di un agente
type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusInactive AgentStatus = "inactive"
)

// ProviderKind identifica la famiglia API upstream di un agente
type ProviderKind string

const (
	ProviderOpenAI     ProviderKind = "openai"
	ProviderOpenRouter ProviderKind = "openrouter"
	ProviderGemini     ProviderKind = "gemini"
)

// Descriptor descrive un agente: una configurazione puntata
// su un modello di un provider upstream
type Descriptor struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Provider     ProviderKind `json:"provider"`
	Model        string       `json:"model"`
	Capabilities []string     `json:"capabilities"`
	Color        string       `json:"color"`
	Status       AgentStatus  `json:"status"`
	Health       float64      `json:"health"`
	LastUpdated  time.Time    `json:"last_updated"`
}

// Registry gestisce il catalogo degli agenti disponibili.
// Le mutazioni (activate/deactivate, health refresh) passano tutte
// da qui, sotto un unico lock
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Descriptor
	order  []string // ordine di registrazione, stabile per List
}

// New crea un registry vuoto
func New() *Registry {
	return &Registry{
		agents: make(map[string]*Descriptor),
	}
}

// Register registra un nuovo agente
func (r *Registry) Register(d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[d.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAgentAlreadyExists, d.ID)
	}

	if d.Status == "" {
		d.Status = AgentStatusActive
	}
	if d.LastUpdated.IsZero() {
		d.LastUpdated = time.Now()
	}

	stored := d
	r.agents[d.ID] = &stored
	r.order = append(r.order, d.ID)

	log.Info().
		Str("agent", d.ID).
		Str("provider", string(d.Provider)).
		Str("model", d.Model).
		Msg("Agent registered")

	return nil
}

// Lookup restituisce una copia del descriptor per id
func (r *Registry) Lookup(id string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.agents[id]
	if !exists {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}

	return r.copyLocked(d), nil
}

// List restituisce tutti gli agenti in ordine di registrazione
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.copyLocked(r.agents[id]))
	}
	return out
}

// Count restituisce il numero di agenti registrati
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// CountActive restituisce il numero di agenti attivi
func (r *Registry) CountActive() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, d := range r.agents {
		if d.Status == AgentStatusActive {
			n++
		}
	}
	return n
}

// SetStatus imposta lo stato di un agente
func (r *Registry) SetStatus(id string, status AgentStatus) (Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, exists := r.agents[id]
	if !exists {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}

	oldStatus := d.Status
	d.Status = status
	d.LastUpdated = time.Now()

	log.Info().
		Str("agent", id).
		Str("old_status", string(oldStatus)).
		Str("new_status", string(status)).
		Msg("Agent status changed")

	return r.copyLocked(d), nil
}

// Activate attiva un agente
func (r *Registry) Activate(id string) (Descriptor, error) {
	return r.SetStatus(id, AgentStatusActive)
}

// Deactivate disattiva un agente
func (r *Registry) Deactivate(id string) (Descriptor, error) {
	return r.SetStatus(id, AgentStatusInactive)
}

// SetHealth aggiorna l'health score di un agente
func (r *Registry) SetHealth(id string, health float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, exists := r.agents[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}

	d.Health = health
	d.LastUpdated = time.Now()
	return nil
}

// AverageHealth calcola l'health medio di tutti gli agenti
func (r *Registry) AverageHealth() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.agents) == 0 {
		return 0
	}

	sum := 0.0
	for _, d := range r.agents {
		sum += d.Health
	}
	return sum / float64(len(r.agents))
}

// copyLocked restituisce una copia profonda del descriptor.
// Chiamare con il lock acquisito
func (r *Registry) copyLocked(d *Descriptor) Descriptor {
	out := *d
	out.Capabilities = make([]string, len(d.Capabilities))
	copy(out.Capabilities, d.Capabilities)
	return out
}
