package orchestrator

import "time"

// OutcomeStatus indica l'esito della chiamata di un singolo agente
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusError   OutcomeStatus = "error"
)

// Request è una richiesta di orchestrazione multi-agente
type Request struct {
	Message string   `json:"message"`
	Agents  []string `json:"agents"`
	Mode    string   `json:"mode,omitempty"`
}

// Outcome è il risultato della chiamata di un singolo agente.
// Immutabile una volta prodotto; vive solo per la durata della richiesta.
type Outcome struct {
	AgentID        string        `json:"agent"`
	Status         OutcomeStatus `json:"status"`
	Response       string        `json:"message,omitempty"`
	Model          string        `json:"model"`
	ElapsedSeconds float64       `json:"response_time"`
	TokensUsed     int           `json:"tokens_used"`
	ErrorDetail    string        `json:"error,omitempty"`
	CacheHit       bool          `json:"cached,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// Metadata riassume l'esecuzione del batch
type Metadata struct {
	TotalAgents         int     `json:"total_agents"`
	SuccessfulResponses int     `json:"successful_responses"`
	TotalTokens         int     `json:"total_tokens"`
	// TotalTime è la durata wall-clock dell'intero batch concorrente,
	// non la somma delle latenze per-agente.
	TotalTime           float64 `json:"total_time"`
	AverageResponseTime float64 `json:"average_response_time"`
	Mode                string  `json:"mode,omitempty"`
	OrchestrationTime   string  `json:"orchestration_time"`
	SessionID           string  `json:"session_id"`
}

// Envelope è la risposta aggregata dell'orchestratore.
// Il session id compare sia in metadata che al top level: client diversi
// lo leggono in posti diversi.
type Envelope struct {
	Success   bool                `json:"success"`
	Responses map[string]*Outcome `json:"responses"`
	Metadata  Metadata            `json:"metadata"`
	SessionID string              `json:"session_id"`
}
