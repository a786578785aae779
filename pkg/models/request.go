package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RequestStatus indica l'esito di una singola chiamata upstream
type RequestStatus string

const (
	RequestStatusSuccess RequestStatus = "success"
	RequestStatusError   RequestStatus = "error"
)

// RequestLog registra una singola chiamata agente all'interno di una sessione
type RequestLog struct {
	ID        uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	SessionID string        `json:"session_id" gorm:"index;not null"`
	AgentID   string        `json:"agent_id" gorm:"index;not null"`
	Provider  string        `json:"provider" gorm:"not null"`
	Model     string        `json:"model" gorm:"not null"`
	Status    RequestStatus `json:"status" gorm:"not null"`

	// Request metadata
	RequestedAgents datatypes.JSON `json:"requested_agents"` // full agent list of the batch
	MessageLength   int            `json:"message_length"`

	// Outcome metrics
	LatencyMs    int64  `json:"latency_ms"`
	TokensUsed   int    `json:"tokens_used"`
	CacheHit     bool   `json:"cache_hit" gorm:"default:false"`
	ErrorMessage string `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate hook per generare UUID
func (r *RequestLog) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName specifica il nome della tabella
func (RequestLog) TableName() string {
	return "request_logs"
}
