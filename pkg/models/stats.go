package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AgentStat aggrega le metriche giornaliere di un agente
type AgentStat struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	AgentID string    `json:"agent_id" gorm:"uniqueIndex:idx_agent_day;not null"`
	Day     time.Time `json:"day" gorm:"uniqueIndex:idx_agent_day;not null"`

	TotalRequests   int64 `json:"total_requests" gorm:"default:0"`
	SuccessCount    int64 `json:"success_count" gorm:"default:0"`
	ErrorCount      int64 `json:"error_count" gorm:"default:0"`
	CacheHits       int64 `json:"cache_hits" gorm:"default:0"`
	TotalTokens     int64 `json:"total_tokens" gorm:"default:0"`
	TotalLatencyMs  int64 `json:"total_latency_ms" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook per generare UUID
func (s *AgentStat) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SuccessRate calcola il tasso di successo
func (s *AgentStat) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.TotalRequests)
}

// AvgLatencyMs calcola la latenza media
func (s *AgentStat) AvgLatencyMs() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.TotalLatencyMs) / float64(s.TotalRequests)
}

// TableName specifica il nome della tabella
func (AgentStat) TableName() string {
	return "agent_stats"
}
