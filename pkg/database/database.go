package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/thepromptlink/promptlink/pkg/config"
	"github.com/thepromptlink/promptlink/pkg/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wrappa la connessione GORM
type DB struct {
	*gorm.DB
}

// New crea una nuova connessione al database
func New(cfg *config.DatabaseConfig) (*DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "postgres":
		dialector = postgres.Open(cfg.Connection)
	case "sqlite":
		dialector = sqlite.Open(cfg.Connection)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	logLevel := logger.Silent
	switch cfg.LogLevel {
	case "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "error":
		logLevel = logger.Error
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
		sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &DB{DB: db}, nil
}

// AutoMigrate esegue le migrazioni del database
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(
		&models.RequestLog{},
		&models.AgentStat{},
	)
}

// RecentLogs restituisce gli ultimi request log, dal più recente
func (db *DB) RecentLogs(limit int) ([]models.RequestLog, error) {
	var logs []models.RequestLog
	err := db.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// SessionLogs restituisce tutti i log di una sessione
func (db *DB) SessionLogs(sessionID string) ([]models.RequestLog, error) {
	var logs []models.RequestLog
	err := db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&logs).Error
	return logs, err
}

// UpsertAgentStat accumula le metriche giornaliere di un agente
func (db *DB) UpsertAgentStat(entry *models.RequestLog) error {
	day := entry.CreatedAt.UTC().Truncate(24 * time.Hour)

	var stat models.AgentStat
	err := db.Where("agent_id = ? AND day = ?", entry.AgentID, day).First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stat = models.AgentStat{AgentID: entry.AgentID, Day: day}
	} else if err != nil {
		return err
	}

	stat.TotalRequests++
	stat.TotalTokens += int64(entry.TokensUsed)
	stat.TotalLatencyMs += entry.LatencyMs
	if entry.Status == models.RequestStatusSuccess {
		stat.SuccessCount++
	} else {
		stat.ErrorCount++
	}
	if entry.CacheHit {
		stat.CacheHits++
	}

	return db.Save(&stat).Error
}

// Close chiude la connessione al database
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
