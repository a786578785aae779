package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thepromptlink/promptlink/pkg/config"
	"github.com/thepromptlink/promptlink/pkg/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{
		Type:       "sqlite",
		Connection: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   "error",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())

	t.Cleanup(func() { db.Close() })
	return db
}

func TestRequestLogRoundTrip(t *testing.T) {
	db := newTestDB(t)

	entry := &models.RequestLog{
		SessionID:     "session_1700000000",
		AgentID:       "claude",
		Provider:      "openrouter",
		Model:         "anthropic/claude-3.5-sonnet",
		Status:        models.RequestStatusSuccess,
		MessageLength: 42,
		LatencyMs:     350,
		TokensUsed:    120,
	}
	require.NoError(t, db.Create(entry).Error)
	assert.NotEmpty(t, entry.ID, "BeforeCreate should assign an id")

	logs, err := db.SessionLogs("session_1700000000")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "claude", logs[0].AgentID)
	assert.Equal(t, models.RequestStatusSuccess, logs[0].Status)
}

func TestRecentLogsOrder(t *testing.T) {
	db := newTestDB(t)

	for i, agent := range []string{"gpt", "gemini", "mistral"} {
		entry := &models.RequestLog{
			SessionID: "session_x",
			AgentID:   agent,
			Provider:  "openai",
			Model:     "m",
			Status:    models.RequestStatusSuccess,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.Create(entry).Error)
	}

	logs, err := db.RecentLogs(2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "mistral", logs[0].AgentID, "most recent first")
}

func TestUpsertAgentStat(t *testing.T) {
	db := newTestDB(t)

	now := time.Now().UTC()
	success := &models.RequestLog{
		AgentID: "llama", Status: models.RequestStatusSuccess,
		LatencyMs: 100, TokensUsed: 50, CreatedAt: now,
	}
	failure := &models.RequestLog{
		AgentID: "llama", Status: models.RequestStatusError,
		LatencyMs: 200, CacheHit: false, CreatedAt: now,
	}

	require.NoError(t, db.UpsertAgentStat(success))
	require.NoError(t, db.UpsertAgentStat(failure))

	var stat models.AgentStat
	require.NoError(t, db.Where("agent_id = ?", "llama").First(&stat).Error)

	assert.Equal(t, int64(2), stat.TotalRequests)
	assert.Equal(t, int64(1), stat.SuccessCount)
	assert.Equal(t, int64(1), stat.ErrorCount)
	assert.Equal(t, int64(50), stat.TotalTokens)
	assert.InDelta(t, 0.5, stat.SuccessRate(), 1e-9)
	assert.InDelta(t, 150.0, stat.AvgLatencyMs(), 1e-9)
}
