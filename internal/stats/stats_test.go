package stats

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thepromptlink/promptlink/internal/registry"
)

func TestCollectorRecord(t *testing.T) {
	c := NewCollector()

	c.Record(Sample{AgentID: "claude", Success: true, Tokens: 100, Latency: 200 * time.Millisecond})
	c.Record(Sample{AgentID: "claude", Success: false, Latency: 400 * time.Millisecond})
	c.Record(Sample{AgentID: "gpt", Success: true, CacheHit: true, Tokens: 50, Latency: 10 * time.Millisecond})

	claude, ok := c.Agent("claude")
	require.True(t, ok)
	assert.Equal(t, int64(2), claude.TotalRequests)
	assert.Equal(t, int64(1), claude.SuccessCount)
	assert.Equal(t, int64(1), claude.ErrorCount)
	assert.Equal(t, int64(100), claude.TotalTokens)
	assert.InDelta(t, 0.5, claude.SuccessRate(), 1e-9)
	assert.InDelta(t, 300.0, claude.AvgLatencyMs(), 1e-9)

	gpt, ok := c.Agent("gpt")
	require.True(t, ok)
	assert.Equal(t, int64(1), gpt.CacheHits)
}

func TestCollectorUnknownAgent(t *testing.T) {
	c := NewCollector()

	_, ok := c.Agent("nope")
	assert.False(t, ok)
}

func TestCollectorTotals(t *testing.T) {
	c := NewCollector()

	c.Record(Sample{AgentID: "claude", Success: true, Tokens: 10, Latency: 100 * time.Millisecond})
	c.Record(Sample{AgentID: "gpt", Success: true, Tokens: 20, Latency: 100 * time.Millisecond})
	c.Record(Sample{AgentID: "gemini", Success: false, Latency: 100 * time.Millisecond})

	totals := c.Totals()
	assert.Equal(t, int64(3), totals.TotalRequests)
	assert.Equal(t, int64(2), totals.SuccessCount)
	assert.Equal(t, int64(1), totals.ErrorCount)
	assert.Equal(t, int64(30), totals.TotalTokens)
}

func TestCollectorSnapshotIsolation(t *testing.T) {
	c := NewCollector()
	c.Record(Sample{AgentID: "claude", Success: true})

	snap := c.Snapshot()
	entry := snap["claude"]
	entry.TotalRequests = 999

	claude, _ := c.Agent("claude")
	assert.Equal(t, int64(1), claude.TotalRequests, "snapshot must not alias internal state")
}

func TestPrometheusExporterRecordOutcome(t *testing.T) {
	reg := registry.NewWithDefaults()
	collector := NewCollector()
	promReg := prometheus.NewRegistry()

	e := NewPrometheusExporter(reg, collector, "promptlink_test", promReg)

	e.RecordSession()
	e.RecordOutcome("claude", true, "", 250*time.Millisecond, 120, false)
	e.RecordOutcome("gpt", false, "upstream", 500*time.Millisecond, 0, false)
	e.UpdateGauges()

	families, err := promReg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	assert.True(t, names["promptlink_test_requests_total"])
	assert.True(t, names["promptlink_test_request_duration_milliseconds"])
	assert.True(t, names["promptlink_test_request_errors_total"])
	assert.True(t, names["promptlink_test_agent_health_score"])
	assert.True(t, names["promptlink_test_sessions_total"])
}
