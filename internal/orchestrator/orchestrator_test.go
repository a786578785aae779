package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thepromptlink/promptlink/internal/providers"
	"github.com/thepromptlink/promptlink/internal/registry"
	"github.com/thepromptlink/promptlink/pkg/cache"
)

// stubAdapter risponde con testo predefinito dopo un delay opzionale
type stubAdapter struct {
	text  string
	err   error
	delay time.Duration
	calls int32
}

func (s *stubAdapter) Name() string { return "stub" }

func (s *stubAdapter) Complete(ctx context.Context, model, message string) (*providers.Completion, error) {
	atomic.AddInt32(&s.calls, 1)

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if s.err != nil {
		return nil, s.err
	}
	return &providers.Completion{Text: s.text, Model: model, TokensUsed: 42}, nil
}

func (s *stubAdapter) callCount() int {
	return int(atomic.LoadInt32(&s.calls))
}

func newTestRegistry(t *testing.T, ids ...string) *registry.Registry {
	t.Helper()

	reg := registry.New()
	for _, id := range ids {
		err := reg.Register(registry.Descriptor{
			ID:       id,
			Name:     id,
			Provider: registry.ProviderOpenAI,
			Model:    "stub-model",
			Status:   registry.AgentStatusActive,
			Health:   95,
		})
		require.NoError(t, err)
	}
	return reg
}

func newTestOrchestrator(t *testing.T, adapter providers.Adapter, c cache.Cache, ids ...string) *Orchestrator {
	t.Helper()

	reg := newTestRegistry(t, ids...)
	set := providers.Set{registry.ProviderOpenAI: adapter}
	return New(reg, set, c, nil, nil, nil, Options{MaxConcurrency: 5, AgentTimeout: time.Second})
}

func TestHandleValidation(t *testing.T) {
	o := newTestOrchestrator(t, &stubAdapter{text: "hi"}, nil, "claude")
	ctx := context.Background()

	_, err := o.Handle(ctx, Request{Message: "   ", Agents: []string{"claude"}})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = o.Handle(ctx, Request{Message: "hello", Agents: nil})
	assert.ErrorIs(t, err, ErrNoAgents)
}

func TestHandleSuccess(t *testing.T) {
	o := newTestOrchestrator(t, &stubAdapter{text: "canned answer"}, nil, "claude", "gpt")

	env, err := o.Handle(context.Background(), Request{
		Message: "Summarize quantum computing",
		Agents:  []string{"claude", "gpt"},
	})
	require.NoError(t, err)

	assert.True(t, env.Success)
	require.Len(t, env.Responses, 2)

	for _, id := range []string{"claude", "gpt"} {
		out := env.Responses[id]
		require.NotNil(t, out)
		assert.Equal(t, StatusSuccess, out.Status)
		assert.Equal(t, "canned answer", out.Response)
		assert.Equal(t, "stub-model", out.Model)
		assert.Equal(t, 42, out.TokensUsed)
		assert.False(t, out.Timestamp.IsZero())
	}

	assert.Equal(t, 2, env.Metadata.TotalAgents)
	assert.Equal(t, 2, env.Metadata.SuccessfulResponses)
	assert.Equal(t, 84, env.Metadata.TotalTokens)
	assert.Contains(t, env.SessionID, "session_")
	assert.Equal(t, env.SessionID, env.Metadata.SessionID, "session id is repeated inside metadata")
}

func TestHandleUnknownAgent(t *testing.T) {
	o := newTestOrchestrator(t, &stubAdapter{text: "hi"}, nil, "claude")

	env, err := o.Handle(context.Background(), Request{
		Message: "Summarize quantum computing",
		Agents:  []string{"claude", "unknownbot"},
	})
	require.NoError(t, err)

	assert.True(t, env.Success, "unknown agents never abort the batch")
	assert.Equal(t, StatusSuccess, env.Responses["claude"].Status)

	unknown := env.Responses["unknownbot"]
	require.NotNil(t, unknown)
	assert.Equal(t, StatusError, unknown.Status)
	assert.Contains(t, unknown.ErrorDetail, "Unknown agent")
	assert.Equal(t, 2, env.Metadata.TotalAgents)
	assert.Equal(t, 1, env.Metadata.SuccessfulResponses)
}

func TestHandleInactiveAgent(t *testing.T) {
	adapter := &stubAdapter{text: "hi"}
	reg := newTestRegistry(t, "claude")
	_, err := reg.Deactivate("claude")
	require.NoError(t, err)

	set := providers.Set{registry.ProviderOpenAI: adapter}
	o := New(reg, set, nil, nil, nil, nil, Options{})

	env, err := o.Handle(context.Background(), Request{Message: "hello", Agents: []string{"claude"}})
	require.NoError(t, err)

	out := env.Responses["claude"]
	assert.Equal(t, StatusError, out.Status)
	assert.Contains(t, out.ErrorDetail, "not active")
	assert.Equal(t, 0, adapter.callCount(), "inactive agents must not reach upstream")
}

func TestHandleUpstreamError(t *testing.T) {
	upstreamErr := &providers.UpstreamError{Provider: "openai", Model: "stub-model", StatusCode: 503, Body: "overloaded"}
	o := newTestOrchestrator(t, &stubAdapter{err: upstreamErr}, nil, "claude")

	env, err := o.Handle(context.Background(), Request{Message: "hello", Agents: []string{"claude"}})
	require.NoError(t, err)

	out := env.Responses["claude"]
	assert.Equal(t, StatusError, out.Status)
	assert.Contains(t, out.ErrorDetail, "503")
	assert.Equal(t, 0, env.Metadata.SuccessfulResponses)
}

func TestHandleDuplicateAgents(t *testing.T) {
	adapter := &stubAdapter{text: "hi"}
	o := newTestOrchestrator(t, adapter, nil, "claude")

	env, err := o.Handle(context.Background(), Request{
		Message: "hello",
		Agents:  []string{"claude", "claude", "claude"},
	})
	require.NoError(t, err)

	assert.Len(t, env.Responses, 1, "one outcome per unique id")
	assert.Equal(t, 3, env.Metadata.TotalAgents, "raw list length")
	assert.Equal(t, 1, adapter.callCount(), "duplicates collapse to one upstream call")
}

func TestHandleConcurrentFanOut(t *testing.T) {
	adapter := &stubAdapter{text: "hi", delay: 120 * time.Millisecond}
	ids := []string{"a1", "a2", "a3", "a4", "a5"}
	o := newTestOrchestrator(t, adapter, nil, ids...)

	start := time.Now()
	env, err := o.Handle(context.Background(), Request{Message: "hello", Agents: ids})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 5, env.Metadata.SuccessfulResponses)
	assert.Less(t, elapsed, 400*time.Millisecond,
		"five 120ms calls must overlap, not run sequentially (sum would be 600ms)")
}

func TestHandleAgentTimeout(t *testing.T) {
	adapter := &stubAdapter{text: "hi", delay: 500 * time.Millisecond}
	reg := newTestRegistry(t, "claude")
	set := providers.Set{registry.ProviderOpenAI: adapter}
	o := New(reg, set, nil, nil, nil, nil, Options{AgentTimeout: 50 * time.Millisecond})

	env, err := o.Handle(context.Background(), Request{Message: "hello", Agents: []string{"claude"}})
	require.NoError(t, err)

	out := env.Responses["claude"]
	assert.Equal(t, StatusError, out.Status)
	assert.NotEmpty(t, out.ErrorDetail)
}

func TestHandleMetadataMath(t *testing.T) {
	o := newTestOrchestrator(t, &stubAdapter{text: "hi"}, nil, "claude", "gpt", "gemini")

	env, err := o.Handle(context.Background(), Request{
		Message: "hello",
		Agents:  []string{"claude", "gpt", "gemini"},
	})
	require.NoError(t, err)

	m := env.Metadata
	assert.Equal(t, 3, m.TotalAgents)
	assert.InDelta(t, m.TotalTime/3, m.AverageResponseTime, 0.011,
		"average must be total divided by submitted count, within rounding")
	assert.LessOrEqual(t, m.SuccessfulResponses, m.TotalAgents)
	assert.NotEmpty(t, m.OrchestrationTime)
}

func TestHandleResponseCache(t *testing.T) {
	adapter := &stubAdapter{text: "cached answer"}
	mc := cache.NewMemoryCache(100, time.Minute)
	defer mc.Close()

	o := newTestOrchestrator(t, adapter, mc, "claude")
	ctx := context.Background()
	req := Request{Message: "same question", Agents: []string{"claude"}}

	first, err := o.Handle(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.Responses["claude"].CacheHit)
	assert.Equal(t, 1, adapter.callCount())

	second, err := o.Handle(ctx, req)
	require.NoError(t, err)
	out := second.Responses["claude"]
	assert.True(t, out.CacheHit)
	assert.Equal(t, "cached answer", out.Response)
	assert.Equal(t, 1, adapter.callCount(), "cache hit must not dial upstream again")

	// Un messaggio diverso non deve trovare la entry
	_, err = o.Handle(ctx, Request{Message: "different question", Agents: []string{"claude"}})
	require.NoError(t, err)
	assert.Equal(t, 2, adapter.callCount())
}

func TestHandleSingle(t *testing.T) {
	o := newTestOrchestrator(t, &stubAdapter{text: "solo"}, nil, "claude")

	out, sessionID, err := o.HandleSingle(context.Background(), "claude", "hello")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "solo", out.Response)
	assert.Contains(t, sessionID, "session_")

	_, _, err = o.HandleSingle(context.Background(), "claude", "  ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&providers.UpstreamError{Provider: "openai", StatusCode: 500}, "upstream"},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), "timeout"},
		{errors.New("boom"), "internal"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyError(tc.err))
	}
}
