package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/thepromptlink/promptlink/pkg/config"
)

// newUpstreamStub simula un endpoint chat-completions upstream
func newUpstreamStub(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"canned reply"}}],"usage":{"total_tokens":12}}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(upstreamURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: 8080},
		Cache:  config.CacheConfig{Enabled: false},
		Providers: config.ProvidersConfig{
			Timeout:    5 * time.Second,
			OpenAI:     config.ProviderConfig{BaseURL: upstreamURL, APIKey: "test-key"},
			OpenRouter: config.ProviderConfig{BaseURL: upstreamURL, APIKey: "test-key"},
			Gemini:     config.ProviderConfig{BaseURL: upstreamURL, APIKey: "test-key"},
		},
		Orchestrator: config.OrchestratorConfig{
			MaxConcurrency: 5,
			AgentTimeout:   5 * time.Second,
			MaxTokens:      100,
			Temperature:    0.7,
		},
		Monitoring: config.MonitoringConfig{
			Prometheus:     config.PrometheusConfig{Enabled: false},
			HealthInterval: time.Minute,
		},
	}
}

func newTestGateway(t *testing.T, upstreamURL string) *Gateway {
	t.Helper()

	gw, err := New(testConfig(upstreamURL), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return gw
}

func postJSON(t *testing.T, gw *Gateway, path, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest("POST", path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := gw.App().Test(req)
	if err != nil {
		t.Fatalf("request %s failed: %v", path, err)
	}
	return resp
}

func getJSON(t *testing.T, gw *Gateway, path string) *http.Response {
	t.Helper()

	resp, err := gw.App().Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("request %s failed: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return body
}

func TestNew(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1")

	if gw.app == nil {
		t.Error("Gateway app not initialized")
	}
	if gw.agents == nil {
		t.Error("Gateway agent registry not initialized")
	}
	if gw.orch == nil {
		t.Error("Gateway orchestrator not initialized")
	}
	if gw.flows == nil {
		t.Error("Gateway workflow service not initialized")
	}
	if gw.monitor == nil {
		t.Error("Gateway health monitor not initialized")
	}
}

func TestIndexAndHealth(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1")

	for _, path := range []string{"/", "/health", "/ready"} {
		resp := getJSON(t, gw, path)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestChatValidation(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1")

	cases := []struct {
		name string
		body string
	}{
		{"empty message", `{"message":"   ","agents":["claude"]}`},
		{"missing message", `{"agents":["claude"]}`},
		{"empty agents", `{"message":"hello","agents":[]}`},
		{"missing agents", `{"message":"hello"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, gw, "/api/chat", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}

			body := decodeBody(t, resp)
			if body["success"] != false {
				t.Error("validation failures must report success=false")
			}
		})
	}
}

func TestChatFanOut(t *testing.T) {
	upstream := newUpstreamStub(t)
	gw := newTestGateway(t, upstream.URL)

	resp := postJSON(t, gw, "/api/chat", `{"message":"hello","agents":["claude","gpt","unknownbot"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Error("batch with partial failures must still report success=true")
	}

	responses, ok := body["responses"].(map[string]interface{})
	if !ok {
		t.Fatal("responses must be a map keyed by agent id")
	}

	claude := responses["claude"].(map[string]interface{})
	if claude["status"] != "success" {
		t.Errorf("claude status = %v, want success", claude["status"])
	}
	if claude["message"] != "canned reply" {
		t.Errorf("claude message = %v", claude["message"])
	}

	unknown := responses["unknownbot"].(map[string]interface{})
	if unknown["status"] != "error" {
		t.Errorf("unknownbot status = %v, want error", unknown["status"])
	}

	metadata := body["metadata"].(map[string]interface{})
	if metadata["total_agents"].(float64) != 3 {
		t.Errorf("total_agents = %v, want 3", metadata["total_agents"])
	}
	if metadata["successful_responses"].(float64) != 2 {
		t.Errorf("successful_responses = %v, want 2", metadata["successful_responses"])
	}

	sid, _ := body["session_id"].(string)
	if sid == "" {
		t.Error("session_id missing")
	}
	if metadata["session_id"] != sid {
		t.Errorf("metadata.session_id = %v, want %q", metadata["session_id"], sid)
	}
}

func TestChatSingle(t *testing.T) {
	upstream := newUpstreamStub(t)
	gw := newTestGateway(t, upstream.URL)

	resp := postJSON(t, gw, "/api/chat/single", `{"message":"hello","agent":"gpt"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	response := body["response"].(map[string]interface{})
	if response["agent"] != "gpt" {
		t.Errorf("agent = %v, want gpt", response["agent"])
	}

	// Messaggio vuoto: 400
	resp = postJSON(t, gw, "/api/chat/single", `{"message":"  "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestChatModels(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1")

	resp := getJSON(t, gw, "/api/chat/models")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["total"].(float64) != 5 {
		t.Errorf("total = %v, want 5", body["total"])
	}
	// testConfig configura una chiave per tutti i provider
	if body["available"].(float64) != 5 {
		t.Errorf("available = %v, want 5", body["available"])
	}
}

func TestAgentEndpoints(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1")

	resp := getJSON(t, gw, "/api/agents")
	body := decodeBody(t, resp)
	if body["total"].(float64) != 5 {
		t.Errorf("total = %v, want 5", body["total"])
	}

	resp = getJSON(t, gw, "/api/agents/claude")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /api/agents/claude = %d", resp.StatusCode)
	}

	resp = getJSON(t, gw, "/api/agents/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown agent should 404, got %d", resp.StatusCode)
	}

	resp = getJSON(t, gw, "/api/agents/claude/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /api/agents/claude/health = %d", resp.StatusCode)
	}

	// Deactivate e activate round-trip
	resp = postJSON(t, gw, "/api/agents/claude/deactivate", `{}`)
	body = decodeBody(t, resp)
	agent := body["agent"].(map[string]interface{})
	if agent["status"] != "inactive" {
		t.Errorf("status after deactivate = %v", agent["status"])
	}

	resp = postJSON(t, gw, "/api/agents/claude/activate", `{}`)
	body = decodeBody(t, resp)
	agent = body["agent"].(map[string]interface{})
	if agent["status"] != "active" {
		t.Errorf("status after activate = %v", agent["status"])
	}

	resp = getJSON(t, gw, "/api/agents/status")
	body = decodeBody(t, resp)
	status := body["status"].(map[string]interface{})
	if status["total_agents"].(float64) != 5 {
		t.Errorf("total_agents = %v", status["total_agents"])
	}
}

func TestWorkflowEndpoints(t *testing.T) {
	upstream := newUpstreamStub(t)
	gw := newTestGateway(t, upstream.URL)

	resp := getJSON(t, gw, "/api/workflows")
	body := decodeBody(t, resp)
	if body["total"].(float64) != 3 {
		t.Errorf("total workflows = %v, want 3", body["total"])
	}

	resp = getJSON(t, gw, "/api/workflows/strategic-planning")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET workflow = %d", resp.StatusCode)
	}

	resp = getJSON(t, gw, "/api/workflows/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown workflow should 404, got %d", resp.StatusCode)
	}

	resp = getJSON(t, gw, "/api/workflows/categories")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET categories = %d", resp.StatusCode)
	}

	resp = getJSON(t, gw, "/api/workflows/stats")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET stats = %d", resp.StatusCode)
	}

	// Execute senza input: 400
	resp = postJSON(t, gw, "/api/workflows/strategic-planning/execute", `{"input":""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("execute without input should 400, got %d", resp.StatusCode)
	}

	// Execute con input: piano pronto
	resp = postJSON(t, gw, "/api/workflows/multi-agent-debate/execute", `{"input":"remote work"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("execute = %d", resp.StatusCode)
	}
	body = decodeBody(t, resp)
	plan := body["execution_plan"].(map[string]interface{})
	if plan["total_steps"].(float64) != 4 {
		t.Errorf("total_steps = %v, want 4", plan["total_steps"])
	}

	// Esegui il primo step attraverso l'orchestratore
	execID := plan["execution_id"].(string)
	resp = postJSON(t, gw, "/api/workflows/executions/"+execID+"/step/1", `{"input":"remote work"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("execute step = %d", resp.StatusCode)
	}
	body = decodeBody(t, resp)
	result := body["step_result"].(map[string]interface{})
	if result["status"] != "completed" {
		t.Errorf("step status = %v", result["status"])
	}
}

func TestMonitoringEndpoints(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1")

	resp := getJSON(t, gw, "/api/monitoring/health")
	body := decodeBody(t, resp)
	h := body["health"].(map[string]interface{})
	if h["status"] == "" {
		t.Error("health status missing")
	}

	resp = getJSON(t, gw, "/api/monitoring/metrics")
	body = decodeBody(t, resp)
	if _, ok := body["metrics"].(map[string]interface{}); !ok {
		t.Error("metrics payload missing")
	}
}

func TestShutdown(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1")
	gw.monitor.Start()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := gw.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}
