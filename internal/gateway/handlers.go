package gateway

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/thepromptlink/promptlink/internal/orchestrator"
	"github.com/thepromptlink/promptlink/internal/registry"
	"github.com/thepromptlink/promptlink/internal/workflows"
	"github.com/thepromptlink/promptlink/pkg/config"
)

// SingleChatRequest è il body di /api/chat/single
type SingleChatRequest struct {
	Message string `json:"message"`
	Agent   string `json:"agent"`
	Mode    string `json:"mode"`
}

// WorkflowExecuteRequest è il body di /api/workflows/:id/execute
type WorkflowExecuteRequest struct {
	Input string `json:"input"`
}

// handleIndex espone l'identità del servizio e l'indice degli endpoint
func (g *Gateway) handleIndex(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "PromptLink Backend",
		"version": "1.0.0",
		"status":  "operational",
		"endpoints": fiber.Map{
			"chat":       "/api/chat",
			"agents":     "/api/agents",
			"workflows":  "/api/workflows",
			"monitoring": "/api/monitoring/health",
		},
	})
}

// handleHealth endpoint di health check
func (g *Gateway) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"service":   "promptlink-backend",
		"timestamp": time.Now().Unix(),
		"version":   "1.0.0",
	})
}

// handleReady endpoint di readiness check
func (g *Gateway) handleReady(c fiber.Ctx) error {
	if g.db != nil {
		sqlDB, err := g.db.DB.DB()
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"ready": false,
				"error": "database connection failed",
			})
		}
		if err := sqlDB.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"ready": false,
				"error": "database ping failed",
			})
		}
	}

	return c.JSON(fiber.Map{
		"ready":     true,
		"timestamp": time.Now().Unix(),
	})
}

// handleChat orchestra una richiesta multi-agente
func (g *Gateway) handleChat(c fiber.Ctx) error {
	var req orchestrator.Request
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "No data provided",
		})
	}

	env, err := g.orch.Handle(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrEmptyMessage):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Message is required",
			})
		case errors.Is(err, orchestrator.ErrNoAgents):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "At least one agent is required",
			})
		default:
			log.Error().Err(err).Msg("Orchestration failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
	}

	return c.JSON(env)
}

// handleChatSingle orchestra una richiesta verso un singolo agente
func (g *Gateway) handleChatSingle(c fiber.Ctx) error {
	var req SingleChatRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "No data provided",
		})
	}

	if req.Agent == "" {
		req.Agent = "claude"
	}

	outcome, sessionID, err := g.orch.HandleSingle(c.Context(), req.Agent, req.Message)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Message is required",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"response":   outcome,
		"session_id": sessionID,
	})
}

// handleListModels elenca i modelli configurati e la loro disponibilità
func (g *Gateway) handleListModels(c fiber.Ctx) error {
	type modelInfo struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Provider  string `json:"provider"`
		Available bool   `json:"available"`
	}

	agents := g.agents.List()
	models := make([]modelInfo, 0, len(agents))
	available := 0

	for _, agent := range agents {
		ok := g.providerConfig(agent.Provider).APIKey != ""
		if ok {
			available++
		}
		models = append(models, modelInfo{
			ID:        agent.ID,
			Name:      agent.Model,
			Provider:  string(agent.Provider),
			Available: ok,
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"models":    models,
		"total":     len(models),
		"available": available,
	})
}

// providerConfig restituisce la configurazione di un provider upstream
func (g *Gateway) providerConfig(kind registry.ProviderKind) config.ProviderConfig {
	switch kind {
	case registry.ProviderOpenAI:
		return g.config.Providers.OpenAI
	case registry.ProviderOpenRouter:
		return g.config.Providers.OpenRouter
	case registry.ProviderGemini:
		return g.config.Providers.Gemini
	default:
		return config.ProviderConfig{}
	}
}

// handleListAgents elenca il catalogo agenti
func (g *Gateway) handleListAgents(c fiber.Ctx) error {
	agents := g.agents.List()

	return c.JSON(fiber.Map{
		"success": true,
		"agents":  agents,
		"total":   len(agents),
		"active":  g.agents.CountActive(),
	})
}

// handleAgentsStatus riassume lo stato del sistema agenti
func (g *Gateway) handleAgentsStatus(c fiber.Ctx) error {
	total := g.agents.Count()
	active := g.agents.CountActive()

	systemStatus := "operational"
	if active < 3 {
		systemStatus = "degraded"
	}

	// Combinazioni possibili di agenti, cap come nella UI
	combinations := int(math.Pow(2, float64(total))) - 1
	if combinations > 125 {
		combinations = 125
	}

	return c.JSON(fiber.Map{
		"success": true,
		"status": fiber.Map{
			"total_agents":          total,
			"active_agents":         active,
			"average_health":        g.agents.AverageHealth(),
			"system_status":         systemStatus,
			"possible_combinations": combinations,
			"last_updated":          time.Now().Format(time.RFC3339),
		},
	})
}

// handleGetAgent restituisce i dettagli di un agente
func (g *Gateway) handleGetAgent(c fiber.Ctx) error {
	agent, err := g.agents.Lookup(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Agent not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"agent":   agent,
	})
}

// handleAgentHealth restituisce lo stato di salute di un agente con le
// sue metriche di utilizzo
func (g *Gateway) handleAgentHealth(c fiber.Ctx) error {
	agentID := c.Params("id")

	agent, err := g.agents.Lookup(agentID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Agent not found",
		})
	}

	metrics, _ := g.orch.Collector().Agent(agentID)

	return c.JSON(fiber.Map{
		"success": true,
		"health": fiber.Map{
			"agent_id":        agentID,
			"health":          agent.Health,
			"status":          agent.Status,
			"response_time":   metrics.AvgLatencyMs() / 1000,
			"last_request":    metrics.LastRequestAt,
			"requests_today":  metrics.TotalRequests,
			"success_rate":    metrics.SuccessRate(),
			"last_updated":    agent.LastUpdated,
		},
	})
}

// handleActivateAgent attiva un agente
func (g *Gateway) handleActivateAgent(c fiber.Ctx) error {
	agentID := c.Params("id")

	agent, err := g.agents.Activate(agentID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Agent not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Agent " + agentID + " activated",
		"agent":   agent,
	})
}

// handleDeactivateAgent disattiva un agente
func (g *Gateway) handleDeactivateAgent(c fiber.Ctx) error {
	agentID := c.Params("id")

	agent, err := g.agents.Deactivate(agentID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Agent not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Agent " + agentID + " deactivated",
		"agent":   agent,
	})
}

// handleListWorkflows elenca i template di workflow
func (g *Gateway) handleListWorkflows(c fiber.Ctx) error {
	templates := g.flows.List()

	categories := make([]string, 0)
	seen := make(map[string]struct{})
	for _, tpl := range templates {
		if _, ok := seen[tpl.Category]; !ok {
			seen[tpl.Category] = struct{}{}
			categories = append(categories, tpl.Category)
		}
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"workflows":  templates,
		"total":      len(templates),
		"categories": categories,
	})
}

// handleWorkflowCategories raggruppa i workflow per categoria
func (g *Gateway) handleWorkflowCategories(c fiber.Ctx) error {
	categories := g.flows.Categories()

	return c.JSON(fiber.Map{
		"success":          true,
		"categories":       categories,
		"total_categories": len(categories),
	})
}

// handleWorkflowStats restituisce le statistiche d'uso dei workflow
func (g *Gateway) handleWorkflowStats(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"stats":   g.flows.Stats(),
	})
}

// handleGetWorkflow restituisce un template di workflow
func (g *Gateway) handleGetWorkflow(c fiber.Ctx) error {
	tpl, err := g.flows.Get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Workflow not found",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"workflow": tpl,
	})
}

// handleExecuteWorkflow costruisce il piano di esecuzione di un workflow
func (g *Gateway) handleExecuteWorkflow(c fiber.Ctx) error {
	workflowID := c.Params("id")

	var req WorkflowExecuteRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "No data provided",
		})
	}

	plan, err := g.flows.Plan(workflowID, req.Input)
	if err != nil {
		switch {
		case errors.Is(err, workflows.ErrWorkflowNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Workflow not found",
			})
		case errors.Is(err, workflows.ErrEmptyInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Input is required for workflow execution",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"execution_plan": plan,
	})
}

// handleExecuteWorkflowStep esegue uno step attraverso l'orchestratore
func (g *Gateway) handleExecuteWorkflowStep(c fiber.Ctx) error {
	executionID := c.Params("id")

	n, err := strconv.Atoi(c.Params("n"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid step number",
		})
	}

	var req WorkflowExecuteRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "No data provided",
		})
	}

	result, err := g.flows.ExecuteStep(c.Context(), executionID, n, req.Input)
	if err != nil {
		switch {
		case errors.Is(err, workflows.ErrWorkflowNotFound), errors.Is(err, workflows.ErrStepNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		case errors.Is(err, workflows.ErrEmptyInput), errors.Is(err, workflows.ErrBadExecutionID):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"step_result": result,
	})
}

// handleMonitoringHealth riassume la salute del sistema
func (g *Gateway) handleMonitoringHealth(c fiber.Ctx) error {
	score := g.agents.AverageHealth()

	status := "poor"
	switch {
	case score >= 95:
		status = "excellent"
	case score >= 90:
		status = "good"
	case score >= 80:
		status = "fair"
	}

	components := fiber.Map{
		"api_gateway":          "healthy",
		"ai_models":            "healthy",
		"orchestration_engine": "healthy",
	}
	if g.db != nil {
		dbStatus := "healthy"
		if sqlDB, err := g.db.DB.DB(); err != nil || sqlDB.Ping() != nil {
			dbStatus = "unhealthy"
		}
		components["database"] = dbStatus
	}

	return c.JSON(fiber.Map{
		"success": true,
		"health": fiber.Map{
			"status":        status,
			"health_score":  score,
			"uptime":        int(g.orch.Collector().Uptime().Seconds()),
			"active_agents": g.agents.CountActive(),
			"last_check":    time.Now().Format(time.RFC3339),
			"components":    components,
		},
	})
}

// handleMonitoringMetrics espone le metriche aggregate in JSON
func (g *Gateway) handleMonitoringMetrics(c fiber.Ctx) error {
	collector := g.orch.Collector()
	totals := collector.Totals()
	cacheStats := g.store.Stats()

	successRate := 0.0
	if totals.TotalRequests > 0 {
		successRate = float64(totals.SuccessCount) / float64(totals.TotalRequests) * 100
	}

	return c.JSON(fiber.Map{
		"success": true,
		"metrics": fiber.Map{
			"system_health":         g.agents.AverageHealth(),
			"uptime":                int(collector.Uptime().Seconds()),
			"active_agents":         g.agents.CountActive(),
			"total_requests":        totals.TotalRequests,
			"total_errors":          totals.ErrorCount,
			"total_tokens":          totals.TotalTokens,
			"success_rate":          successRate,
			"average_response_time": totals.AvgLatencyMs() / 1000,
			"cache_hits":            cacheStats.Hits,
			"cache_hit_rate":        cacheStats.HitRate(),
			"agents":                collector.Snapshot(),
			"last_updated":          time.Now().Format(time.RFC3339),
		},
	})
}
