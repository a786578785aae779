package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thepromptlink/promptlink/internal/orchestrator"
)

var (
	// ErrWorkflowNotFound indica un id di workflow sconosciuto
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrEmptyInput indica input utente vuoto
	ErrEmptyInput = errors.New("input is required for workflow execution")

	// ErrStepNotFound indica uno step fuori range
	ErrStepNotFound = errors.New("workflow step not found")

	// ErrBadExecutionID indica un execution id malformato
	ErrBadExecutionID = errors.New("malformed execution id")
)

// Task è un singolo passo di un template
type Task struct {
	Step           int      `json:"step"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	PromptTemplate string   `json:"prompt_template"`
	Agents         []string `json:"agents"`
}

// Template è un workflow multi-step predefinito
type Template struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Category          string   `json:"category"`
	EstimatedTime     string   `json:"estimated_time"`
	RecommendedAgents []string `json:"recommended_agents"`
	Tasks             []Task   `json:"tasks"`
	Status            string   `json:"status"`
	UsageCount        int64    `json:"usage_count"`
	SuccessRate       float64  `json:"success_rate"`
}

// PlanStep è uno step di un piano di esecuzione con il prompt già risolto
type PlanStep struct {
	StepNumber        int      `json:"step_number"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Prompt            string   `json:"prompt"`
	Agents            []string `json:"agents"`
	Status            string   `json:"status"`
	EstimatedDuration string   `json:"estimated_duration"`
}

// ExecutionPlan è un piano pronto per l'esecuzione step-by-step
type ExecutionPlan struct {
	WorkflowID    string     `json:"workflow_id"`
	WorkflowName  string     `json:"workflow_name"`
	UserInput     string     `json:"user_input"`
	TotalSteps    int        `json:"total_steps"`
	EstimatedTime string     `json:"estimated_time"`
	ExecutionID   string     `json:"execution_id"`
	Status        string     `json:"status"`
	CreatedAt     string     `json:"created_at"`
	Steps         []PlanStep `json:"steps"`
}

// StepResult è l'esito dell'esecuzione di uno step attraverso l'orchestratore
type StepResult struct {
	ExecutionID string                           `json:"execution_id"`
	StepNumber  int                              `json:"step_number"`
	Status      string                           `json:"status"`
	StartedAt   string                           `json:"started_at"`
	CompletedAt string                           `json:"completed_at"`
	Duration    float64                          `json:"duration"`
	Responses   map[string]*orchestrator.Outcome `json:"responses"`
	NextStep    *int                             `json:"next_step"`
}

// CategorySummary raggruppa i workflow per categoria
type CategorySummary struct {
	Name      string            `json:"name"`
	Workflows []WorkflowSummary `json:"workflows"`
	Count     int               `json:"count"`
}

// WorkflowSummary è la vista compatta di un template
type WorkflowSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UsageStats aggrega le statistiche d'uso dei template
type UsageStats struct {
	TotalWorkflows     int              `json:"total_workflows"`
	TotalExecutions    int64            `json:"total_executions"`
	AverageSuccessRate float64          `json:"average_success_rate"`
	MostPopular        WorkflowUsageRef `json:"most_popular_workflow"`
	HighestSuccess     WorkflowRateRef  `json:"highest_success_workflow"`
	LastUpdated        string           `json:"last_updated"`
}

// WorkflowUsageRef referenzia un template con il suo conteggio d'uso
type WorkflowUsageRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	UsageCount int64  `json:"usage_count"`
}

// WorkflowRateRef referenzia un template con il suo success rate
type WorkflowRateRef struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	SuccessRate float64 `json:"success_rate"`
}

// Service gestisce i template di workflow e la loro esecuzione
type Service struct {
	mu        sync.RWMutex
	templates map[string]*Template
	order     []string
	orch      *orchestrator.Orchestrator
}

// NewService crea un service con il catalogo predefinito
func NewService(orch *orchestrator.Orchestrator) *Service {
	s := &Service{
		templates: make(map[string]*Template),
		orch:      orch,
	}
	for _, tpl := range defaultTemplates() {
		t := tpl
		s.templates[t.ID] = &t
		s.order = append(s.order, t.ID)
	}
	return s
}

// List restituisce tutti i template nell'ordine del catalogo
func (s *Service) List() []Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Template, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.templates[id])
	}
	return out
}

// Get restituisce un template per id
func (s *Service) Get(id string) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	return *tpl, nil
}

// Categories raggruppa i template per categoria
func (s *Service) Categories() []CategorySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName := make(map[string]*CategorySummary)
	var order []string

	for _, id := range s.order {
		tpl := s.templates[id]
		cat, ok := byName[tpl.Category]
		if !ok {
			cat = &CategorySummary{Name: tpl.Category}
			byName[tpl.Category] = cat
			order = append(order, tpl.Category)
		}
		cat.Workflows = append(cat.Workflows, WorkflowSummary{
			ID:          tpl.ID,
			Name:        tpl.Name,
			Description: tpl.Description,
		})
		cat.Count++
	}

	out := make([]CategorySummary, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out
}

// Stats aggrega le statistiche d'uso del catalogo
func (s *Service) Stats() UsageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := UsageStats{
		TotalWorkflows: len(s.order),
		LastUpdated:    time.Now().Format(time.RFC3339),
	}

	var sumRate float64
	var popular, best *Template
	for _, id := range s.order {
		tpl := s.templates[id]
		stats.TotalExecutions += tpl.UsageCount
		sumRate += tpl.SuccessRate

		if popular == nil || tpl.UsageCount > popular.UsageCount {
			popular = tpl
		}
		if best == nil || tpl.SuccessRate > best.SuccessRate {
			best = tpl
		}
	}

	if stats.TotalWorkflows > 0 {
		stats.AverageSuccessRate = roundTo1(sumRate / float64(stats.TotalWorkflows))
	}
	if popular != nil {
		stats.MostPopular = WorkflowUsageRef{ID: popular.ID, Name: popular.Name, UsageCount: popular.UsageCount}
	}
	if best != nil {
		stats.HighestSuccess = WorkflowRateRef{ID: best.ID, Name: best.Name, SuccessRate: best.SuccessRate}
	}
	return stats
}

// Plan costruisce un piano di esecuzione sostituendo l'input utente
// nei prompt di ogni step
func (s *Service) Plan(id, userInput string) (*ExecutionPlan, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	tpl, ok := s.templates[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	tpl.UsageCount++
	plan := &ExecutionPlan{
		WorkflowID:    tpl.ID,
		WorkflowName:  tpl.Name,
		UserInput:     userInput,
		TotalSteps:    len(tpl.Tasks),
		EstimatedTime: tpl.EstimatedTime,
		ExecutionID:   fmt.Sprintf("exec_%s_%d", tpl.ID, time.Now().Unix()),
		Status:        "ready",
		CreatedAt:     time.Now().Format(time.RFC3339),
	}
	for _, task := range tpl.Tasks {
		plan.Steps = append(plan.Steps, PlanStep{
			StepNumber:        task.Step,
			Title:             task.Title,
			Description:       task.Description,
			Prompt:            strings.ReplaceAll(task.PromptTemplate, "{user_input}", userInput),
			Agents:            task.Agents,
			Status:            "pending",
			EstimatedDuration: "2-5 minutes",
		})
	}
	s.mu.Unlock()

	log.Info().
		Str("workflow_id", id).
		Str("execution_id", plan.ExecutionID).
		Int("steps", plan.TotalSteps).
		Msg("Workflow execution plan created")

	return plan, nil
}

// ExecuteStep esegue uno step del piano attraverso l'orchestratore.
// L'execution id codifica il workflow di origine, quindi lo step può
// essere rieseguito senza stato server-side.
func (s *Service) ExecuteStep(ctx context.Context, executionID string, stepNumber int, userInput string) (*StepResult, error) {
	workflowID, err := workflowIDFromExecution(executionID)
	if err != nil {
		return nil, err
	}

	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return nil, ErrEmptyInput
	}

	tpl, err := s.Get(workflowID)
	if err != nil {
		return nil, err
	}

	var task *Task
	for i := range tpl.Tasks {
		if tpl.Tasks[i].Step == stepNumber {
			task = &tpl.Tasks[i]
			break
		}
	}
	if task == nil {
		return nil, fmt.Errorf("%w: step %d of %s", ErrStepNotFound, stepNumber, workflowID)
	}

	prompt := strings.ReplaceAll(task.PromptTemplate, "{user_input}", userInput)

	started := time.Now()
	env, err := s.orch.Handle(ctx, orchestrator.Request{
		Message: prompt,
		Agents:  task.Agents,
	})
	if err != nil {
		return nil, err
	}

	result := &StepResult{
		ExecutionID: executionID,
		StepNumber:  stepNumber,
		Status:      "completed",
		StartedAt:   started.Format(time.RFC3339),
		CompletedAt: time.Now().Format(time.RFC3339),
		Duration:    env.Metadata.TotalTime,
		Responses:   env.Responses,
	}
	if stepNumber < len(tpl.Tasks) {
		next := stepNumber + 1
		result.NextStep = &next
	}
	return result, nil
}

// workflowIDFromExecution estrae il workflow id da "exec_<id>_<unix>"
func workflowIDFromExecution(executionID string) (string, error) {
	rest, ok := strings.CutPrefix(executionID, "exec_")
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrBadExecutionID, executionID)
	}
	idx := strings.LastIndex(rest, "_")
	if idx <= 0 {
		return "", fmt.Errorf("%w: %s", ErrBadExecutionID, executionID)
	}
	return rest[:idx], nil
}

func roundTo1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
