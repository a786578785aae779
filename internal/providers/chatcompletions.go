package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/go-resty/resty/v2"
	"github.com/thepromptlink/promptlink/internal/extract"
)

// chatMessage messaggio nel formato chat-completions
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionsRequest body per la famiglia chat-completions
type chatCompletionsRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// ChatCompletionsAdapter copre le API stile OpenAI e OpenRouter.
// Le differenze tra i due (header HTTP-Referer/X-Title) sono
// configurazione, non logica
type ChatCompletionsAdapter struct {
	name       string
	settings   Settings
	httpClient *resty.Client
	limiter    *rate.Limiter
}

// NewChatCompletionsAdapter crea un adapter chat-completions
func NewChatCompletionsAdapter(name string, s Settings) *ChatCompletionsAdapter {
	client := newHTTPClient(name, s)

	if s.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+s.APIKey)
	}
	if s.Referer != "" {
		client.SetHeader("HTTP-Referer", s.Referer)
	}
	if s.Title != "" {
		client.SetHeader("X-Title", s.Title)
	}

	return &ChatCompletionsAdapter{
		name:       name,
		settings:   s,
		httpClient: client,
		limiter:    newLimiter(s.RateRPS),
	}
}

// Name restituisce il nome del provider
func (a *ChatCompletionsAdapter) Name() string {
	return a.name
}

// Complete esegue una chat completion e ne estrae il testo
func (a *ChatCompletionsAdapter) Complete(ctx context.Context, model, message string) (*Completion, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, &UpstreamError{Provider: a.name, Model: model, Err: err}
	}

	body := chatCompletionsRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: message}},
		MaxTokens:   a.settings.MaxTokens,
		Temperature: a.settings.Temperature,
	}

	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		Post("/v1/chat/completions")

	if err != nil {
		return nil, &UpstreamError{Provider: a.name, Model: model, Err: err}
	}

	if resp.IsError() {
		return nil, &UpstreamError{
			Provider:   a.name,
			Model:      model,
			StatusCode: resp.StatusCode(),
			Body:       string(resp.Body()),
		}
	}

	raw := resp.Body()
	text, err := extract.Text(raw)
	if err != nil {
		return nil, fmt.Errorf("%s response: %w", a.name, err)
	}

	return &Completion{
		Text:       text,
		Model:      model,
		TokensUsed: extract.TokensUsed(raw),
	}, nil
}
