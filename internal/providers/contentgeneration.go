package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/go-resty/resty/v2"
	"github.com/thepromptlink/promptlink/internal/extract"
)

// contentPart parte testuale di un contenuto
type contentPart struct {
	Text string `json:"text"`
}

// content contenuto della richiesta
type content struct {
	Parts []contentPart `json:"parts"`
}

// generationConfig parametri di generazione
type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

// contentGenerationRequest body per la famiglia content-generation.
// Niente array messages, niente envelope bearer
type contentGenerationRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

// ContentGenerationAdapter copre le API stile Gemini
type ContentGenerationAdapter struct {
	name       string
	settings   Settings
	httpClient *resty.Client
	limiter    *rate.Limiter
}

// NewContentGenerationAdapter crea un adapter content-generation
func NewContentGenerationAdapter(name string, s Settings) *ContentGenerationAdapter {
	return &ContentGenerationAdapter{
		name:       name,
		settings:   s,
		httpClient: newHTTPClient(name, s),
		limiter:    newLimiter(s.RateRPS),
	}
}

// Name restituisce il nome del provider
func (a *ContentGenerationAdapter) Name() string {
	return a.name
}

// Complete esegue una content generation e ne estrae il testo
func (a *ContentGenerationAdapter) Complete(ctx context.Context, model, message string) (*Completion, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, &UpstreamError{Provider: a.name, Model: model, Err: err}
	}

	body := contentGenerationRequest{
		Contents: []content{{Parts: []contentPart{{Text: message}}}},
		GenerationConfig: generationConfig{
			MaxOutputTokens: a.settings.MaxTokens,
			Temperature:     a.settings.Temperature,
		},
	}

	req := a.httpClient.R().
		SetContext(ctx).
		SetBody(body)

	// la chiave viaggia come query param, non come header bearer
	if a.settings.APIKey != "" {
		req.SetQueryParam("key", a.settings.APIKey)
	}

	resp, err := req.Post(fmt.Sprintf("/v1beta/models/%s:generateContent", model))
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
