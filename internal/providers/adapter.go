package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Completion è il risultato normalizzato di una chiamata upstream
type Completion struct {
	Text       string
	Model      string
	TokensUsed int
}

// Adapter traduce tra la richiesta generica dell'orchestratore e il
// wire format di una famiglia API upstream
type Adapter interface {
	// Name restituisce il nome del provider
	Name() string

	// Complete invia il messaggio al modello e restituisce il testo estratto
	Complete(ctx context.Context, model, message string) (*Completion, error)
}

// UpstreamError rappresenta un fallimento della chiamata upstream:
// status non-2xx oppure errore di trasporto (StatusCode == 0)
type UpstreamError struct {
	Provider   string
	Model      string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error: status %d - %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s API exception: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Settings configurazione comune degli adapter
type Settings struct {
	BaseURL     string
	APIKey      string
	Referer     string // header HTTP-Referer (solo famiglia chat-completions)
	Title       string // header X-Title (solo famiglia chat-completions)
	Timeout     time.Duration
	RateRPS     float64
	MaxTokens   int
	Temperature float64
}

// newHTTPClient crea un client resty configurato per un adapter
func newHTTPClient(name string, s Settings) *resty.Client {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New().
		SetBaseURL(s.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		log.Debug().
			Str("provider", name).
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("Upstream API request")
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		log.Debug().
			Str("provider", name).
			Int("status", resp.StatusCode()).
			Dur("duration", resp.Time()).
			Msg("Upstream API response")
		return nil
	})

	return client
}

// newLimiter crea il rate limiter per provider
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
