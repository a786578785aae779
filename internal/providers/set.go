package providers

import (
	"github.com/thepromptlink/promptlink/internal/registry"
	"github.com/thepromptlink/promptlink/pkg/config"
)

// Set mappa ogni famiglia di provider sul rispettivo adapter
type Set map[registry.ProviderKind]Adapter

// NewSet costruisce gli adapter a partire dalla configurazione
func NewSet(cfg *config.Config) Set {
	common := func(p config.ProviderConfig) Settings {
		return Settings{
			BaseURL:     p.BaseURL,
			APIKey:      p.APIKey,
			Referer:     p.Referer,
			Title:       p.Title,
			Timeout:     cfg.Providers.Timeout,
			RateRPS:     p.RateRPS,
			MaxTokens:   cfg.Orchestrator.MaxTokens,
			Temperature: cfg.Orchestrator.Temperature,
		}
	}

	return Set{
		registry.ProviderOpenAI:     NewChatCompletionsAdapter("openai", common(cfg.Providers.OpenAI)),
		registry.ProviderOpenRouter: NewChatCompletionsAdapter("openrouter", common(cfg.Providers.OpenRouter)),
		registry.ProviderGemini:     NewContentGenerationAdapter("gemini", common(cfg.Providers.Gemini)),
	}
}

// Get restituisce l'adapter per una famiglia di provider
func (s Set) Get(kind registry.ProviderKind) (Adapter, bool) {
	a, ok := s[kind]
	return a, ok
}
