package registry

// DefaultCatalog restituisce il catalogo statico degli agenti.
// Gli id corrispondono a quelli usati dal frontend
func DefaultCatalog() []Descriptor {
	return []Descriptor{
		{
			ID:           "claude",
			Name:         "Claude 3.5 Sonnet",
			Provider:     ProviderOpenRouter,
			Model:        "anthropic/claude-3.5-sonnet",
			Capabilities: []string{"reasoning", "analysis", "creative-writing"},
			Color:        "green",
			Health:       98,
		},
		{
			ID:           "gpt",
			Name:         "ChatGPT 4 Turbo",
			Provider:     ProviderOpenAI,
			Model:        "gpt-4-turbo-preview",
			Capabilities: []string{"reasoning", "analysis", "code-generation"},
			Color:        "blue",
			Health:       95,
		},
		{
			ID:           "llama",
			Name:         "Llama 3.3",
			Provider:     ProviderOpenRouter,
			Model:        "meta-llama/llama-3.3-70b-instruct",
			Capabilities: []string{"reasoning", "analysis", "multilingual"},
			Color:        "purple",
			Health:       92,
		},
		{
			ID:           "mistral",
			Name:         "Mistral Large 2407",
			Provider:     ProviderOpenRouter,
			Model:        "mistralai/mistral-large-2407",
			Capabilities: []string{"reasoning", "analysis", "code-generation"},
			Color:        "orange",
			Health:       94,
		},
		{
			ID:           "gemini",
			Name:         "Gemini 2.0 Flash",
			Provider:     ProviderGemini,
			Model:        "gemini-2.0-flash-exp",
			Capabilities: []string{"reasoning", "analysis", "multimodal"},
			Color:        "red",
			Health:       96,
		},
	}
}

// NewWithDefaults crea un registry popolato con il catalogo di default
func NewWithDefaults() *Registry {
	r := New()
	for _, d := range DefaultCatalog() {
		// il catalogo statico non contiene duplicati
		_ = r.Register(d)
	}
	return r
}
