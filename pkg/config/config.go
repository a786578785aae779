package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config rappresenta la configurazione completa dell'applicazione
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Providers    ProvidersConfig    `mapstructure:"providers"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
}

// ServerConfig configurazione del server HTTP
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig configurazione del database per i request log
type DatabaseConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Type       string `mapstructure:"type"`       // "sqlite" o "postgres"
	Connection string `mapstructure:"connection"` // connection string
	MaxConns   int    `mapstructure:"max_conns"`
	LogLevel   string `mapstructure:"log_level"`
}

// CacheConfig configurazione del response cache
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxEntries    int           `mapstructure:"max_entries"`
	TTL           time.Duration `mapstructure:"ttl"`
	RedisEnabled  bool          `mapstructure:"redis_enabled"`
	RedisHost     string        `mapstructure:"redis_host"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

// ProviderConfig configurazione di un singolo provider upstream
type ProviderConfig struct {
	BaseURL string  `mapstructure:"base_url"`
	APIKey  string  `mapstructure:"api_key"`
	Referer string  `mapstructure:"referer"` // header HTTP-Referer (solo OpenRouter)
	Title   string  `mapstructure:"title"`   // header X-Title (solo OpenRouter)
	RateRPS float64 `mapstructure:"rate_rps"`
}

// ProvidersConfig configurazione dei provider upstream
type ProvidersConfig struct {
	OpenAI     ProviderConfig `mapstructure:"openai"`
	OpenRouter ProviderConfig `mapstructure:"openrouter"`
	Gemini     ProviderConfig `mapstructure:"gemini"`
	Timeout    time.Duration  `mapstructure:"timeout"`
}

// OrchestratorConfig configurazione dell'orchestratore multi-agente
type OrchestratorConfig struct {
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	AgentTimeout   time.Duration `mapstructure:"agent_timeout"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Temperature    float64       `mapstructure:"temperature"`
}

// MonitoringConfig configurazione monitoring
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Logging    LoggingConfig    `mapstructure:"logging"`

	// HealthInterval intervallo di refresh dello stato degli agenti
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

// PrometheusConfig configurazione Prometheus
type PrometheusConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LoggingConfig configurazione logging
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load carica la configurazione da file con override da environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// PROMPTLINK_SERVER_PORT, PROMPTLINK_PROVIDERS_OPENAI_API_KEY, ...
	v.SetEnvPrefix("promptlink")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults imposta i valori di default
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)

	// Database defaults
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.connection", "./data/promptlink.db")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.log_level", "warn")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.redis_enabled", false)
	v.SetDefault("cache.redis_host", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)

	// Provider defaults
	v.SetDefault("providers.timeout", "60s")
	v.SetDefault("providers.openai.base_url", "https://api.openai.com")
	v.SetDefault("providers.openai.rate_rps", 5)
	v.SetDefault("providers.openrouter.base_url", "https://openrouter.ai/api")
	v.SetDefault("providers.openrouter.referer", "https://thepromptlink.com")
	v.SetDefault("providers.openrouter.title", "PromptLink Orchestration Engine")
	v.SetDefault("providers.openrouter.rate_rps", 5)
	v.SetDefault("providers.gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("providers.gemini.rate_rps", 5)

	// Orchestrator defaults
	v.SetDefault("orchestrator.max_concurrency", 5)
	v.SetDefault("orchestrator.agent_timeout", "60s")
	v.SetDefault("orchestrator.max_tokens", 1000)
	v.SetDefault("orchestrator.temperature", 0.7)

	// Monitoring defaults
	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.namespace", "promptlink")
	v.SetDefault("monitoring.logging.level", "info")
	v.SetDefault("monitoring.logging.format", "json")
	v.SetDefault("monitoring.health_interval", "30s")
}

// Validate valida la configurazione
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Enabled {
		switch c.Database.Type {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf("unsupported database type: %s", c.Database.Type)
		}
	}

	if c.Orchestrator.MaxConcurrency < 1 {
		return fmt.Errorf("orchestrator max_concurrency must be >= 1, got %d", c.Orchestrator.MaxConcurrency)
	}

	if c.Orchestrator.AgentTimeout <= 0 {
		return fmt.Errorf("orchestrator agent_timeout must be positive")
	}

	return nil
}
