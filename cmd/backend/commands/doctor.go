package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thepromptlink/promptlink/pkg/cache"
	"github.com/thepromptlink/promptlink/pkg/config"
	"github.com/thepromptlink/promptlink/pkg/database"
)

// DoctorCmd rappresenta il comando doctor
var DoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health diagnostics",
	Long: `Run health checks on the PromptLink setup.

This command verifies the configuration, checks which provider API keys
are present, and tests database and Redis connectivity.`,
	Example: `  # Run full diagnostic
  promptlink doctor`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("PromptLink System Health Check")
	fmt.Println("==============================")
	fmt.Println()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("✗ Configuration: %v\n", err)
		return err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("✗ Configuration: %v\n", err)
		return err
	}
	fmt.Println("✓ Configuration valid")

	checkKeys(cfg)
	checkDatabase(cfg)
	checkRedis(cfg)

	return nil
}

func checkKeys(cfg *config.Config) {
	keys := []struct {
		name string
		key  string
	}{
		{"OpenAI", cfg.Providers.OpenAI.APIKey},
		{"OpenRouter", cfg.Providers.OpenRouter.APIKey},
		{"Gemini", cfg.Providers.Gemini.APIKey},
	}

	for _, k := range keys {
		if k.key != "" {
			fmt.Printf("✓ %s API key configured\n", k.name)
		} else {
			fmt.Printf("✗ %s API key missing (agents on this provider will fail)\n", k.name)
		}
	}
}

func checkDatabase(cfg *config.Config) {
	if !cfg.Database.Enabled {
		fmt.Println("- Database disabled")
		return
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		fmt.Printf("✗ Database: %v\n", err)
		return
	}
	defer db.Close()

	fmt.Printf("✓ Database reachable (%s)\n", cfg.Database.Type)
}

func checkRedis(cfg *config.Config) {
	if !cfg.Cache.RedisEnabled {
		fmt.Println("- Redis disabled (memory cache in use)")
		return
	}

	// NewRedisCache pings the server on construction.
	rc, err := cache.NewRedisCache(cfg.Cache.RedisHost, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	if err != nil {
		fmt.Printf("✗ Redis: %v\n", err)
		return
	}
	defer rc.Close()

	fmt.Printf("✓ Redis reachable (%s)\n", cfg.Cache.RedisHost)
}
