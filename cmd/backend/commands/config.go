package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thepromptlink/promptlink/pkg/config"
	"gopkg.in/yaml.v3"
)

// ConfigCmd rappresenta il comando config
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage PromptLink configuration files.

This command allows you to view and validate configuration files
for the PromptLink backend.`,
	Example: `  # Show current configuration
  promptlink config show

  # Validate configuration file
  promptlink config validate -c config.yaml`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

func init() {
	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Maschera le chiavi API prima di stampare
	masked := *cfg
	masked.Providers.OpenAI.APIKey = maskKey(cfg.Providers.OpenAI.APIKey)
	masked.Providers.OpenRouter.APIKey = maskKey(cfg.Providers.OpenRouter.APIKey)
	masked.Providers.Gemini.APIKey = maskKey(cfg.Providers.Gemini.APIKey)

	out, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Print(string(out))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Println("✓ Configuration is valid")
	return nil
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
