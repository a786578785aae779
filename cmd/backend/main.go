package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/thepromptlink/promptlink/cmd/backend/commands"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "promptlink",
		Short: "PromptLink - Multi-Agent AI Orchestration Backend",
		Long: `PromptLink - Multi-Agent AI Orchestration Backend

A backend that fans a single prompt out to multiple AI models in
parallel, tolerates per-agent failures and aggregates the responses
into a single envelope.

Features:
  • Concurrent fan-out to OpenAI, OpenRouter and Gemini
  • Per-agent failure isolation with partial results
  • Multi-step workflow templates
  • Response caching and request logging
  • Prometheus metrics and health monitoring`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.AgentsCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.DoctorCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("PromptLink version %s\n", version)
			fmt.Printf("Commit: %s\n", commit)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
