package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thepromptlink/promptlink/internal/registry"
)

// AgentsCmd rappresenta il comando agents
var AgentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the configured agent catalog",
	Long: `List the agents the backend can orchestrate, with their upstream
provider, model and capabilities.`,
	Example: `  # List all agents
  promptlink agents`,
	RunE: runAgents,
}

func runAgents(cmd *cobra.Command, args []string) error {
	reg := registry.NewWithDefaults()
	agents := reg.List()

	fmt.Println("PromptLink Agent Catalog")
	fmt.Println("========================")
	fmt.Println()

	fmt.Printf("%-10s %-22s %-12s %-40s %s\n", "ID", "NAME", "PROVIDER", "MODEL", "CAPABILITIES")
	for _, agent := range agents {
		fmt.Printf("%-10s %-22s %-12s %-40s %s\n",
			agent.ID,
			agent.Name,
			agent.Provider,
			agent.Model,
			strings.Join(agent.Capabilities, ","),
		)
	}

	fmt.Println()
	fmt.Printf("Total: %d agents (%d active)\n", reg.Count(), reg.CountActive())
	return nil
}
