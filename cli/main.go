package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mova-engine/rulekit/cli/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rulekit",
		Short: "rulekit CLI",
		Long: `rulekit is the command-line client for a running rulekit server.

This tool allows you to:
- Evaluate a fact map against a ruleset
- Trigger and inspect hot reloads
- Validate the store's active rules without reloading
- Create, start, stop and inspect A/B tests`,
	}

	rootCmd.PersistentFlags().StringVar(&commands.APIServer, "server", "http://localhost:8080", "rulekit API server URL")

	rootCmd.AddCommand(commands.EvaluateCmd)
	rootCmd.AddCommand(commands.ReloadCmd)
	rootCmd.AddCommand(commands.ValidateCmd)
	rootCmd.AddCommand(commands.ABTestCmd)
	rootCmd.AddCommand(commands.StatusCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
