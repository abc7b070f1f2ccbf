package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "firebreak",
	Short: "Firebreak - policy-enforcement proxy for LLM traffic",
	Long: `Firebreak is a policy-enforcement proxy that sits between clients and
an LLM provider.

It exposes an OpenAI-compatible chat completion endpoint and runs every
request through an interception pipeline:
  - Intent classification via an LLM oracle with caching
  - Fail-closed evaluation against a declarative YAML policy
  - Forwarding of allowed requests to the downstream provider
  - Append-only audit trail and alert fan-out for blocked traffic`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
