// Package cli wires the funildash commands: the server itself plus the
// operational helpers (users, API keys, seeding, doctor).
package cli

import (
	"github.com/spf13/cobra"
)

var Version string

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:   "funildash",
	Short: "Funnel metrics dashboard for marketing agencies",
	Long: `Funildash - funnel metrics for marketing agencies.

Funildash ingests metric snapshots for funnels, campaigns, ad sets and
creatives, and serves an aggregated dashboard API with performance
ratings, time series and creative comparisons.`,
	// Default to serve command if no subcommand provided
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return serveDashboard()
		}
		return cmd.Help()
	},
}

// Execute is called by main
func Execute(version string) error {
	Version = version
	RootCmd.Version = version
	return RootCmd.Execute()
}
