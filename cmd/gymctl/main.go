// cmd/gymctl/main.go
package main

import (
	"os"

	"github.com/spf13/cobra"

	"gymdesk/internal/clients"
	"gymdesk/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var serverURL string
	client := func() *clients.GymClient { return clients.NewGymClient(serverURL) }

	root := &cobra.Command{
		Use:   "gymctl",
		Short: "Front desk operations against the gymdesk API",
		Long: `gymctl reads reports and runs maintenance against a running gymdesk API.

Examples:
  # Dashboard for today
  gymctl summary

  # Save the payments export
  gymctl export payments -o pagos.csv

  # Fill names missing on old visits
  gymctl backfill visit-names`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(), "gymdesk API URL")

	root.AddCommand(
		newPlansCmd(client),
		newSummaryCmd(client),
		newTodayCmd(client),
		newExportCmd(client),
		newBackfillCmd(client),
		newWalkInCmd(client),
	)
	return root
}

// defaultServerURL reads GYMDESK_API_URL through the shared config, .env included.
func defaultServerURL() string {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultAPIBaseURL
	}
	return cfg.APIBaseURL
}
