package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	apiKey  string
)

var rootCmd = &cobra.Command{
	Use:   "osc",
	Short: "openconsole CLI - manage console sessions from the command line",
	Long: `openconsole CLI (osc) is a command-line tool for the openconsole daemon.

It provides commands to create console and terminal sessions, send them
input, inspect their buffered output, and follow the daemon's event stream.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url",
		getEnvOrDefault("OPENCONSOLE_API_URL", "http://localhost:8080"),
		"openconsole API base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key",
		os.Getenv("OPENCONSOLE_API_KEY"), "openconsole API key")
}

func getEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}
