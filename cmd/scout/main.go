package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/scout/api/handler"
	"github.com/use-agent/scout/config"
)

// Global flags.
var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Bounded topic-driven article discovery",
	Long: `Scout starts from seed pages, follows the links most likely to be about a
topic, and returns the articles that are. Every exploration runs on a fixed
action budget, so a batch of seeds finishes in bounded time.

Configuration comes from SCOUT_* environment variables; flags override them.

Examples:
  scout serve --port 8080
  scout explore https://www.reuters.com/business/energy/ --topic "solar power"
  scout rank --topic "solar power" https://apnews.com/ https://www.bbc.com/news
  scout rank --file seeds.yaml
  scout topics "solar power" -n 10`,
	Version:       handler.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json|text)")

	rootCmd.AddCommand(serveCmd(), exploreCmd(), rankCmd(), topicsCmd())
}

// loadConfig reads the environment and applies the global flags.
func loadConfig() *config.Config {
	cfg := config.Load()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
