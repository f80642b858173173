package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/larkin/config"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "larkin",
	Short: "Declarative API routes with request validation and output formats",
	Long: `larkin serves API routes declared in YAML, TOML or JSON files.

Each declaration lists the route's parameters, their types and allowed
values, and the fields it returns. Requests are validated before the
route's handler runs, and responses are rendered as JSON, CSV, GeoJSON
or TopoJSON.

Quick start:
  larkin create units   # Scaffold a route declaration
  larkin validate       # Check every declaration
  larkin serve          # Start the API server

Inspection:
  larkin routes         # List declared routes
  larkin check <url>    # Validate a request offline
  larkin schema         # Print the declaration JSON Schema`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "larkin.yaml", "config file path")
}

// loadConfig reads the config file when it exists and falls back to
// defaults plus LARKIN_* environment variables.
func loadConfig() (*config.Config, error) {
	return config.LoadWithFallback(cfgFile)
}

// routesDir returns the declarations directory from args or the config.
func routesDir(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Routes.Dir, nil
}
