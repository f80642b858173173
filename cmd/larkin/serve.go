package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/larkin/bootstrap"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the larkin API server.

The server will:
  - Load configuration from larkin.yaml (or --config)
  - Or load configuration from LARKIN_* environment variables
  - Open the sqlite plugin when database.dsn is set
  - Register every declaration under routes.dir
  - Serve the routes, the API root and the OpenAPI document

Any invalid declaration stops startup.

Examples:
  larkin serve
  larkin serve --config /etc/larkin/larkin.toml
  larkin serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "reload envelope info and log level when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with config file
		app, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		cfg, loadErr := loadConfig()
		if loadErr != nil {
			return fmt.Errorf("load config: %w", loadErr)
		}
		app, err = bootstrap.New(cfg, bootstrap.SetupLogger(cfg.Logging))
	}
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	dir := app.Config().Routes.Dir
	if _, err := os.Stat(dir); err != nil {
		app.Shutdown()
		return fmt.Errorf("routes directory: %w", err)
	}
	if _, err := app.LoadRoutes(dir); err != nil {
		app.Shutdown()
		return err
	}

	// Run (blocks until shutdown)
	return app.Run()
}
